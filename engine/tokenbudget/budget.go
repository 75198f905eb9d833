// Package tokenbudget counts tokens for an LLM request and trims retrieved
// context down to what the model's context window can hold (§4.5 step 7).
package tokenbudget

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/WessleyAI/wessley-mvp/engine/llm"
)

// charsPerToken is the industry-standard fallback approximation used when no
// tiktoken encoding is available for the configured model.
const charsPerToken = 4

// formattingOverhead accounts for the fixed wrapper text the query pipeline
// adds around context and the question (see llm.buildContextPrompt).
const formattingOverhead = 50

// Counter estimates token counts for a specific model, falling back to a
// character approximation when the model is unknown to tiktoken.
type Counter struct {
	maxContextTokens   int
	reserveOutputTokens int
	encoding           *tiktoken.Tiktoken
	logger             *slog.Logger
}

// NewCounter builds a Counter for modelName. If tiktoken has no encoding for
// modelName it falls back to cl100k_base, and if that also fails it falls
// back further to the chars/4 approximation at count time.
func NewCounter(modelName string, maxContextTokens, reserveOutputTokens int, logger *slog.Logger) *Counter {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Warn("no tiktoken encoding available, using chars/4 approximation", "model", modelName)
			enc = nil
		}
	}
	return &Counter{
		maxContextTokens:    maxContextTokens,
		reserveOutputTokens: reserveOutputTokens,
		encoding:            enc,
		logger:              logger,
	}
}

// Count estimates the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	return len(text) / charsPerToken
}

// Totals is the per-component token breakdown for one request.
type Totals struct {
	Total   int
	System  int
	Query   int
	Context int
	History int
}

// CountForContext totals tokens across every component of a request.
func (c *Counter) CountForContext(systemPrompt, query string, contextDocs []string, history []llm.Message) Totals {
	t := Totals{
		System: c.Count(systemPrompt),
		Query:  c.Count(query),
	}
	for _, doc := range contextDocs {
		t.Context += c.Count(doc)
	}
	for _, h := range history {
		t.History += c.Count(h.Content)
	}
	t.Total = t.System + t.Query + t.Context + t.History
	return t
}

// ScoredDoc is one reranked context candidate, already sorted
// highest-score-first.
type ScoredDoc struct {
	Text  string
	Score float32
}

// TruncateContext selects the contiguous, highest-score-first prefix of docs
// that fits the available token budget. Docs are assumed already sorted by
// descending relevance (the reranker's order); the first entry that would
// overflow the budget, and everything after it, is dropped. Returns the
// surviving docs and whether anything was truncated.
func (c *Counter) TruncateContext(systemPrompt, query string, docs []ScoredDoc, history []llm.Message) ([]ScoredDoc, bool) {
	if len(docs) == 0 {
		return nil, false
	}

	systemTokens := c.Count(systemPrompt)
	queryTokens := c.Count(query)
	historyTokens := 0
	for _, h := range history {
		historyTokens += c.Count(h.Content)
	}

	available := c.maxContextTokens - systemTokens - queryTokens - historyTokens - c.reserveOutputTokens - formattingOverhead
	if available <= 0 {
		c.logger.Warn("no tokens available for context",
			"system_tokens", systemTokens, "query_tokens", queryTokens, "history_tokens", historyTokens)
		return nil, true
	}

	selected := make([]ScoredDoc, 0, len(docs))
	used := 0
	truncated := false
	for _, doc := range docs {
		tokens := c.Count(doc.Text)
		if used+tokens > available {
			truncated = true
			break
		}
		selected = append(selected, doc)
		used += tokens
	}

	if truncated {
		c.logger.Warn("context truncated",
			"original_count", len(docs), "selected_count", len(selected),
			"used_tokens", used, "available_tokens", available)
	}

	return selected, truncated
}
