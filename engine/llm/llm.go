// Package llm implements the uniform streaming LLM client contract (spec
// component I) over multiple vendor backends, with a shared system prompt,
// context-prompt builder, and thinking-tag scrubber living above the
// per-vendor interface.
package llm

import (
	"context"
	"strings"
)

// DefaultSystemPrompt constrains every backend to answer from context only.
const DefaultSystemPrompt = "You are a helpful and precise AI assistant. " +
	"Your task is to answer the user's question based ONLY on the provided context. " +
	"If the answer is not present in the context, state that you do not have enough information. " +
	"Do not fabricate information or use outside knowledge unless explicitly asked."

// Temperature and MaxOutputTokens are the fixed generation parameters every
// backend uses (§4.9).
const (
	Temperature     = 0.1
	MaxOutputTokens = 1024
)

// Message is one turn of chat history.
type Message struct {
	Role    string
	Content string
}

// Client is the uniform contract every vendor backend implements.
type Client interface {
	// Generate streams text chunks for query given context_docs and
	// history. The returned channel is closed when the stream ends,
	// including after a backend error (which surfaces as exactly one
	// synthetic "Error generating response (<vendor>): <msg>" chunk).
	Generate(ctx context.Context, query string, contextDocs []string, history []Message) <-chan string
	ProviderName() string
}

// buildContextPrompt joins docs with "\n\n---\n\n" and wraps the result with
// the query, exactly as every backend in the distilled source does.
func buildContextPrompt(query string, docs []string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	b.WriteString(strings.Join(docs, "\n\n---\n\n"))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(query)
	return b.String()
}

// errorChunk formats the synthetic error chunk every backend emits on
// failure, preserving the exact wording the query pipeline's
// `startswith("Error")` check relies on.
func errorChunk(vendor string, err error) string {
	return "Error generating response (" + vendor + "): " + err.Error()
}
