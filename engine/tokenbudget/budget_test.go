package tokenbudget

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCountFallsBackToCharsPerFourOnUnknownModel(t *testing.T) {
	c := NewCounter("not-a-real-model-xyz", 4096, 256, testLogger())
	c.encoding = nil // force the chars/4 path regardless of cl100k_base availability

	got := c.Count("12345678") // 8 chars
	if want := 8 / charsPerToken; got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestTruncateContextKeepsContiguousPrefix(t *testing.T) {
	c := NewCounter("gpt-4", 0, 0, testLogger())
	c.encoding = nil
	c.maxContextTokens = 20
	c.reserveOutputTokens = 0

	docs := []ScoredDoc{
		{Text: strings.Repeat("a", 4*4)}, // 4 tokens
		{Text: strings.Repeat("b", 4*4)}, // 4 tokens
		{Text: strings.Repeat("c", 4*100)}, // 100 tokens, overflows
		{Text: strings.Repeat("d", 4*4)}, // would fit alone but comes after an overflow
	}

	// available = 20 - 0 - 0 - 0 - 0 - 50 = negative -> everything dropped.
	// Bump maxContextTokens so formattingOverhead doesn't eat the whole budget.
	c.maxContextTokens = 120

	selected, truncated := c.TruncateContext("", "", docs, nil)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if len(selected) != 2 {
		t.Fatalf("expected the 2-doc prefix to survive, got %d docs", len(selected))
	}
	if selected[0].Text != docs[0].Text || selected[1].Text != docs[1].Text {
		t.Fatalf("expected the first two docs in original order to survive")
	}
}

func TestTruncateContextNoTruncationWhenEverythingFits(t *testing.T) {
	c := NewCounter("gpt-4", 10_000, 0, testLogger())
	c.encoding = nil

	docs := []ScoredDoc{{Text: "short"}, {Text: "also short"}}
	selected, truncated := c.TruncateContext("sys", "query", docs, nil)
	if truncated {
		t.Fatalf("did not expect truncation")
	}
	if len(selected) != 2 {
		t.Fatalf("expected both docs to survive, got %d", len(selected))
	}
}

func TestTruncateContextEmptyInput(t *testing.T) {
	c := NewCounter("gpt-4", 10_000, 0, testLogger())
	selected, truncated := c.TruncateContext("sys", "query", nil, nil)
	if truncated || selected != nil {
		t.Fatalf("expected no-op on empty input, got %v, %v", selected, truncated)
	}
}

func TestTruncateContextZeroBudgetDropsEverything(t *testing.T) {
	c := NewCounter("gpt-4", 10, 0, testLogger())
	c.encoding = nil

	docs := []ScoredDoc{{Text: "anything"}}
	selected, truncated := c.TruncateContext("system prompt text", "a question", docs, nil)
	if !truncated {
		t.Fatalf("expected truncation when budget is exhausted by overhead alone")
	}
	if len(selected) != 0 {
		t.Fatalf("expected no docs to survive, got %d", len(selected))
	}
}
