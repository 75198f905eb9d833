package mlclient

import (
	"context"
	"testing"
)

func TestRerankEmptyInputShortCircuits(t *testing.T) {
	r := &GRPCReranker{} // zero-value: no client, no connection
	out, err := r.Rerank(context.Background(), "anything", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output for empty input, got %v", out)
	}
}
