package mlclient

import (
	"context"

	"github.com/WessleyAI/wessley-mvp/pkg/fn"
	"github.com/WessleyAI/wessley-mvp/pkg/resilience"
)

// BreakerEmbedder wraps an Embedder with circuit breaker protection, tripping
// open once the underlying ML worker starts failing its embed calls.
type BreakerEmbedder struct {
	Embedder
	breaker *resilience.Breaker
}

// NewBreakerEmbedder wraps next with a breaker using opts.
func NewBreakerEmbedder(next Embedder, opts resilience.BreakerOpts) *BreakerEmbedder {
	return &BreakerEmbedder{Embedder: next, breaker: resilience.NewBreaker(opts)}
}

func (b *BreakerEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result := resilience.CallResult(b.breaker, ctx, func(ctx context.Context) fn.Result[[][]float32] {
		return fn.FromPair(b.Embedder.Embed(ctx, texts))
	})
	return result.Unwrap()
}

// BreakerReranker wraps a Reranker with circuit breaker protection.
type BreakerReranker struct {
	Reranker
	breaker *resilience.Breaker
}

// NewBreakerReranker wraps next with a breaker using opts.
func NewBreakerReranker(next Reranker, opts resilience.BreakerOpts) *BreakerReranker {
	return &BreakerReranker{Reranker: next, breaker: resilience.NewBreaker(opts)}
}

func (b *BreakerReranker) Rerank(ctx context.Context, query string, passages []Passage, topK int) ([]RankedPassage, error) {
	result := resilience.CallResult(b.breaker, ctx, func(ctx context.Context) fn.Result[[]RankedPassage] {
		return fn.FromPair(b.Reranker.Rerank(ctx, query, passages, topK))
	})
	return result.Unwrap()
}
