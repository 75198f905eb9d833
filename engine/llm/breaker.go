package llm

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/WessleyAI/wessley-mvp/pkg/resilience"
)

// errorChunkPrefix matches the synthetic chunk errorChunk produces, letting
// BreakerClient tell a vendor failure from a normal stream without the
// backend needing to return a Go error directly.
const errorChunkPrefix = "Error generating response ("

// BreakerClient wraps a Client with circuit breaker protection: vendor
// outages trip the breaker open, short-circuiting further calls with
// resilience.ErrCircuitOpen instead of hammering a failing backend.
type BreakerClient struct {
	Client
	breaker *resilience.Breaker
}

// NewBreakerClient wraps next with a breaker using opts.
func NewBreakerClient(next Client, opts resilience.BreakerOpts) *BreakerClient {
	return &BreakerClient{Client: next, breaker: resilience.NewBreaker(opts)}
}

// Generate forwards the wrapped client's chunks to out as they arrive, inside
// the breaker's Call, so a caller sees the stream live instead of waiting for
// it to finish. The breaker itself only sees the final verdict, tracked via
// an atomic bool set when a synthetic error chunk is seen, so a vendor
// failure still counts against the breaker without buffering the response.
func (b *BreakerClient) Generate(ctx context.Context, query string, contextDocs []string, history []Message) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		var failed atomic.Bool
		err := b.breaker.Call(ctx, func(ctx context.Context) error {
			for chunk := range b.Client.Generate(ctx, query, contextDocs, history) {
				out <- chunk
				if strings.HasPrefix(chunk, errorChunkPrefix) {
					failed.Store(true)
				}
			}
			if failed.Load() {
				return errVendorFailure
			}
			return nil
		})

		if err == resilience.ErrCircuitOpen {
			out <- errorChunk(b.Client.ProviderName(), resilience.ErrCircuitOpen)
		}
	}()

	return out
}

var errVendorFailure = &vendorFailureError{}

type vendorFailureError struct{}

func (*vendorFailureError) Error() string { return "llm: vendor returned an error chunk" }
