package llm

import (
	"context"
	"fmt"
)

// DummyClient is the no-op backend used when no real provider is configured.
// It never calls out to a network and never fails.
type DummyClient struct{}

// NewDummyClient returns a DummyClient.
func NewDummyClient() *DummyClient { return &DummyClient{} }

func (DummyClient) ProviderName() string { return "dummy" }

func (DummyClient) Generate(ctx context.Context, query string, contextDocs []string, history []Message) <-chan string {
	out := make(chan string, 1)
	out <- fmt.Sprintf(
		"\U0001F916 [DUMMY AI]: Received the question '%s'.\n"+
			"\U0001F4DA Number of Context Documents Used: %d\n"+
			"⚠️ No real model is connected. Please configure the LLM_PROVIDER setting.",
		query, len(contextDocs),
	)
	close(out)
	return out
}
