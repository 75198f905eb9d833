package llm

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient streams messages from the Anthropic Messages API, running
// every chunk through a Scrubber before it reaches the caller.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient builds a client. baseURL may be empty to use the
// default Anthropic endpoint.
func NewAnthropicClient(baseURL, apiKey, model string, timeout time.Duration) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *AnthropicClient) ProviderName() string { return "anthropic" }

func (c *AnthropicClient) Generate(ctx context.Context, query string, contextDocs []string, history []Message) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		var messages []anthropic.MessageParam
		for _, h := range history {
			if h.Role == "user" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(h.Content)))
			} else {
				messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(h.Content)))
			}
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(buildContextPrompt(query, contextDocs))))

		stream := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.model),
			System:      []anthropic.TextBlockParam{{Text: DefaultSystemPrompt}},
			Messages:    messages,
			Temperature: anthropic.Float(Temperature),
			MaxTokens:   int64(MaxOutputTokens),
		})

		scrubber := NewScrubber()
		emit := func(s string) bool {
			if s == "" {
				return true
			}
			select {
			case out <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text := delta.Delta.Text
			if text == "" {
				continue
			}
			if !emit(scrubber.Feed(text)) {
				return
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			emit(errorChunk("Anthropic", err))
			return
		}
		emit(scrubber.Flush())
	}()

	return out
}
