package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient streams chat completions from an OpenAI-compatible endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds a client against apiKey/model with the given
// per-request timeout.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		),
		model: model,
	}
}

func (c *OpenAIClient) ProviderName() string { return "openai" }

func (c *OpenAIClient) Generate(ctx context.Context, query string, contextDocs []string, history []Message) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		messages := []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(DefaultSystemPrompt),
		}
		for _, h := range history {
			if h.Role == "user" {
				messages = append(messages, openai.UserMessage(h.Content))
			} else {
				messages = append(messages, openai.AssistantMessage(h.Content))
			}
		}
		messages = append(messages, openai.UserMessage(buildContextPrompt(query, contextDocs)))

		stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:       c.model,
			Messages:    messages,
			Temperature: openai.Float(Temperature),
			MaxTokens:   openai.Int(MaxOutputTokens),
		})
		defer stream.Close()

		scrubber := NewScrubber()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := scrubber.Feed(chunk.Choices[0].Delta.Content); content != "" {
				select {
				case out <- content:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case out <- errorChunk("OpenAI", err):
			case <-ctx.Done():
			}
			return
		}
		if rest := scrubber.Flush(); rest != "" {
			select {
			case out <- rest:
			case <-ctx.Done():
			}
		}
	}()

	return out
}
