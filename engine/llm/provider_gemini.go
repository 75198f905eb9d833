package llm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"
)

// GeminiClient streams content from the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds a client against an optional baseURL override.
func NewGeminiClient(ctx context.Context, baseURL, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey: apiKey,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
			Timeout: genai.Ptr(timeout),
		},
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) ProviderName() string { return "gemini" }

func (c *GeminiClient) Generate(ctx context.Context, query string, contextDocs []string, history []Message) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		var contents []*genai.Content
		for _, h := range history {
			role := "model"
			if h.Role == "user" {
				role = "user"
			}
			contents = append(contents, genai.NewContentFromText(h.Content, genai.Role(role)))
		}
		contents = append(contents, genai.NewContentFromText(buildContextPrompt(query, contextDocs), genai.RoleUser))

		falseVal := false
		stream := c.client.Models.GenerateContentStream(ctx, c.model, contents, &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(DefaultSystemPrompt, genai.RoleUser),
			MaxOutputTokens:   MaxOutputTokens,
			Temperature:       genai.Ptr(float32(Temperature)),
			ThinkingConfig:    &genai.ThinkingConfig{IncludeThoughts: falseVal},
		})

		scrubber := NewScrubber()
		for resp, err := range stream {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				select {
				case out <- errorChunk("Gemini", err):
				case <-ctx.Done():
				}
				return
			}
			if text := scrubber.Feed(resp.Text()); text != "" {
				select {
				case out <- text:
				case <-ctx.Done():
					return
				}
			}
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
