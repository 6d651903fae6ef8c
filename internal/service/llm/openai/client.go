// Package openai implements llm.Client on the OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"ai-speech-coach-service/internal/service/llm"
)

// DefaultModel is used when a request carries no model.
const DefaultModel = goopenai.GPT4o

// Client sends each prompt as a single user message.
type Client struct {
	client *goopenai.Client
}

// New wraps a shared go-openai client.
func New(client *goopenai.Client) *Client {
	return &Client{client: client}
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
