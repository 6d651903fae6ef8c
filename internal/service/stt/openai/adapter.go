// Package openai provides an OpenAI Whisper speech-to-text adapter.
package openai

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the transcription model used when none is configured.
const DefaultModel = goopenai.Whisper1

// Adapter implements stt.Adapter using the OpenAI audio transcription endpoint.
type Adapter struct {
	client *goopenai.Client
	model  string
}

// New creates an adapter on top of a shared, already-authenticated client.
func New(client *goopenai.Client, model string) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{client: client, model: model}
}

func (a *Adapter) Name() string { return "openai" }

// Transcribe uploads the file and asks for a plain-text response.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := a.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    a.model,
		FilePath: audioPath,
		Format:   goopenai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
