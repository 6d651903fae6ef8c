// Package llm defines the text-generation client used to produce feedback reports.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Request is a single-turn generation request.
type Request struct {
	Model  string
	Prompt string
}

// Client generates text for one prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
