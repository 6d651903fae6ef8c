// Package stt defines the interface for Speech-to-Text adapters.
package stt

import (
	"context"
	"errors"
)

// ErrUnsupportedFormat is returned by adapters that cannot accept a file's encoding.
var ErrUnsupportedFormat = errors.New("audio format not supported by provider")

// Adapter defines the interface for STT providers (OpenAI, Google, mock).
type Adapter interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe submits the audio file at audioPath and returns its plain-text transcript.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// FormatChecker is implemented by adapters that accept only some file encodings.
type FormatChecker interface {
	// Supports reports whether the provider can decode a file named filename.
	Supports(filename string) bool
}
