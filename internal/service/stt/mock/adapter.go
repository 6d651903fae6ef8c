// Package mock provides a mock STT adapter for testing without cloud credentials.
// It cycles through sample speeches so repeated local runs produce varied reports.
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// DefaultTranscripts provides sample speeches for simulation, one per purpose.
var DefaultTranscripts = []string{
	"Good morning investors. Our platform cuts onboarding time for small clinics by half. " +
		"We have forty paying customers and monthly revenue is growing twenty percent. " +
		"We are raising two million to expand the sales team.",
	"Thank you for having me. In my last role I led a team of five engineers and we shipped " +
		"a billing system that reduced support tickets by a third. I am looking for a place " +
		"where I can grow into architecture work.",
	"Today I will present our study on urban heat islands. We collected temperature data " +
		"from sixty sensors over two summers. The results show that green roofs lower " +
		"surface temperature by up to four degrees.",
	"Hi everyone, quick update on the migration. We moved three of the five services last " +
		"sprint. The remaining two depend on the new queue, so we expect to finish by the " +
		"end of the month.",
}

// transcriptCounter tracks which transcript to use next (cycles through defaults)
var (
	transcriptCounter int
	counterMu         sync.Mutex
)

// Adapter implements stt.Adapter with canned responses.
type Adapter struct {
	mu       sync.Mutex
	text     string // fixed transcript; empty means cycle DefaultTranscripts
	err      error
	calls    int
	lastPath string
	fileSeen bool // whether lastPath existed while Transcribe ran
}

// New creates a mock adapter that cycles through DefaultTranscripts.
func New() *Adapter {
	return &Adapter{}
}

// NewWithText creates a mock adapter that always returns text.
func NewWithText(text string) *Adapter {
	return &Adapter{text: text}
}

// NewWithError creates a mock adapter that always fails with err.
func NewWithError(err error) *Adapter {
	return &Adapter{err: err}
}

func (a *Adapter) Name() string { return "mock" }

// Transcribe records the call and returns the configured transcript.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, statErr := os.Stat(audioPath)

	a.mu.Lock()
	a.calls++
	a.lastPath = audioPath
	a.fileSeen = statErr == nil
	text, err := a.text, a.err
	a.mu.Unlock()

	if err != nil {
		return "", err
	}
	if statErr != nil {
		return "", fmt.Errorf("mock transcription: %w", statErr)
	}
	if text != "" {
		return text, nil
	}

	counterMu.Lock()
	idx := transcriptCounter % len(DefaultTranscripts)
	transcriptCounter++
	counterMu.Unlock()

	return DefaultTranscripts[idx], nil
}

// Calls returns how many times Transcribe was invoked.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// LastPath returns the path passed to the most recent Transcribe call.
func (a *Adapter) LastPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastPath
}

// FileSeen reports whether the most recent path existed during the call.
func (a *Adapter) FileSeen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fileSeen
}
