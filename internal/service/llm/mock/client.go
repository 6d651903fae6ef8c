// Package mock provides llm.Client doubles for local runs and tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"ai-speech-coach-service/internal/service/llm"
)

// EchoClient answers with a short markdown document derived from the prompt.
type EchoClient struct{}

func (EchoClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("## Mock feedback\n\n_model: %s_\n\n> %s\n", req.Model, collapse(req.Prompt)), nil
}

func collapse(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > 120 {
		return string([]rune(text)[:120]) + "..."
	}
	return text
}

// Scripted returns canned responses keyed by a substring of the prompt and
// records every request it receives.
type Scripted struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	requests  []llm.Request
}

// NewScripted creates an empty Scripted client.
func NewScripted() *Scripted {
	return &Scripted{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

// On answers prompts containing marker with response.
func (s *Scripted) On(marker, response string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[marker] = response
	return s
}

// FailOn fails prompts containing marker with err.
func (s *Scripted) FailOn(marker string, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[marker] = err
	return s
}

func (s *Scripted) Generate(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for marker, err := range s.errs {
		if strings.Contains(req.Prompt, marker) {
			return "", err
		}
	}
	for marker, resp := range s.responses {
		if strings.Contains(req.Prompt, marker) {
			return resp, nil
		}
	}
	return "", llm.ErrEmptyCompletion
}

// Requests returns a copy of all requests received so far.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}
