package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"ai-speech-coach-service/internal/service/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := goopenai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return New(goopenai.NewClientWithConfig(cfg))
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func TestClient_GenerateSendsSingleUserMessage(t *testing.T) {
	var got goopenai.ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		writeCompletion(w, "## Pace\nGood.")
	})

	out, err := c.Generate(context.Background(), llm.Request{Prompt: "analyse this"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if out != "## Pace\nGood." {
		t.Errorf("expected completion to pass through untouched, got %q", out)
	}
	if got.Model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", got.Model)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != goopenai.ChatMessageRoleUser || got.Messages[0].Content != "analyse this" {
		t.Errorf("unexpected message %+v", got.Messages[0])
	}
}

func TestClient_GenerateEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Model: "gpt-4o", Prompt: "p"})
	if !errors.Is(err, llm.ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestClient_GenerateProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("expected *APIError in chain, got %T", err)
	}
}
