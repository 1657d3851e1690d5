package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-health-planner/internal/config"
)

func newTestClient(url string, timeout time.Duration) *OpenRouterClient {
	c := NewOpenRouterClient(&config.Config{
		OpenRouterAPIKey: "test-key",
		LLMModel:         "test/model",
		LLMMaxTokens:     1024,
		LLMTimeout:       timeout,
	})
	c.endpoint = url
	return c
}

func TestOpenRouterClient_GenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got chatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("Unexpected auth header %q", r.Header.Get("Authorization"))
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"content":"  {\"name\":\"x\"}  "}}],"usage":{"prompt_tokens":12,"completion_tokens":8,"total_tokens":20}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, time.Second)
		resp, err := client.GenerateContent(context.Background(), Prompt{System: "sys", User: "usr"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resp.Content != `  {"name":"x"}  ` {
			t.Errorf("Content must be returned unmodified, got %q", resp.Content)
		}
		if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 8 || resp.Usage.Model != "test/model" {
			t.Errorf("Unexpected usage %+v", resp.Usage)
		}
		if got.Model != "test/model" || got.MaxTokens != 1024 {
			t.Errorf("Unexpected request %+v", got)
		}
		if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "sys" ||
			got.Messages[1].Role != "user" || got.Messages[1].Content != "usr" {
			t.Errorf("Unexpected messages %+v", got.Messages)
		}
	})

	t.Run("Non200SuccessStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
		}))
		defer server.Close()

		resp, err := newTestClient(server.URL, time.Second).GenerateContent(context.Background(), Prompt{})
		if err != nil {
			t.Fatalf("Expected any 2xx to succeed, got %v", err)
		}
		if resp.Content != "ok" {
			t.Errorf("Unexpected content %q", resp.Content)
		}
	})

	t.Run("UpstreamError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("rate limited"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, time.Second).GenerateContent(context.Background(), Prompt{})
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("Expected UpstreamError, got %v", err)
		}
		if upstream.Status != http.StatusTooManyRequests || upstream.Body != "rate limited" {
			t.Errorf("Unexpected upstream error %+v", upstream)
		}
		if !upstream.Retryable() {
			t.Error("Expected 429 to be retryable")
		}
		if err.Error() != "OpenRouter API error (429): rate limited" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("MalformedEnvelope", func(t *testing.T) {
		bodies := map[string]string{
			"no choices":      `{"choices":[]}`,
			"missing message": `{"choices":[{}]}`,
			"missing content": `{"choices":[{"message":{}}]}`,
			"not json":        `<html>oops</html>`,
		}
		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(body))
				}))
				defer server.Close()

				_, err := newTestClient(server.URL, time.Second).GenerateContent(context.Background(), Prompt{})
				if !errors.Is(err, ErrMalformedEnvelope) {
					t.Errorf("Expected ErrMalformedEnvelope, got %v", err)
				}
			})
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		start := time.Now()
		_, err := newTestClient(server.URL, 50*time.Millisecond).GenerateContent(context.Background(), Prompt{})
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("Expected ErrTimeout, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("Call took %s, budget was not enforced", elapsed)
		}
	})

	t.Run("TransportFailureIsNotTimeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestClient(url, time.Second).GenerateContent(context.Background(), Prompt{})
		if err == nil || errors.Is(err, ErrTimeout) {
			t.Errorf("Expected a non-timeout transport error, got %v", err)
		}
	})
}
