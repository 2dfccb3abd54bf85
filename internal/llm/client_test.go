package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestHTTPClientGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Stay on it."}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key", "test-model", zap.NewNop())
	out, err := c.Generate(context.Background(), "briefing please")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "Stay on it." {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "test-model" || len(got.Messages) != 1 || got.Messages[0].Content != "briefing please" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.MaxTokens != 0 {
		t.Fatalf("expected no max_tokens on generate, got %d", got.MaxTokens)
	}
}

func TestHTTPClientProbe(t *testing.T) {
	t.Run("limits probe to one token", func(t *testing.T) {
		var got chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi"}}]}`))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "key", "m", nil)
		if err := c.Probe(context.Background()); err != nil {
			t.Fatalf("probe: %v", err)
		}
		if got.MaxTokens != 1 {
			t.Fatalf("expected max_tokens=1, got %d", got.MaxTokens)
		}
	})

	t.Run("missing key is not configured", func(t *testing.T) {
		c := NewHTTPClient("", "", "m", nil)
		if err := c.Probe(context.Background()); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
	})

	t.Run("http error fails probe", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "key", "m", nil)
		if err := c.Probe(context.Background()); err == nil {
			t.Fatalf("expected probe error on 429")
		}
	})
}

func TestHTTPClientGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", nil)
	if _, err := c.Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
