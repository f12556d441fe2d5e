package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateWithTokens(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model %q", req.Model)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello"}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		})
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", 0.2, 100, 5*time.Second)
	out, in, outTok, err := c.GenerateWithTokens(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("GenerateWithTokens: %v", err)
	}
	if out != "hello" {
		t.Fatalf("got %q, want hello", out)
	}
	if in != 12 || outTok != 3 {
		t.Fatalf("unexpected usage %d/%d", in, outTok)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", 0, 0, 5*time.Second)
	if _, err := c.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected error on non-200 status")
	}

	missing := NewClient("", srv.URL, "gpt-4o-mini", 0, 0, 5*time.Second)
	if _, err := missing.Generate(context.Background(), nil); err == nil {
		t.Fatalf("expected error with no api key")
	}
}
