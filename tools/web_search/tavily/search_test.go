package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscover(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tvly-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "boiling point water" || req.MaxResults != 5 {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Boiling point", "url": "https://example.com/bp", "content": "100°C", "score": 0.9},
				{"title": "Water", "url": "https://example.com/water", "content": "H2O", "score": 0.5},
			},
		})
	}))
	defer srv.Close()

	s := Search{ApiKey: "tvly-test", Endpoint: srv.URL, Client: srv.Client()}
	results, err := s.Discover(context.Background(), "boiling point water", 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.Title != "Boiling point" || first.URL != "https://example.com/bp" || first.Score != 0.9 {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Snippet != "100°C" {
		t.Fatalf("content should map to snippet, got %q", first.Snippet)
	}
}

func TestDiscoverTruncatesToK(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "a", "url": "https://a.example", "score": 0.9},
				{"title": "b", "url": "https://b.example", "score": 0.8},
				{"title": "c", "url": "https://c.example", "score": 0.7},
			},
		})
	}))
	defer srv.Close()

	s := Search{ApiKey: "k", Endpoint: srv.URL, Client: srv.Client()}
	results, err := s.Discover(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected k=2 results, got %d", len(results))
	}
}

func TestDiscoverAPIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := Search{ApiKey: "bad", Endpoint: srv.URL, Client: srv.Client()}
	if _, err := s.Discover(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}
