package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Boiling point</title>
  <meta name="description" content="Reference on the boiling point of water.">
</head>
<body>
  <article>
    <h1>Boiling point of water</h1>
    <p>Water boils at 100°C at sea level under standard atmospheric pressure.
    The boiling point decreases as altitude increases because atmospheric
    pressure drops. This is why cooking times change in the mountains, and why
    pressure cookers exist: raising the pressure raises the boiling point.</p>
    <p>At the summit of Mount Everest water boils at roughly 70°C, which is
    too cool to properly brew tea according to some particularly dedicated
    mountaineers who have documented their attempts over the years.</p>
  </article>
</body>
</html>`

func newFetcher(timeout time.Duration, maxChars int) *Fetcher {
	return NewFetcher("test-agent/1.0", timeout, maxChars)
}

func TestExecExtractsContent(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent/1.0" {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	page, err := newFetcher(5*time.Second, 20000).Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !page.Success {
		t.Fatalf("expected success, got %+v", page)
	}
	if page.Title != "Boiling point" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if page.Description == "" {
		t.Fatalf("expected meta description to be extracted")
	}
	if !strings.Contains(page.Text, "100°C") {
		t.Fatalf("expected extracted text to contain article content, got %q", page.Text)
	}
	if page.Status != 200 {
		t.Fatalf("unexpected status %d", page.Status)
	}
}

func TestExecDegradesGracefully(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusGone)
			},
		},
		{
			name: "non-html content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				_, _ = w.Write([]byte("%PDF-1.4"))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			page, err := newFetcher(5*time.Second, 20000).Exec(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("degraded fetch must not error, got %v", err)
			}
			if page.Success {
				t.Fatalf("expected success=false, got %+v", page)
			}
			if page.Text != "" {
				t.Fatalf("failed page must carry no text, got %q", page.Text)
			}
		})
	}
}

func TestExecUnreachableHost(t *testing.T) {
	t.Parallel()
	page, err := newFetcher(500*time.Millisecond, 20000).Exec(context.Background(), "http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("network failure must not error, got %v", err)
	}
	if page.Success {
		t.Fatalf("expected success=false for unreachable host")
	}
	if page.Status != 599 {
		t.Fatalf("expected synthetic 599 status, got %d", page.Status)
	}
}

func TestExecTruncatesToMaxChars(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	page, err := newFetcher(5*time.Second, 50).Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !page.Success {
		t.Fatalf("expected success")
	}
	if len(page.Text) > 50 {
		t.Fatalf("expected text truncated to 50 chars, got %d", len(page.Text))
	}
}

func TestExecTruncationPreservesRunes(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		// two-byte runes, so an odd byte limit lands mid-rune
		body := "<html><head><title>t</title></head><body><article><p>" +
			strings.Repeat("é", 200) + "</p></article></body></html>"
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	page, err := newFetcher(5*time.Second, 51).Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !page.Success {
		t.Fatalf("expected success, got %+v", page)
	}
	if len(page.Text) > 51 {
		t.Fatalf("expected truncation to 51 bytes, got %d", len(page.Text))
	}
	if !utf8.ValidString(page.Text) {
		t.Fatalf("truncation split a rune: %q", page.Text)
	}
}
