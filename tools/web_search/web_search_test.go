package websearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/deepresearch/tools/web_search/models"
)

type failingSearcher struct{}

func (failingSearcher) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	return nil, errors.New("search backend unavailable")
}

func TestDiscoverWrapsToolExecution(t *testing.T) {
	t.Parallel()
	s := toolSearcher{inner: failingSearcher{}}
	_, err := s.Discover(context.Background(), "q", 5)
	if !errors.Is(err, ErrToolExecution) {
		t.Fatalf("expected ErrToolExecution, got %v", err)
	}
}

func TestNewWebSearcher(t *testing.T) {
	t.Parallel()
	for _, p := range []Provider{TavilyProvider, SerperProvider, BraveProvider} {
		if _, err := NewWebSearcher(p, "key", time.Second); err != nil {
			t.Fatalf("NewWebSearcher(%s): %v", p, err)
		}
	}
	if _, err := NewWebSearcher("bing", "key", time.Second); err != ErrUnsupportedProvider {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}
