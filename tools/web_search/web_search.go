package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/deepresearch/tools/web_search/brave"
	"github.com/mohammad-safakhou/deepresearch/tools/web_search/models"
	"github.com/mohammad-safakhou/deepresearch/tools/web_search/serper"
	"github.com/mohammad-safakhou/deepresearch/tools/web_search/tavily"
)

// WebSearcher executes one query against a third-party search API and returns
// up to k ranked results.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = &Error{"unsupported provider"}

// ErrToolExecution marks a failed outbound search call. Callers absorb these
// per query instead of aborting the whole run.
var ErrToolExecution = errors.New("tool execution error")

// NewWebSearcher builds a search client for the given provider. The timeout
// bounds each outbound call.
func NewWebSearcher(provider Provider, apiKey string, timeout time.Duration) (WebSearcher, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpc := &http.Client{Timeout: timeout}
	var inner WebSearcher
	switch provider {
	case TavilyProvider:
		inner = tavily.Search{ApiKey: apiKey, Client: httpc}
	case SerperProvider:
		inner = serper.Search{ApiKey: apiKey, Client: httpc}
	case BraveProvider:
		inner = brave.Search{ApiKey: apiKey, Client: httpc}
	default:
		return nil, ErrUnsupportedProvider
	}
	return toolSearcher{inner: inner}, nil
}

// toolSearcher tags provider failures with ErrToolExecution so callers can
// classify them without knowing which provider is behind the interface.
type toolSearcher struct {
	inner WebSearcher
}

func (t toolSearcher) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	results, err := t.inner.Discover(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolExecution, err)
	}
	return results, nil
}
