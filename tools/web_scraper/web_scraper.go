package webscraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/deepresearch/tools/web_scraper/chromedp"
	"github.com/mohammad-safakhou/deepresearch/tools/web_scraper/httpfetch"
	"github.com/mohammad-safakhou/deepresearch/tools/web_scraper/models"
)

const (
	DefaultTimeout  = 30 * time.Second
	MaxCharsDefault = 20000
)

// WebScraper fetches one URL and extracts readable main-text content.
type WebScraper interface {
	Exec(ctx context.Context, url string) (models.Page, error)
}

type ScraperType string

const (
	HTTPScraperType     ScraperType = "http"
	ChromedpScraperType ScraperType = "chromedp"
)

var ErrUnsupportedScraper = &Error{"unsupported scraper type"}

// ErrToolExecution marks an unexpected scraper failure. Ordinary fetch
// problems degrade to Page{Success: false} without an error; this sentinel
// only tags the rare error-returning paths.
var ErrToolExecution = errors.New("tool execution error")

// NewWebScraper builds a scraper of the given type. userAgent is sent on
// every fetch; maxChars caps extracted text.
func NewWebScraper(scraperType ScraperType, userAgent string, timeout time.Duration, maxChars int) (WebScraper, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	var inner WebScraper
	switch scraperType {
	case HTTPScraperType:
		inner = httpfetch.NewFetcher(userAgent, timeout, maxChars)
	case ChromedpScraperType:
		inner = &chromedp.Fetch{UserAgent: userAgent, Timeout: timeout, MaxChars: maxChars}
	default:
		return nil, ErrUnsupportedScraper
	}
	return toolScraper{inner: inner}, nil
}

// toolScraper tags scraper failures with ErrToolExecution.
type toolScraper struct {
	inner WebScraper
}

func (t toolScraper) Exec(ctx context.Context, url string) (models.Page, error) {
	page, err := t.inner.Exec(ctx, url)
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: %v", ErrToolExecution, err)
	}
	return page, nil
}
