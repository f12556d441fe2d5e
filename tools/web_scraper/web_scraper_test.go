package webscraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/deepresearch/tools/web_scraper/models"
)

type failingScraper struct{}

func (failingScraper) Exec(ctx context.Context, url string) (models.Page, error) {
	return models.Page{}, errors.New("browser crashed")
}

func TestExecWrapsToolExecution(t *testing.T) {
	t.Parallel()
	s := toolScraper{inner: failingScraper{}}
	_, err := s.Exec(context.Background(), "https://example.com")
	if !errors.Is(err, ErrToolExecution) {
		t.Fatalf("expected ErrToolExecution, got %v", err)
	}
}

func TestNewWebScraper(t *testing.T) {
	t.Parallel()
	for _, typ := range []ScraperType{HTTPScraperType, ChromedpScraperType} {
		if _, err := NewWebScraper(typ, "ua", time.Second, 1000); err != nil {
			t.Fatalf("NewWebScraper(%s): %v", typ, err)
		}
	}
	if _, err := NewWebScraper("ftp", "ua", time.Second, 1000); err != ErrUnsupportedScraper {
		t.Fatalf("expected ErrUnsupportedScraper, got %v", err)
	}
}
