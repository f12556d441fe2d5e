package httpfetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/deepresearch/internal/helpers"
	"github.com/mohammad-safakhou/deepresearch/tools/web_scraper/models"
)

const maxBodyBytes = 4 << 20 // refuse to buffer more than 4MB of HTML

// Fetcher scrapes pages with a plain HTTP GET plus readability extraction.
// Every failure mode (network error, non-HTML content, empty extraction)
// resolves to Page{Success: false} rather than an error.
type Fetcher struct {
	userAgent string
	maxChars  int
	client    *http.Client
}

func NewFetcher(userAgent string, timeout time.Duration, maxChars int) *Fetcher {
	return &Fetcher{
		userAgent: userAgent,
		maxChars:  maxChars,
		client:    &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) Exec(ctx context.Context, rawURL string) (models.Page, error) {
	t0 := time.Now()
	page := models.Page{URL: rawURL, Domain: domainOf(rawURL)}

	if strings.TrimSpace(rawURL) == "" {
		return page, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return page, nil
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		page.Status = 599
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}
	defer resp.Body.Close()
	page.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}
	html := string(body)

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			page.Description = strings.TrimSpace(desc)
		}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL(rawURL))
	if err != nil {
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}
	text = helpers.TruncateChars(text, f.maxChars)
	if page.Title == "" {
		page.Title = strings.TrimSpace(article.Title)
	}

	page.Text = text
	page.Success = true
	page.FetchMS = int(time.Since(t0) / time.Millisecond)
	return page, nil
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func parsedURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
