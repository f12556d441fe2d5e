package chromedp

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/deepresearch/internal/helpers"
	"github.com/mohammad-safakhou/deepresearch/tools/web_scraper/models"
)

// Fetch scrapes pages through a headless browser, for sites that render
// their content with JavaScript. Same degradation contract as the HTTP
// fetcher: failures resolve to Page{Success: false}, never an error.
type Fetch struct {
	UserAgent string
	Timeout   time.Duration
	MaxChars  int
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Page, error) {
	t0 := time.Now()
	page := models.Page{URL: rawURL, Domain: domainOf(rawURL)}

	if strings.TrimSpace(rawURL) == "" {
		return page, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	html, err := fetchHTML(ctx, rawURL, f.UserAgent)
	if err != nil {
		page.Status = 599
		page.FetchMS = int(time.Since(t0) / time.Millisecond)
		return page, nil
	}
	page.Status = 200

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
	text = helpers.TruncateChars(text, f.MaxChars)

	page.Title = strings.TrimSpace(article.Title)
	page.Description = strings.TrimSpace(article.Excerpt)
	page.Text = text
	page.Success = true
	page.FetchMS = int(time.Since(t0) / time.Millisecond)
	return page, nil
}

func fetchHTML(ctx context.Context, rawURL, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
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
