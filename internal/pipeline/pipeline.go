package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/deepresearch/config"
	"github.com/mohammad-safakhou/deepresearch/internal/agent"
	"github.com/mohammad-safakhou/deepresearch/internal/helpers"
	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
	"github.com/mohammad-safakhou/deepresearch/provider"
	websearch "github.com/mohammad-safakhou/deepresearch/tools/web_search"
	searchmodels "github.com/mohammad-safakhou/deepresearch/tools/web_search/models"
	webscraper "github.com/mohammad-safakhou/deepresearch/tools/web_scraper"
)

// Runner executes one research run end to end.
type Runner interface {
	Research(ctx context.Context, req Request) (Report, error)
}

type queryGenerator interface {
	GenerateQueries(ctx context.Context, question string, numQueries int) ([]string, error)
}

type answerer interface {
	Answer(ctx context.Context, question string, docs []agent.Document) (agent.Answer, error)
}

// Pipeline wires the query agent, search tool, scrape tool and QA agent into
// the query -> search -> scrape -> answer sequence. Tool failures degrade the
// run; agent failures abort it.
type Pipeline struct {
	cfg        config.PipelineConfig
	maxResults int

	queryAgent queryGenerator
	qaAgent    answerer
	searcher   websearch.WebSearcher
	scraper    webscraper.WebScraper
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// New assembles a pipeline from already-built components.
func New(cfg config.PipelineConfig, maxResults int, qa queryGenerator, ans answerer, searcher websearch.WebSearcher, scraper webscraper.WebScraper, tele *telemetry.Telemetry) *Pipeline {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Pipeline{
		cfg:        cfg,
		maxResults: maxResults,
		queryAgent: qa,
		qaAgent:    ans,
		searcher:   searcher,
		scraper:    scraper,
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// FromConfig builds the full pipeline from configuration: the LLM provider,
// the configured search and scrape tools, and both agents.
func FromConfig(cfg *config.Config, tele *telemetry.Telemetry) (*Pipeline, error) {
	p, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("building llm provider: %w", err)
	}
	searcher, err := websearch.NewWebSearcher(websearch.Provider(cfg.Search.Provider), cfg.Search.APIKeyForProvider(), cfg.Search.Timeout)
	if err != nil {
		return nil, fmt.Errorf("building web searcher: %w", err)
	}
	scraper, err := webscraper.NewWebScraper(webscraper.ScraperType(cfg.Scraper.Type), cfg.Scraper.UserAgent, cfg.Scraper.Timeout, cfg.Scraper.MaxChars)
	if err != nil {
		return nil, fmt.Errorf("building web scraper: %w", err)
	}

	queryAgent := agent.NewQueryAgent(p, tele)
	qaAgent := agent.NewQAAgent(p, tele, cfg.Pipeline.ContextMaxChars, cfg.Pipeline.VerifyReferences)
	return New(cfg.Pipeline, cfg.Search.MaxResults, queryAgent, qaAgent, searcher, scraper, tele), nil
}

// Research runs the full sequence for one question. The returned report is
// complete even when every search or scrape failed; only query generation and
// answer synthesis failures abort the run.
func (p *Pipeline) Research(ctx context.Context, req Request) (Report, error) {
	started := time.Now()
	runID := uuid.New().String()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Report{}, fmt.Errorf("question must not be empty")
	}

	numQueries := req.NumQueries
	if numQueries <= 0 {
		numQueries = p.cfg.NumQueries
	}

	queries, err := p.queryAgent.GenerateQueries(ctx, question, numQueries)
	if err != nil {
		p.telemetry.RecordRun(time.Since(started), false)
		return Report{}, fmt.Errorf("query generation: %w", err)
	}
	p.logger.Printf("[%s] searching %d queries", runID, len(queries))

	results := p.search(ctx, runID, queries)
	selected := p.selectTop(results, p.cfg.TopResults)
	pages, scraped := p.scrape(ctx, runID, selected)

	var docs []agent.Document
	for _, page := range pages {
		docs = append(docs, agent.Document{URL: page.URL, Title: page.Title, Text: page.Text})
	}
	p.logger.Printf("[%s] scraped %d/%d pages", runID, len(docs), len(selected))

	answer, err := p.qaAgent.Answer(ctx, question, docs)
	if err != nil {
		p.telemetry.RecordRun(time.Since(started), false)
		return Report{}, fmt.Errorf("answer synthesis: %w", err)
	}

	elapsed := time.Since(started)
	p.telemetry.RecordRun(elapsed, true)
	return Report{
		ID:             runID,
		Question:       question,
		Queries:        queries,
		Results:        results,
		Scraped:        scraped,
		Answer:         answer,
		CreatedAt:      started,
		ProcessingTime: elapsed,
	}, nil
}

// search fans the queries out concurrently and aggregates results in query
// order, so the aggregate never depends on completion order. A failed query
// contributes nothing; it does not fail the run.
func (p *Pipeline) search(ctx context.Context, runID string, queries []string) []searchmodels.Result {
	perQuery := make([][]searchmodels.Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			results, err := p.searcher.Discover(gctx, q, p.maxResults)
			if err != nil {
				p.logger.Printf("[%s] search %q failed: %v", runID, q, err)
				p.telemetry.RecordToolError("web_search")
				return nil
			}
			perQuery[i] = results
			return nil
		})
	}
	g.Wait()

	seen := make(map[string]struct{})
	var merged []searchmodels.Result
	for _, results := range perQuery {
		for _, r := range results {
			key, err := helpers.CanonicalURL(r.URL)
			if err != nil {
				key = r.URL
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// selectTop returns up to n results ordered by descending score. The sort is
// stable over the query-ordered aggregate, so ties resolve deterministically.
func (p *Pipeline) selectTop(results []searchmodels.Result, n int) []searchmodels.Result {
	sorted := make([]searchmodels.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// scrape fetches the selected URLs concurrently, preserving selection order.
// Pages that fail to yield content are recorded but excluded from the QA
// context.
func (p *Pipeline) scrape(ctx context.Context, runID string, selected []searchmodels.Result) ([]scrapedPage, []ScrapeRecord) {
	outcomes := make([]scrapedPage, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, r := range selected {
		i, r := i, r
		g.Go(func() error {
			page, err := p.scraper.Exec(gctx, r.URL)
			if err != nil {
				p.logger.Printf("[%s] scrape %q failed: %v", runID, r.URL, err)
				p.telemetry.RecordToolError("web_scraper")
				outcomes[i] = scrapedPage{URL: r.URL}
				return nil
			}
			if !page.Success {
				p.telemetry.RecordToolError("web_scraper")
			}
			title := page.Title
			if title == "" {
				title = r.Title
			}
			outcomes[i] = scrapedPage{URL: r.URL, Title: title, Text: page.Text, Success: page.Success && strings.TrimSpace(page.Text) != ""}
			return nil
		})
	}
	g.Wait()

	var pages []scrapedPage
	records := make([]ScrapeRecord, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, ScrapeRecord{URL: o.URL, Success: o.Success})
		if o.Success {
			pages = append(pages, o)
		}
	}
	return pages, records
}

func (p *Pipeline) concurrency() int {
	if p.cfg.MaxConcurrency > 0 {
		return p.cfg.MaxConcurrency
	}
	return 4
}

type scrapedPage struct {
	URL     string
	Title   string
	Text    string
	Success bool
}
