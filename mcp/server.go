// Package mcp exposes the research pipeline and its web tools over a minimal
// MCP stdio server. The master/agents connect via stdio JSON-RPC:
// "tools/list" and "tools/call".
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/deepresearch/config"
	"github.com/mohammad-safakhou/deepresearch/internal/pipeline"
	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
	websearch "github.com/mohammad-safakhou/deepresearch/tools/web_search"
	webscraper "github.com/mohammad-safakhou/deepresearch/tools/web_scraper"
)

// ---------- JSON-RPC skeleton ----------

type rpcReq struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      any                    `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
}
type rpcResp struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      any                    `json:"id"`
	Result  map[string]interface{} `json:"result,omitempty"`
	Error   *rpcError              `json:"error,omitempty"`
}
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrProtocol marks a malformed inbound request: unknown method or tool,
// missing or invalid arguments. Surfaced with JSON-RPC code -32602 and
// rejected before the pipeline is invoked.
var ErrProtocol = errors.New("protocol error")

// errParse marks input that is not valid JSON at all, surfaced as -32700.
var errParse = errors.New("parse error")

func writeResp(w io.Writer, id any, result map[string]interface{}, err error) {
	resp := rpcResp{JSONRPC: "2.0", ID: id}
	if err != nil {
		code := -32000
		switch {
		case errors.Is(err, errParse):
			code = -32700
		case errors.Is(err, ErrProtocol):
			code = -32602
		}
		resp.Error = &rpcError{Code: code, Message: err.Error()}
	} else {
		resp.Result = result
	}
	enc := json.NewEncoder(w)
	_ = enc.Encode(resp)
}

// ---------- Tool registry ----------

// ToolDesc describes a single MCP tool, including input schema.
type ToolDesc struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// MCPServer holds shared deps (the only state).
type MCPServer struct {
	Runner   pipeline.Runner
	Searcher websearch.WebSearcher
	Scraper  webscraper.WebScraper

	DefaultTimeout time.Duration
	MaxResults     int

	logger *log.Logger
	tools  []ToolDesc
}

// NewMCPServer wires dependencies from configuration once.
func NewMCPServer(cfg *config.Config) (*MCPServer, error) {
	tele := telemetry.NewTelemetry(cfg.Telemetry)
	runner, err := pipeline.FromConfig(cfg, tele)
	if err != nil {
		return nil, err
	}
	searcher, err := websearch.NewWebSearcher(websearch.Provider(cfg.Search.Provider), cfg.Search.APIKeyForProvider(), cfg.Search.Timeout)
	if err != nil {
		return nil, fmt.Errorf("searcher: %w", err)
	}
	scraper, err := webscraper.NewWebScraper(webscraper.ScraperType(cfg.Scraper.Type), cfg.Scraper.UserAgent, cfg.Scraper.Timeout, cfg.Scraper.MaxChars)
	if err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	return NewMCPServerWith(runner, searcher, scraper, cfg.General.DefaultTimeout, cfg.Search.MaxResults), nil
}

// NewMCPServerWith assembles the server from already-built components.
func NewMCPServerWith(runner pipeline.Runner, searcher websearch.WebSearcher, scraper webscraper.WebScraper, timeout time.Duration, maxResults int) *MCPServer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	srv := &MCPServer{
		Runner:         runner,
		Searcher:       searcher,
		Scraper:        scraper,
		DefaultTimeout: timeout,
		MaxResults:     maxResults,
		logger:         log.New(log.Writer(), "[MCP] ", log.LstdFlags),
	}
	srv.initTools()
	return srv
}

// initTools defines schemas and descriptions surfaced to MCP clients.
func (srv *MCPServer) initTools() {
	srv.tools = []ToolDesc{
		{
			Name:        "research",
			Description: "Run the full research pipeline: generate queries, search, scrape, and synthesize an answer with references.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question":    map[string]any{"type": "string"},
					"num_queries": map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
				},
				"required": []string{"question"},
			},
		},
		{
			Name:        "web.search",
			Description: "Search the web via the configured search provider.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"k":     map[string]any{"type": "integer", "minimum": 1, "maximum": 25},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "web.fetch",
			Description: "Fetch a URL and extract readable main-text content.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string"},
				},
				"required": []string{"url"},
			},
		},
	}
}

// callTool dispatches to handler functions.
func (srv *MCPServer) callTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "research":
		return srv.tResearch(ctx, args)
	case "web.search":
		return srv.tWebSearch(ctx, args)
	case "web.fetch":
		return srv.tWebFetch(ctx, args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", ErrProtocol, name)
	}
}

// ---------- Tool handlers ----------

// tResearch runs one full research sequence.
// Input: question (string), num_queries (int, optional).
func (srv *MCPServer) tResearch(ctx context.Context, args map[string]any) (map[string]any, error) {
	question := strings.TrimSpace(str(args["question"]))
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrProtocol)
	}
	numQueries := asInt(args["num_queries"])

	report, err := srv.Runner.Research(ctx, pipeline.Request{Question: question, NumQueries: numQueries})
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(report.Results))
	for _, r := range report.Results {
		results = append(results, map[string]any{"title": r.Title, "url": r.URL, "snippet": r.Snippet, "score": r.Score})
	}
	scraped := make([]map[string]any, 0, len(report.Scraped))
	for _, s := range report.Scraped {
		scraped = append(scraped, map[string]any{"url": s.URL, "success": s.Success})
	}
	references := make([]map[string]any, 0, len(report.Answer.References))
	for _, ref := range report.Answer.References {
		references = append(references, map[string]any{"url": ref.URL, "description": ref.Description})
	}
	return map[string]any{
		"id":       report.ID,
		"question": report.Question,
		"queries":  report.Queries,
		"results":  results,
		"scraped":  scraped,
		"answer": map[string]any{
			"text":                report.Answer.Text,
			"references":          references,
			"follow_up_questions": report.Answer.FollowUpQuestions,
		},
	}, nil
}

// tWebSearch executes one query; returns a normalized result list.
// Input: query (string), k (int, optional).
func (srv *MCPServer) tWebSearch(ctx context.Context, args map[string]any) (map[string]any, error) {
	q := strings.TrimSpace(str(args["query"]))
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrProtocol)
	}
	k := asInt(args["k"])
	if k <= 0 {
		k = srv.MaxResults
	}
	k = clampInt(k, 1, 25)

	results, err := srv.Searcher.Discover(ctx, q, k)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{"title": r.Title, "url": r.URL, "snippet": r.Snippet, "score": r.Score})
	}
	return map[string]any{"results": out}, nil
}

// tWebFetch fetches and extracts readable content for one URL. Fetch failures
// come back as success=false rather than an RPC error, mirroring the
// scraper's degradation contract.
func (srv *MCPServer) tWebFetch(ctx context.Context, args map[string]any) (map[string]any, error) {
	url := str(args["url"])
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrProtocol)
	}

	page, err := srv.Scraper.Exec(ctx, url)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"url":         page.URL,
		"title":       page.Title,
		"domain":      page.Domain,
		"description": page.Description,
		"text":        page.Text,
		"success":     page.Success,
		"status":      page.Status,
		"fetch_ms":    page.FetchMS,
	}, nil
}

// ---------- helpers ----------

func str(v any) string { s, _ := v.(string); return s }
func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case json.Number:
		i, _ := x.Int64()
		return int(i)
	default:
		return 0
	}
}
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ---------- stdio loop ----------

// Serve runs a simple stdio JSON-RPC loop for MCP.
func (srv *MCPServer) Serve(in io.Reader, out io.Writer) error {
	rd := bufio.NewReader(in)
	dec := json.NewDecoder(rd)
	for {
		var req rpcReq
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// the decoder cannot advance past malformed input; reject the
			// request and stop instead of spinning on the same bytes
			writeResp(out, nil, nil, fmt.Errorf("%w: %v", errParse, err))
			return fmt.Errorf("decode request: %w", err)
		}

		switch req.Method {
		case "tools/list":
			writeResp(out, req.ID, map[string]any{"tools": srv.tools}, nil)

		case "tools/call":
			name := ""
			args := map[string]any{}
			if v, ok := req.Params["name"].(string); ok {
				name = v
			}
			if m, ok := req.Params["arguments"].(map[string]any); ok {
				args = m
			}
			// Per-call timeout to avoid stuck handlers
			ctx, cancel := context.WithTimeout(context.Background(), srv.DefaultTimeout)
			res, err := srv.callTool(ctx, name, args)
			cancel()
			if err != nil {
				srv.logger.Printf("tools/call %s failed: %v", name, err)
			}
			writeResp(out, req.ID, res, err)

		default:
			writeResp(out, req.ID, nil, fmt.Errorf("%w: unknown method: %s", ErrProtocol, req.Method))
		}
	}
}
