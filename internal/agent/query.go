package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
	"github.com/mohammad-safakhou/deepresearch/provider"
)

var queryOutputSchema = mustSchema(`{
	"type": "object",
	"required": ["queries"],
	"properties": {
		"queries": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		}
	}
}`)

const querySystemPrompt = `You are an expert search engine query generator with a deep understanding of which queries will maximize relevant results.

Steps:
- Analyze the given question to identify key concepts
- For each aspect, craft a search query using appropriate operators
- Ensure queries cover different angles (technical, practical, etc.)

Output instructions:
- Return exactly the requested number of queries
- Format each query like a search engine query, not a question
- Each query should be concise and use relevant keywords
- Respond ONLY with a JSON object: {"queries": ["...", "..."]}`

// QueryAgent turns a research question into optimized search engine queries
// through a single schema-validated model call.
type QueryAgent struct {
	provider  provider.Provider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewQueryAgent creates a new query generation agent.
func NewQueryAgent(p provider.Provider, tele *telemetry.Telemetry) *QueryAgent {
	return &QueryAgent{
		provider:  p,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[QUERY] ", log.LstdFlags),
	}
}

// GenerateQueries produces at least one deduplicated non-empty search query
// for the question. Schema violations surface as ErrSchemaValidation.
func (a *QueryAgent) GenerateQueries(ctx context.Context, question string, numQueries int) ([]string, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	if numQueries <= 0 {
		numQueries = 1
	}

	userPrompt := fmt.Sprintf("Generate %d search engine queries for the following question.\n\nQUESTION: %s", numQueries, question)

	var out struct {
		Queries []string `json:"queries"`
	}
	if err := runStructured(ctx, a.provider, a.telemetry, "query_agent", querySystemPrompt, userPrompt, queryOutputSchema, &out); err != nil {
		return nil, err
	}

	queries := dedupeQueries(out.Queries)
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: query_agent returned no usable queries", ErrSchemaValidation)
	}
	a.logger.Printf("generated %d queries for question (%d requested)", len(queries), numQueries)
	return queries, nil
}

// dedupeQueries trims, drops empties and removes case-insensitive duplicates
// while preserving order.
func dedupeQueries(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}
