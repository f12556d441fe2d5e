package pipeline

import (
	"time"

	"github.com/mohammad-safakhou/deepresearch/internal/agent"
	searchmodels "github.com/mohammad-safakhou/deepresearch/tools/web_search/models"
)

// Request is one research question submitted to the pipeline. NumQueries
// overrides the configured default when positive.
type Request struct {
	Question   string `json:"question"`
	NumQueries int    `json:"num_queries,omitempty"`
}

// ScrapeRecord reports whether one selected URL yielded usable content.
type ScrapeRecord struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
}

// Report is the terminal artifact of one research run: the synthesized
// answer plus the intermediate material it was built from.
type Report struct {
	ID             string                `json:"id"`
	Question       string                `json:"question"`
	Queries        []string              `json:"queries"`
	Results        []searchmodels.Result `json:"results"`
	Scraped        []ScrapeRecord        `json:"scraped"`
	Answer         agent.Answer          `json:"answer"`
	CreatedAt      time.Time             `json:"created_at"`
	ProcessingTime time.Duration         `json:"processing_time"`
}
