package models

// Result is a single search hit, normalised across providers. Ordering by
// descending Score is the upstream API's contract and is passed through
// untouched; rank-only providers synthesise a score so downstream selection
// stays provider-agnostic.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}
