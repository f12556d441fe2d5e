package models

// Page is the outcome of scraping one URL. Success=false carries no text but
// is not an error: web content is unreliable and a failed page must degrade
// the run, not abort it.
type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Domain      string `json:"domain"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text,omitempty"`
	Success     bool   `json:"success"`
	Status      int    `json:"status"`
	FetchMS     int    `json:"fetch_ms"`
}
