package driven

import "context"

// PageContent is the normalized result of scraping one web page.
type PageContent struct {
	URL         string
	Title       string
	Description string

	// Content is the extracted article text.
	Content string

	// Metadata carries additional scalar values discovered on the
	// page (author, published time, and similar).
	Metadata map[string]any
}

// Scraper fetches a web page and extracts its readable content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*PageContent, error)
}
