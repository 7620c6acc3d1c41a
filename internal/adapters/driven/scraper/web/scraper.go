// Package web provides an HTML scraper that fetches pages over HTTP
// and extracts their readable text.
package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// Ensure Scraper implements the interface.
var _ driven.Scraper = (*Scraper)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "tessera/1.0"

	// DefaultRequestsPerSecond throttles outbound fetches so batch
	// ingestion does not hammer a single host.
	DefaultRequestsPerSecond = 2
)

// Config holds configuration for the web scraper.
type Config struct {
	// Timeout is the per-page fetch timeout (default: 30s).
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// RequestsPerSecond limits the outbound request rate (default: 2).
	RequestsPerSecond float64
}

// Scraper fetches web pages and extracts title, description and body
// text. Safe for concurrent use; all requests share one rate limiter.
type Scraper struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewScraper creates a new rate-limited web scraper.
func NewScraper(cfg Config) *Scraper {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Scraper{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		userAgent: cfg.UserAgent,
	}
}

// Scrape fetches a page and extracts its readable content.
func (s *Scraper) Scrape(ctx context.Context, url string) (*driven.PageContent, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: empty URL", domain.ErrInvalidInput)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.MarkTransient(fmt.Errorf("fetch %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, domain.MarkTransient(err)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	return extract(doc, url), nil
}

// extract pulls title, description and body text out of a parsed page.
func extract(doc *goquery.Document, url string) *driven.PageContent {
	page := &driven.PageContent{
		URL:      url,
		Metadata: map[string]any{},
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && page.Title == "" {
		page.Title = strings.TrimSpace(og)
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		page.Description = strings.TrimSpace(desc)
	} else if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		page.Description = strings.TrimSpace(og)
	}

	if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok {
		page.Metadata["author"] = strings.TrimSpace(author)
	}
	if published, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		page.Metadata["published"] = strings.TrimSpace(published)
	}

	doc.Find("script, style, nav, header, footer, aside, noscript").Remove()

	// Prefer semantic containers; fall back to the whole body.
	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	var parts []string
	root.Find("h1, h2, h3, h4, p, li, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		if text := strings.TrimSpace(root.Text()); text != "" {
			parts = append(parts, strings.Join(strings.Fields(text), " "))
		}
	}
	page.Content = strings.Join(parts, "\n\n")

	return page
}
