// Package github fetches repository documentation through the GitHub
// API for ingestion into the knowledge base.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.RepositoryConnector = (*Connector)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// requestsPerSecond throttles API calls well below GitHub's
	// secondary rate limits.
	requestsPerSecond = 5

	// maxFileSize skips oversized blobs; docs larger than this are
	// almost always generated artefacts.
	maxFileSize = 1 << 20
)

// Connector fetches markdown documentation from GitHub repositories.
type Connector struct {
	gh      *gh.Client
	limiter *rate.Limiter
}

// NewConnector creates a GitHub connector. An empty token uses
// unauthenticated access, which is enough for public repositories.
func NewConnector(ctx context.Context, token string) *Connector {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = DefaultTimeout

	return &Connector{
		gh:      gh.NewClient(httpClient),
		limiter: rate.NewLimiter(requestsPerSecond, 1),
	}
}

// NewConnectorWithClient creates a connector around an existing
// go-github client. Used by tests.
func NewConnectorWithClient(client *gh.Client) *Connector {
	return &Connector{
		gh:      client,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// FetchDocs returns the repository's markdown files from its default
// branch.
func (c *Connector) FetchDocs(ctx context.Context, owner, repo string) ([]driven.RepositoryFile, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: owner and repo are required", domain.ErrInvalidInput)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	repository, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, wrapError(err, "get repo")
	}
	branch := repository.GetDefaultBranch()
	logger.Debug("fetching %s/%s docs from branch %s", owner, repo, branch)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, wrapError(err, "get tree")
	}

	var files []driven.RepositoryFile
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" || !isMarkdown(entry.GetPath()) {
			continue
		}
		if entry.GetSize() > maxFileSize {
			logger.Debug("skipping %s: %d bytes", entry.GetPath(), entry.GetSize())
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		content, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, entry.GetPath(),
			&gh.RepositoryContentGetOptions{Ref: branch})
		if err != nil {
			return nil, wrapError(err, "get contents "+entry.GetPath())
		}
		if content == nil {
			continue
		}

		text, err := content.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.GetPath(), err)
		}
		files = append(files, driven.RepositoryFile{
			Path:    entry.GetPath(),
			Content: text,
		})
	}

	logger.Debug("fetched %d markdown files from %s/%s", len(files), owner, repo)
	return files, nil
}

func isMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".mdx", ".markdown":
		return true
	}
	return false
}

// wrapError classifies go-github errors for the retry policy.
func wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return domain.MarkTransient(fmt.Errorf("%s: rate limited until %s",
			operation, rateLimitErr.Rate.Reset.Time.Format(time.RFC3339)))
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode >= 500 {
		return domain.MarkTransient(fmt.Errorf("%s: %w", operation, err))
	}

	return fmt.Errorf("%s: %w", operation, err)
}
