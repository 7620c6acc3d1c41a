package driven

import "context"

// RepositoryFile is one documentation file fetched from a repository.
type RepositoryFile struct {
	// Path is the file path within the repository.
	Path string

	// Content is the decoded file text.
	Content string
}

// RepositoryConnector fetches documentation files from a code hosting
// service for ingestion.
type RepositoryConnector interface {
	// FetchDocs returns the repository's markdown documentation files.
	FetchDocs(ctx context.Context, owner, repo string) ([]RepositoryFile, error)
}
