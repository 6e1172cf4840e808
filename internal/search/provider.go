// Package search implements the knowledge-source clients used by the
// prior-art checking agent: patent search, academic search, and web search.
// Every provider emits the same Result shape; provider-side failures are
// returned as errors and captured upstream as string sentinels, never raised
// past the capability boundary.
package search

import "context"

// Canonical source names. Each provider owns exactly one key in the
// session's search results.
const (
	SourcePatents  = "patents"
	SourceAcademic = "academic"
	SourceWeb      = "web"
)

// Result is the uniform shape emitted by every search provider. The embedding
// is filled in by the caller after retrieval; a nil embedding means the result
// cannot take part in similarity scoring.
type Result struct {
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	Link      string    `json:"link"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Provider is a single knowledge source.
type Provider interface {
	Source() string
	Search(ctx context.Context, query string) ([]Result, error)
}

const (
	// DefaultLimit is how many results a provider returns per query.
	DefaultLimit = 5
	// MaxQueryLength bounds the query text sent to any provider.
	MaxQueryLength = 500
)

func truncateQuery(query string) string {
	if len(query) > MaxQueryLength {
		return query[:MaxQueryLength]
	}
	return query
}
