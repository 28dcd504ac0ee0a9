package driven

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// SearchIndex maintains the parallel indexed representation of
// documents. The index is an accelerator, not a source of truth:
// maintenance failures are logged by callers and never fail a write.
type SearchIndex interface {
	// Index adds or updates a document's indexed representation.
	Index(ctx context.Context, entry domain.IndexEntry) error

	// Delete removes a document from the index.
	Delete(ctx context.Context, documentID string) error

	// Search returns ranked hits for the query.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}
