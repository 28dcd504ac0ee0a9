package driving

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// SearchService provides ranked document search with a keyword-scan
// fallback when the index path is unavailable or empty.
type SearchService interface {
	// Search returns up to limit hits, best score first, ties broken
	// by most recent creation time.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}
