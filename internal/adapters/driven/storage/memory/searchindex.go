package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// SearchIndex is an in-memory driven.SearchIndex with the same
// term-occurrence scoring as the SQLite adapter.
type SearchIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry

	// Err, when set, is returned from every call. Lets tests exercise
	// the best-effort fallback paths.
	Err error
}

var _ driven.SearchIndex = (*SearchIndex)(nil)

// NewSearchIndex returns an empty in-memory index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{entries: make(map[string]domain.IndexEntry)}
}

// Index adds or updates a document's indexed representation.
func (s *SearchIndex) Index(ctx context.Context, entry domain.IndexEntry) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.DocumentID] = entry
	return nil
}

// Delete removes a document from the index.
func (s *SearchIndex) Delete(ctx context.Context, documentID string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, documentID)
	return nil
}

// Search scores entries by term occurrence, title hits weighing double.
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	var results []domain.SearchResult
	for _, entry := range s.entries {
		lowerTitle := strings.ToLower(entry.Title)
		lowerContent := strings.ToLower(entry.Content)

		var score float64
		for _, term := range terms {
			score += float64(strings.Count(lowerTitle, term)) * 2
			score += float64(strings.Count(lowerContent, term))
		}
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			DocumentID: entry.DocumentID,
			Title:      entry.Title,
			Score:      score,
			Source:     "index",
			CreatedAt:  entry.UpdatedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
