package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
	"github.com/chronicle-labs/docvault/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// defaultSearchLimit is used when the caller passes no limit.
const defaultSearchLimit = 20

// SearchService ranks documents against a query. The indexed path is
// preferred; when it errors or yields nothing, a keyword-containment
// scan over the live document table takes over. The index is an
// accelerator, not a source of truth.
type SearchService struct {
	index    driven.SearchIndex
	docStore driven.DocumentStore
}

// NewSearchService creates a new search service. The index is optional
// (can be nil); without it every query uses the fallback scan.
func NewSearchService(index driven.SearchIndex, docStore driven.DocumentStore) *SearchService {
	return &SearchService{
		index:    index,
		docStore: docStore,
	}
}

// Search returns up to limit ranked hits.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if s.index != nil {
		hits, err := s.index.Search(ctx, query, limit)
		if err != nil {
			logger.Warn("index search failed, falling back to scan: %v", err)
		} else if len(hits) > 0 {
			logger.Debug("Index path: %d hits", len(hits))
			return hits, nil
		} else {
			logger.Debug("Index path empty, falling back to scan")
		}
	}

	return s.fallbackScan(ctx, query, limit)
}

// fallbackScan scores live documents by raw term-occurrence count.
// Ties break toward the most recently created document.
func (s *SearchService) fallbackScan(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	docs, err := s.docStore.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback scan: %w", err)
	}

	terms := strings.Fields(strings.ToLower(query))
	results := make([]domain.SearchResult, 0)

	for i := range docs {
		doc := &docs[i]
		score := scoreDocument(doc.Title(), doc.Content, terms)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			DocumentID: doc.ID,
			Title:      doc.Title(),
			Score:      score,
			Source:     "scan",
			CreatedAt:  doc.CreatedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	logger.Debug("Scan path: %d hits", len(results))
	return results, nil
}

// scoreDocument counts term occurrences across title and content.
// Title matches weigh double.
func scoreDocument(title, content string, terms []string) float64 {
	titleLower := strings.ToLower(title)
	contentLower := strings.ToLower(content)

	var score float64
	for _, term := range terms {
		score += 2 * float64(strings.Count(titleLower, term))
		score += float64(strings.Count(contentLower, term))
	}
	return score
}
