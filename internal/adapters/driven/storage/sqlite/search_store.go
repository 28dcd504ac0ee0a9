package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// searchIndex implements driven.SearchIndex over the search_index table.
type searchIndex struct {
	store *Store
}

var _ driven.SearchIndex = (*searchIndex)(nil)

// Index adds or updates a document's indexed representation.
func (s *searchIndex) Index(ctx context.Context, entry domain.IndexEntry) error {
	tagsJSON, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO search_index (document_id, title, content, tags, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`, entry.DocumentID, entry.Title, entry.Content, string(tagsJSON), entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("indexing document: %w", err)
	}
	return nil
}

// Delete removes a document from the index. Deleting an unindexed
// document is not an error.
func (s *searchIndex) Delete(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM search_index WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting index entry: %w", err)
	}
	return nil
}

// Search scores indexed entries by term occurrence. Title matches
// weigh double. Candidate rows are narrowed with LIKE before scoring
// in memory.
func (s *searchIndex) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*2)
	for _, term := range terms {
		clauses = append(clauses, `(lower(si.title) LIKE ? ESCAPE '\' OR lower(si.content) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(term) + "%"
		args = append(args, pattern, pattern)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT si.document_id, si.title, si.content, d.created_at
		FROM search_index si
		JOIN documents d ON d.id = si.document_id
		WHERE `+strings.Join(clauses, " OR "), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id, title, content string
		var createdAt time.Time
		if err := rows.Scan(&id, &title, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}

		score := scoreEntry(title, content, terms)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			DocumentID: id,
			Title:      title,
			Score:      score,
			Source:     "index",
			CreatedAt:  createdAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index entries: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// likeEscaper neutralises LIKE metacharacters so a term containing
// % or _ matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// scoreEntry counts term occurrences, weighting title hits double.
func scoreEntry(title, content string, terms []string) float64 {
	lowerTitle := strings.ToLower(title)
	lowerContent := strings.ToLower(content)

	var score float64
	for _, term := range terms {
		score += float64(strings.Count(lowerTitle, term)) * 2
		score += float64(strings.Count(lowerContent, term))
	}
	return score
}
