// Package memory provides in-memory implementations of the driven
// storage ports. Used in tests and wherever persistence is not needed.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// DocumentStore is an in-memory driven.DocumentStore. Snapshot and
// overwrite happen under one lock, mirroring the transactional
// guarantee of the SQLite adapter.
type DocumentStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	versions map[string][]domain.DocumentVersion
}

var _ driven.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore returns an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:     make(map[string]domain.Document),
		versions: make(map[string][]domain.DocumentVersion),
	}
}

// Put inserts or overwrites the document, snapshotting prior state.
func (s *DocumentStore) Put(ctx context.Context, doc *domain.Document, changeSummary, changedBy string) (*driven.PutOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := &driven.PutOutcome{Created: true}
	if prev, ok := s.docs[doc.ID]; ok {
		outcome.Created = false
		// Numbers must keep increasing after pruning, so derive the
		// next one from the surviving snapshots, not the slice length.
		next := 1
		for _, v := range s.versions[doc.ID] {
			if v.VersionNumber >= next {
				next = v.VersionNumber + 1
			}
		}
		s.versions[doc.ID] = append(s.versions[doc.ID], domain.DocumentVersion{
			ID:            uuid.New().String(),
			DocumentID:    prev.ID,
			VersionNumber: next,
			Content:       prev.Content,
			ContentHash:   prev.ContentHash,
			Metadata:      prev.Metadata.Clone(),
			ChangeSummary: changeSummary,
			ChangedBy:     changedBy,
			CreatedAt:     time.Now(),
		})
		outcome.SnapshotVersion = next
		doc.CreatedAt = prev.CreatedAt
	}

	s.docs[doc.ID] = *doc
	return outcome, nil
}

// Get retrieves a document by id.
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// List returns document summaries, most recently created first.
func (s *DocumentStore) List(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.DocumentSummary, 0, len(s.docs))
	for _, doc := range s.docs {
		summaries = append(summaries, domain.DocumentSummary{
			ID:            doc.ID,
			Title:         doc.Title(),
			ContentHash:   doc.ContentHash,
			ContentLength: len(doc.Content),
			CreatedAt:     doc.CreatedAt,
			UpdatedAt:     doc.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// All returns every document.
func (s *DocumentStore) All(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Count returns the number of documents.
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// ListVersions returns version snapshots, newest first.
func (s *DocumentStore) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]domain.DocumentVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.versions[documentID]
	out := make([]domain.DocumentVersion, len(all))
	copy(out, all)
	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber > out[j].VersionNumber
	})
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetVersion retrieves one version snapshot.
func (s *DocumentStore) GetVersion(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.versions[documentID] {
		if v.VersionNumber == versionNumber {
			out := v
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// PruneVersions deletes the oldest versions beyond keep.
func (s *DocumentStore) PruneVersions(ctx context.Context, documentID string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	all := s.versions[documentID]
	if len(all) <= keep {
		return 0, nil
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].VersionNumber < all[j].VersionNumber
	})
	deleted := len(all) - keep
	s.versions[documentID] = all[deleted:]
	return deleted, nil
}
