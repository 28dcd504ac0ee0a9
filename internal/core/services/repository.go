package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
	"github.com/chronicle-labs/docvault/internal/logger"
)

// Ensure RepositoryService implements the interface.
var _ driving.RepositoryService = (*RepositoryService)(nil)

// RepositoryService is the content-addressed document repository.
// It owns the write path: hash computation, the atomic
// snapshot-then-overwrite, and the best-effort side effects that
// follow a successful write.
type RepositoryService struct {
	docStore  driven.DocumentStore
	index     driven.SearchIndex
	extractor driving.RelationshipExtractor
	publisher driven.EventPublisher
}

// NewRepositoryService creates a new repository service. The index,
// extractor and publisher are optional (can be nil); without them the
// corresponding side effects are skipped.
func NewRepositoryService(
	docStore driven.DocumentStore,
	index driven.SearchIndex,
	extractor driving.RelationshipExtractor,
	publisher driven.EventPublisher,
) *RepositoryService {
	return &RepositoryService{
		docStore:  docStore,
		index:     index,
		extractor: extractor,
		publisher: publisher,
	}
}

// Put creates or overwrites a document. The content hash is always
// recomputed here; a caller-supplied hash is never trusted. On
// overwrite, the prior row is snapshotted as the next version inside
// the same transaction as the overwrite.
func (s *RepositoryService) Put(ctx context.Context, in driving.PutInput) (*driving.PutResult, error) {
	logger.Section("Document Write")

	if in.Content == "" {
		return nil, fmt.Errorf("%w: content is empty", domain.ErrInvalidInput)
	}
	if len(in.ID) > domain.MaxDocumentIDLength {
		return nil, fmt.Errorf("%w: id exceeds %d characters", domain.ErrInvalidInput, domain.MaxDocumentIDLength)
	}

	id := in.ID
	if id == "" {
		id = domain.DeriveDocumentID(in.Content)
		logger.Debug("Derived id %s from content", id)
	}

	metadata := in.Metadata.Clone()
	metadata[domain.MetadataContentLength] = len(in.Content)
	if _, err := json.Marshal(metadata); err != nil {
		return nil, fmt.Errorf("%w: metadata is not serialisable: %v", domain.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          id,
		Content:     in.Content,
		ContentHash: domain.HashContent(in.Content),
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	outcome, err := s.docStore.Put(ctx, doc, in.ChangeSummary, in.ChangedBy)
	if err != nil {
		return nil, fmt.Errorf("put document %s: %w", id, err)
	}
	logger.Debug("Stored %s (created=%t, snapshot=%d)", id, outcome.Created, outcome.SnapshotVersion)

	s.afterWrite(ctx, doc, outcome.Created)

	return &driving.PutResult{
		ID:              id,
		ContentHash:     doc.ContentHash,
		Created:         outcome.Created,
		SnapshotVersion: outcome.SnapshotVersion,
	}, nil
}

// afterWrite runs the best-effort side effects of a committed write.
// Failures are reported through the logger and never surface as the
// failure of the write itself.
func (s *RepositoryService) afterWrite(ctx context.Context, doc *domain.Document, created bool) {
	if s.extractor != nil {
		if n, err := s.extractor.ExtractAndStore(ctx, doc.ID, doc.Content, doc.Metadata); err != nil {
			logger.Warn("relationship extraction failed for %s: %v", doc.ID, err)
		} else if n > 0 {
			logger.Debug("Extracted %d relationships for %s", n, doc.ID)
		}
	}

	if s.index != nil {
		entry := domain.IndexEntry{
			DocumentID: doc.ID,
			Title:      doc.Title(),
			Content:    doc.Content,
			UpdatedAt:  doc.UpdatedAt,
		}
		if tags, ok := doc.Metadata["tags"].([]string); ok {
			entry.Tags = tags
		}
		if err := s.index.Index(ctx, entry); err != nil {
			logger.Warn("search index update failed for %s: %v", doc.ID, err)
		}
	}

	if s.publisher != nil {
		eventType := domain.EventDocumentUpdated
		if created {
			eventType = domain.EventDocumentCreated
		}
		event := domain.DomainEvent{
			Type:       eventType,
			DocumentID: doc.ID,
			Detail:     map[string]any{"content_hash": doc.ContentHash},
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			logger.Warn("event publication failed for %s: %v", doc.ID, err)
		}
	}
}

// Get retrieves a document by id.
func (s *RepositoryService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is empty", domain.ErrInvalidInput)
	}
	return s.docStore.Get(ctx, id)
}

// List returns document summaries, most recently created first.
func (s *RepositoryService) List(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.docStore.List(ctx, limit)
}
