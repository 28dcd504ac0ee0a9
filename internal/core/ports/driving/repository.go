package driving

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// PutInput is a document write request.
type PutInput struct {
	// ID is optional; when empty it is derived from the content.
	ID string

	// Content is the document body. Must be non-empty.
	Content string

	// Metadata is optional caller metadata. The derived content_length
	// key is always overwritten.
	Metadata domain.Metadata

	// ChangeSummary and ChangedBy are recorded on the version snapshot
	// when this write overwrites an existing document.
	ChangeSummary string
	ChangedBy     string
}

// PutResult reports a completed document write.
type PutResult struct {
	ID          string
	ContentHash string

	// Created is true when the write inserted a new document.
	Created bool

	// SnapshotVersion is the version number snapshotted from the prior
	// state, or 0 on first insert.
	SnapshotVersion int
}

// RepositoryService is the content-addressed document repository.
type RepositoryService interface {
	// Put creates or overwrites a document. On overwrite the prior
	// state is snapshotted first, atomically. Relationship extraction
	// and index maintenance run best-effort after the write.
	Put(ctx context.Context, in PutInput) (*PutResult, error)

	// Get retrieves a document by id.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns document summaries, most recently created first.
	List(ctx context.Context, limit int) ([]domain.DocumentSummary, error)
}
