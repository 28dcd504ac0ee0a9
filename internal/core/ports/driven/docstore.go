package driven

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// PutOutcome reports what a document write did.
type PutOutcome struct {
	// Created is true when the id did not exist before.
	Created bool

	// SnapshotVersion is the version number of the snapshot taken of
	// the prior state, or 0 on first insert (no prior state).
	SnapshotVersion int
}

// DocumentStore persists documents and their version history.
// Backed by SQLite. The snapshot-then-overwrite of Put is atomic:
// no reader ever observes a document row without its preceding
// version existing in history.
type DocumentStore interface {
	// Put inserts the document or overwrites the existing row with the
	// same id. On overwrite, the prior row is snapshotted as the next
	// version inside the same transaction.
	Put(ctx context.Context, doc *domain.Document, changeSummary, changedBy string) (*PutOutcome, error)

	// Get retrieves a document by id.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns document summaries, most recently created first.
	List(ctx context.Context, limit int) ([]domain.DocumentSummary, error)

	// All returns every live document. Used by the search fallback
	// scan and relationship extraction.
	All(ctx context.Context) ([]domain.Document, error)

	// Count returns the number of live documents.
	Count(ctx context.Context) (int, error)

	// ListVersions returns version snapshots for a document, newest
	// first.
	ListVersions(ctx context.Context, documentID string, limit, offset int) ([]domain.DocumentVersion, error)

	// GetVersion retrieves one version snapshot.
	GetVersion(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error)

	// PruneVersions deletes the oldest versions beyond keep, never
	// deleting the most recent one. Returns the number deleted.
	PruneVersions(ctx context.Context, documentID string, keep int) (int, error)
}
