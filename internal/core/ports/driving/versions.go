package driving

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// VersionService manages a document's version history.
type VersionService interface {
	// List returns version snapshots, newest first.
	List(ctx context.Context, documentID string, limit, offset int) ([]domain.DocumentVersion, error)

	// Get retrieves one version snapshot.
	Get(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error)

	// Compare returns the structured diff between two versions.
	Compare(ctx context.Context, documentID string, versionA, versionB int) (*domain.VersionDiff, error)

	// Rollback restores the target version as the live document. The
	// rollback itself is recorded forward as a new version; history is
	// never rewritten.
	Rollback(ctx context.Context, documentID string, versionNumber int, changedBy string) (*domain.Document, error)

	// Prune deletes the oldest versions beyond keep, never deleting
	// the most recent one. Returns the number deleted.
	Prune(ctx context.Context, documentID string, keep int) (int, error)
}
