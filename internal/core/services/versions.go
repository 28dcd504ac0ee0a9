package services

import (
	"context"
	"fmt"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
	"github.com/chronicle-labs/docvault/internal/logger"
)

// Ensure VersionService implements the interface.
var _ driving.VersionService = (*VersionService)(nil)

// VersionService manages document version history. Snapshots are
// written by the document store inside the write transaction; this
// service covers the read, compare, rollback and retention paths.
type VersionService struct {
	docStore driven.DocumentStore
	repo     driving.RepositoryService
}

// NewVersionService creates a new version service. The repository is
// used by Rollback to record the restore as a normal forward write.
func NewVersionService(docStore driven.DocumentStore, repo driving.RepositoryService) *VersionService {
	return &VersionService{
		docStore: docStore,
		repo:     repo,
	}
}

// List returns version snapshots for a document, newest first.
func (s *VersionService) List(ctx context.Context, documentID string, limit, offset int) ([]domain.DocumentVersion, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.docStore.ListVersions(ctx, documentID, limit, offset)
}

// Get retrieves one version snapshot.
func (s *VersionService) Get(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error) {
	if versionNumber < 1 {
		return nil, fmt.Errorf("%w: version numbers start at 1", domain.ErrInvalidInput)
	}
	return s.docStore.GetVersion(ctx, documentID, versionNumber)
}

// Compare returns the structured diff between two versions: a hash
// equality check plus line-level content and metadata key differences.
func (s *VersionService) Compare(ctx context.Context, documentID string, versionA, versionB int) (*domain.VersionDiff, error) {
	a, err := s.Get(ctx, documentID, versionA)
	if err != nil {
		return nil, fmt.Errorf("version %d of %s: %w", versionA, documentID, err)
	}
	b, err := s.Get(ctx, documentID, versionB)
	if err != nil {
		return nil, fmt.Errorf("version %d of %s: %w", versionB, documentID, err)
	}
	return domain.DiffVersions(a, b), nil
}

// Rollback restores the content and metadata of the target version as
// the live document. The restore goes through the normal write path,
// so the pre-rollback state is snapshotted first: history only ever
// moves forward.
func (s *VersionService) Rollback(ctx context.Context, documentID string, versionNumber int, changedBy string) (*domain.Document, error) {
	target, err := s.Get(ctx, documentID, versionNumber)
	if err != nil {
		return nil, fmt.Errorf("rollback target: %w", err)
	}

	metadata := target.Metadata.Clone()
	delete(metadata, domain.MetadataContentLength) // re-derived on write

	_, err = s.repo.Put(ctx, driving.PutInput{
		ID:            documentID,
		Content:       target.Content,
		Metadata:      metadata,
		ChangeSummary: fmt.Sprintf("rollback to version %d", versionNumber),
		ChangedBy:     changedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("rollback %s to version %d: %w", documentID, versionNumber, err)
	}

	logger.Info("Rolled %s back to version %d", documentID, versionNumber)
	return s.docStore.Get(ctx, documentID)
}

// Prune deletes the oldest versions beyond keep. The most recent
// version always survives, even when keep is 0.
func (s *VersionService) Prune(ctx context.Context, documentID string, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("%w: keep must be >= 0", domain.ErrInvalidInput)
	}
	deleted, err := s.docStore.PruneVersions(ctx, documentID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune versions of %s: %w", documentID, err)
	}
	if deleted > 0 {
		logger.Debug("Pruned %d versions of %s", deleted, documentID)
	}
	return deleted, nil
}
