package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/adapters/driven/storage/memory"
	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
)

// setupVersioned writes a document through the repository n times and
// returns the wired services.
func setupVersioned(t *testing.T, id string, revisions ...string) (*VersionService, *RepositoryService) {
	t.Helper()
	docStore := memory.NewDocumentStore()
	repo := NewRepositoryService(docStore, nil, nil, nil)
	versions := NewVersionService(docStore, repo)

	ctx := context.Background()
	for _, content := range revisions {
		_, err := repo.Put(ctx, driving.PutInput{ID: id, Content: content})
		require.NoError(t, err)
	}
	return versions, repo
}

func TestVersionService_ListNewestFirst(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1", "one", "two", "three")
	ctx := context.Background()

	versions, err := svc.List(ctx, "doc-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
	assert.Equal(t, "two", versions[0].Content)
	assert.Equal(t, 1, versions[1].VersionNumber)
	assert.Equal(t, "one", versions[1].Content)
}

func TestVersionService_GetRejectsInvalidNumber(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1", "one")

	_, err := svc.Get(context.Background(), "doc-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVersionService_Compare(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1",
		"line one\nline two",
		"line one\nline two changed",
		"line one\nline two changed\nline three")
	ctx := context.Background()

	diff, err := svc.Compare(ctx, "doc-1", 1, 2)
	require.NoError(t, err)
	assert.False(t, diff.Identical)
	require.NotEmpty(t, diff.ContentChanges)
	assert.Equal(t, "changed", diff.ContentChanges[0].Kind)
	assert.Equal(t, 2, diff.ContentChanges[0].Line)
}

func TestVersionService_CompareIdenticalContent(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1", "same", "different", "same", "final")
	ctx := context.Background()

	// v1 and v3 hold identical content; the hash check short-circuits
	// the line diff.
	diff, err := svc.Compare(ctx, "doc-1", 1, 3)
	require.NoError(t, err)
	assert.True(t, diff.Identical)
	assert.Empty(t, diff.ContentChanges)
}

func TestVersionService_RollbackRestoresForward(t *testing.T) {
	svc, repo := setupVersioned(t, "doc-1", "original", "revised")
	ctx := context.Background()

	doc, err := svc.Rollback(ctx, "doc-1", 1, "carol")
	require.NoError(t, err)
	assert.Equal(t, "original", doc.Content)
	assert.Equal(t, domain.HashContent("original"), doc.ContentHash)

	// The pre-rollback state became a new snapshot: history moved
	// forward instead of being rewritten.
	versions, err := svc.List(ctx, "doc-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "revised", versions[0].Content)
	assert.Contains(t, versions[0].ChangeSummary, "rollback to version 1")
	assert.Equal(t, "carol", versions[0].ChangedBy)

	live, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "original", live.Content)
}

func TestVersionService_RollbackMissingVersion(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1", "only")

	_, err := svc.Rollback(context.Background(), "doc-1", 3, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionService_Prune(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1", "r1", "r2", "r3", "r4", "r5")
	ctx := context.Background()

	deleted, err := svc.Prune(ctx, "doc-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	versions, err := svc.List(ctx, "doc-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 4, versions[0].VersionNumber)
}

func TestVersionService_PruneRejectsNegativeKeep(t *testing.T) {
	svc, _ := setupVersioned(t, "doc-1", "r1", "r2")

	_, err := svc.Prune(context.Background(), "doc-1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
