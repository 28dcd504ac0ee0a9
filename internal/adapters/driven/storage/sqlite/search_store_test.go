package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

func indexTestEntry(t *testing.T, store *Store, docID, title, content string) {
	t.Helper()
	createTestDocument(t, store, docID, content)
	err := store.SearchIndex().Index(context.Background(), domain.IndexEntry{
		DocumentID: docID,
		Title:      title,
		Content:    content,
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
}

func TestSearchIndex_IndexAndSearch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	indexTestEntry(t, store, "doc-go", "Go Patterns", "goroutines and channels in go")
	indexTestEntry(t, store, "doc-db", "Database Guide", "indexes and queries")

	results, err := store.SearchIndex().Search(ctx, "go", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-go", results[0].DocumentID)
	assert.Equal(t, "index", results[0].Source)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchIndex_TitleMatchesWeighDouble(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	indexTestEntry(t, store, "doc-title", "storage engine design", "notes")
	indexTestEntry(t, store, "doc-body", "misc notes", "the storage layer")

	results, err := store.SearchIndex().Search(ctx, "storage", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-title", results[0].DocumentID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchIndex_MetacharacterTermsMatchLiterally(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	indexTestEntry(t, store, "doc-pct", "Quarterly Report", "growth hit 100% this quarter")
	indexTestEntry(t, store, "doc-num", "Raw Numbers", "growth hit 100x this quarter")
	indexTestEntry(t, store, "doc-snake", "Config Reference", "set retry_limit before use")
	indexTestEntry(t, store, "doc-word", "Prose", "set retryxlimit nothing here")

	// % and _ in a term are literals, not wildcards.
	results, err := store.SearchIndex().Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-pct", results[0].DocumentID)

	results, err = store.SearchIndex().Search(ctx, "retry_limit", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-snake", results[0].DocumentID)
}

func TestSearchIndex_LimitAndEmptyQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	indexTestEntry(t, store, "doc-1", "alpha report", "alpha alpha")
	indexTestEntry(t, store, "doc-2", "alpha summary", "alpha")
	indexTestEntry(t, store, "doc-3", "alpha digest", "alpha")

	results, err := store.SearchIndex().Search(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.SearchIndex().Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchIndex_UpdateReplacesEntry(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	indexTestEntry(t, store, "doc-1", "old title", "old words")
	err := store.SearchIndex().Index(ctx, domain.IndexEntry{
		DocumentID: "doc-1",
		Title:      "new title",
		Content:    "fresh words",
		UpdatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	results, err := store.SearchIndex().Search(ctx, "old", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = store.SearchIndex().Search(ctx, "fresh", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new title", results[0].Title)
}

func TestSearchIndex_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	indexTestEntry(t, store, "doc-1", "findable", "findable text")
	require.NoError(t, store.SearchIndex().Delete(ctx, "doc-1"))

	results, err := store.SearchIndex().Search(ctx, "findable", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Deleting an unindexed document is not an error.
	assert.NoError(t, store.SearchIndex().Delete(ctx, "doc-1"))
}
