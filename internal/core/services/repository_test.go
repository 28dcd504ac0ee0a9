package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/adapters/driven/storage/memory"
	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
)

func TestRepositoryService_PutComputesHashAndDerivesID(t *testing.T) {
	docStore := memory.NewDocumentStore()
	svc := NewRepositoryService(docStore, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.Put(ctx, driving.PutInput{Content: "hello world"})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, domain.HashContent("hello world"), result.ContentHash)
	assert.Equal(t, domain.DeriveDocumentID("hello world"), result.ID)

	// Identical content derives the same id: the second write is an
	// overwrite, not a new document.
	again, err := svc.Put(ctx, driving.PutInput{Content: "hello world"})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.ID, again.ID)

	count, err := docStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepositoryService_PutRejectsEmptyContent(t *testing.T) {
	svc := NewRepositoryService(memory.NewDocumentStore(), nil, nil, nil)

	_, err := svc.Put(context.Background(), driving.PutInput{Content: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepositoryService_PutRejectsOverlongID(t *testing.T) {
	svc := NewRepositoryService(memory.NewDocumentStore(), nil, nil, nil)

	_, err := svc.Put(context.Background(), driving.PutInput{
		ID:      strings.Repeat("x", domain.MaxDocumentIDLength+1),
		Content: "content",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepositoryService_PutDerivesContentLength(t *testing.T) {
	docStore := memory.NewDocumentStore()
	svc := NewRepositoryService(docStore, nil, nil, nil)
	ctx := context.Background()

	// A caller-supplied content_length is overwritten.
	_, err := svc.Put(ctx, driving.PutInput{
		ID:       "doc-1",
		Content:  "abcde",
		Metadata: domain.Metadata{"content_length": 999, "title": "Five"},
	})
	require.NoError(t, err)

	doc, err := docStore.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Metadata[domain.MetadataContentLength])
	assert.Equal(t, "Five", doc.Metadata["title"])
}

func TestRepositoryService_PutDoesNotMutateCallerMetadata(t *testing.T) {
	svc := NewRepositoryService(memory.NewDocumentStore(), nil, nil, nil)

	metadata := domain.Metadata{"title": "Immutable"}
	_, err := svc.Put(context.Background(), driving.PutInput{
		ID:       "doc-1",
		Content:  "content",
		Metadata: metadata,
	})
	require.NoError(t, err)
	assert.NotContains(t, metadata, domain.MetadataContentLength)
}

func TestRepositoryService_PutUpdatesIndexAndPublishes(t *testing.T) {
	docStore := memory.NewDocumentStore()
	index := memory.NewSearchIndex()
	publisher := &memory.EventPublisher{}
	svc := NewRepositoryService(docStore, index, nil, publisher)
	ctx := context.Background()

	_, err := svc.Put(ctx, driving.PutInput{
		ID:       "doc-1",
		Content:  "searchable words",
		Metadata: domain.Metadata{"title": "Indexed"},
	})
	require.NoError(t, err)

	hits, err := index.Search(ctx, "searchable", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].DocumentID)

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventDocumentCreated, events[0].Type)
	assert.Equal(t, "doc-1", events[0].DocumentID)

	_, err = svc.Put(ctx, driving.PutInput{ID: "doc-1", Content: "revised words"})
	require.NoError(t, err)

	events = publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventDocumentUpdated, events[1].Type)
}

func TestRepositoryService_IndexFailureDoesNotFailWrite(t *testing.T) {
	docStore := memory.NewDocumentStore()
	index := memory.NewSearchIndex()
	index.Err = errors.New("index unavailable")
	svc := NewRepositoryService(docStore, index, nil, nil)
	ctx := context.Background()

	result, err := svc.Put(ctx, driving.PutInput{ID: "doc-1", Content: "content"})
	require.NoError(t, err)
	assert.True(t, result.Created)

	// The document is durable even though indexing failed.
	_, err = docStore.Get(ctx, "doc-1")
	assert.NoError(t, err)
}

func TestRepositoryService_PublishFailureDoesNotFailWrite(t *testing.T) {
	publisher := &memory.EventPublisher{Err: errors.New("broker down")}
	svc := NewRepositoryService(memory.NewDocumentStore(), nil, nil, publisher)

	_, err := svc.Put(context.Background(), driving.PutInput{ID: "doc-1", Content: "content"})
	assert.NoError(t, err)
}

func TestRepositoryService_Get(t *testing.T) {
	docStore := memory.NewDocumentStore()
	svc := NewRepositoryService(docStore, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Put(ctx, driving.PutInput{ID: "doc-1", Content: "content"})
	require.NoError(t, err)

	doc, err := svc.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "content", doc.Content)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepositoryService_List(t *testing.T) {
	docStore := memory.NewDocumentStore()
	svc := NewRepositoryService(docStore, nil, nil, nil)
	ctx := context.Background()

	for _, id := range []string{"doc-a", "doc-b", "doc-c"} {
		_, err := svc.Put(ctx, driving.PutInput{ID: id, Content: "content of " + id})
		require.NoError(t, err)
	}

	summaries, err := svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}
