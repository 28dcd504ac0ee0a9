package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

func newTestRelationship(source, target, relType string, strength float64) *domain.DocumentRelationship {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.DocumentRelationship{
		ID:        uuid.New().String(),
		SourceID:  source,
		TargetID:  target,
		Type:      relType,
		Strength:  strength,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ==================== Relationship Tests ====================

func TestRelationshipStore_UpsertAndAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	rels := store.RelationshipStore()

	createTestDocument(t, store, "doc-a", "alpha")
	createTestDocument(t, store, "doc-b", "beta")

	rel := newTestRelationship("doc-a", "doc-b", domain.RelationReferences, 0.8)
	require.NoError(t, rels.Upsert(ctx, rel))

	all, err := rels.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "doc-a", all[0].SourceID)
	assert.Equal(t, 0.8, all[0].Strength)
}

func TestRelationshipStore_UpsertIdempotentOnTriple(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	rels := store.RelationshipStore()

	createTestDocument(t, store, "doc-a", "alpha")
	createTestDocument(t, store, "doc-b", "beta")

	first := newTestRelationship("doc-a", "doc-b", domain.RelationReferences, 0.5)
	require.NoError(t, rels.Upsert(ctx, first))

	// Same (source, target, type) updates in place instead of
	// inserting a second edge.
	second := newTestRelationship("doc-a", "doc-b", domain.RelationReferences, 0.9)
	require.NoError(t, rels.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	all, err := rels.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 0.9, all[0].Strength)

	// A different type is a distinct edge.
	other := newTestRelationship("doc-a", "doc-b", domain.RelationRelated, 0.4)
	require.NoError(t, rels.Upsert(ctx, other))

	all, err = rels.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRelationshipStore_Remove(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	rels := store.RelationshipStore()

	createTestDocument(t, store, "doc-a", "alpha")
	createTestDocument(t, store, "doc-b", "beta")

	rel := newTestRelationship("doc-a", "doc-b", domain.RelationReferences, 1.0)
	require.NoError(t, rels.Upsert(ctx, rel))

	require.NoError(t, rels.Remove(ctx, rel.ID))

	all, err := rels.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, rels.Remove(ctx, rel.ID), domain.ErrNotFound)
}

func TestRelationshipStore_ByDocumentDirections(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	rels := store.RelationshipStore()

	createTestDocument(t, store, "doc-a", "alpha")
	createTestDocument(t, store, "doc-b", "beta")
	createTestDocument(t, store, "doc-c", "gamma")

	require.NoError(t, rels.Upsert(ctx, newTestRelationship("doc-a", "doc-b", domain.RelationReferences, 1.0)))
	require.NoError(t, rels.Upsert(ctx, newTestRelationship("doc-c", "doc-a", domain.RelationDerivedFrom, 0.7)))

	out, err := rels.ByDocument(ctx, "doc-a", domain.DirectionOut, "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "doc-b", out[0].RelatedID)
	assert.Equal(t, domain.DirectionOut, out[0].Direction)
	assert.Equal(t, "Test Document doc-b", out[0].RelatedTitle)

	in, err := rels.ByDocument(ctx, "doc-a", domain.DirectionIn, "")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "doc-c", in[0].RelatedID)

	both, err := rels.ByDocument(ctx, "doc-a", domain.DirectionBoth, "")
	require.NoError(t, err)
	assert.Len(t, both, 2)

	filtered, err := rels.ByDocument(ctx, "doc-a", domain.DirectionBoth, domain.RelationReferences)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.RelationReferences, filtered[0].Relationship.Type)
}

// ==================== Tag Tests ====================

func TestTagStore_AssignAndQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	tags := store.TagStore()

	createTestDocument(t, store, "doc-a", "alpha")
	createTestDocument(t, store, "doc-b", "beta")

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, tags.AssignTag(ctx, domain.DocumentTag{
		DocumentID: "doc-a", Tag: "golang", Category: "language", Confidence: 1.0, CreatedAt: now,
	}))
	require.NoError(t, tags.AssignTag(ctx, domain.DocumentTag{
		DocumentID: "doc-b", Tag: "golang", Category: "language", Confidence: 0.8, CreatedAt: now,
	}))

	forDoc, err := tags.TagsForDocument(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, forDoc, 1)
	assert.Equal(t, "golang", forDoc[0].Tag)

	forTag, err := tags.DocumentsForTag(ctx, "golang")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-a", "doc-b"}, forTag)

	require.NoError(t, tags.RemoveTag(ctx, "doc-a", "golang"))
	forDoc, err = tags.TagsForDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Empty(t, forDoc)
}

func TestTagStore_TaxonomyCycleRejected(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	tags := store.TagStore()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, tags.SaveTaxonomyNode(ctx, domain.TaxonomyNode{Tag: "engineering", CreatedAt: now}))
	require.NoError(t, tags.SaveTaxonomyNode(ctx, domain.TaxonomyNode{Tag: "backend", ParentTag: "engineering", CreatedAt: now}))
	require.NoError(t, tags.SaveTaxonomyNode(ctx, domain.TaxonomyNode{Tag: "databases", ParentTag: "backend", CreatedAt: now}))

	// Closing the loop engineering -> databases is a cycle.
	err := tags.SaveTaxonomyNode(ctx, domain.TaxonomyNode{Tag: "engineering", ParentTag: "databases", CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrTaxonomyCycle)

	// A self-parent is the one-node cycle.
	err = tags.SaveTaxonomyNode(ctx, domain.TaxonomyNode{Tag: "solo", ParentTag: "solo", CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrTaxonomyCycle)
}

func TestTagStore_GetTaxonomyNode(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	tags := store.TagStore()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, tags.SaveTaxonomyNode(ctx, domain.TaxonomyNode{
		Tag: "golang", Category: "language", Synonyms: []string{"go"}, CreatedAt: now,
	}))

	node, err := tags.GetTaxonomyNode(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, "language", node.Category)
	assert.Equal(t, []string{"go"}, node.Synonyms)

	_, err = tags.GetTaxonomyNode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
