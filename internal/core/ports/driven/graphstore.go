package driven

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// RelationshipStore persists the typed edge set between documents.
type RelationshipStore interface {
	// Upsert stores the edge, keyed on (source, target, type). An
	// existing edge has its strength and metadata overwritten; a new
	// edge is assigned an id.
	Upsert(ctx context.Context, rel *domain.DocumentRelationship) error

	// Remove deletes an edge by id.
	Remove(ctx context.Context, id string) error

	// ByDocument returns edges touching the document in the given
	// direction, optionally filtered by type, enriched with the
	// far-side document's title and metadata.
	ByDocument(ctx context.Context, documentID string, dir domain.Direction, relType string) ([]domain.RelatedDocument, error)

	// All returns every edge. Used for traversal and statistics.
	All(ctx context.Context) ([]domain.DocumentRelationship, error)
}

// TagStore persists tag assignments and the tag taxonomy.
type TagStore interface {
	// AssignTag stores or updates a tag assignment.
	AssignTag(ctx context.Context, tag domain.DocumentTag) error

	// RemoveTag deletes one tag assignment.
	RemoveTag(ctx context.Context, documentID, tag string) error

	// TagsForDocument lists a document's tags.
	TagsForDocument(ctx context.Context, documentID string) ([]domain.DocumentTag, error)

	// DocumentsForTag lists documents carrying the tag.
	DocumentsForTag(ctx context.Context, tag string) ([]string, error)

	// SaveTaxonomyNode stores a taxonomy node, rejecting parent links
	// that would close a cycle.
	SaveTaxonomyNode(ctx context.Context, node domain.TaxonomyNode) error

	// GetTaxonomyNode retrieves a taxonomy node by tag.
	GetTaxonomyNode(ctx context.Context, tag string) (*domain.TaxonomyNode, error)
}
