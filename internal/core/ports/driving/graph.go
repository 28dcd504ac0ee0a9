package driving

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// GraphService manages the typed relationship graph over documents.
type GraphService interface {
	// AddRelationship upserts an edge keyed on (source, target, type).
	// Self-loops are rejected. A strength <= 0 defaults to 1.0;
	// conventionally strength lives in [0,1].
	AddRelationship(ctx context.Context, source, target, relType string, strength float64, metadata domain.Metadata) (*domain.DocumentRelationship, error)

	// RemoveRelationship deletes an edge by id.
	RemoveRelationship(ctx context.Context, id string) error

	// ExtractAndStore scans content and metadata for references to
	// known documents and stores inferred edges. Best-effort; returns
	// the number of edges stored.
	ExtractAndStore(ctx context.Context, documentID, content string, metadata domain.Metadata) (int, error)

	// Relationships returns a document's edges in the given direction,
	// optionally filtered by type, enriched for display.
	Relationships(ctx context.Context, documentID string, dir domain.Direction, relType string) ([]domain.RelatedDocument, error)

	// FindPaths returns all simple paths from source to target up to
	// maxDepth hops. Disconnected endpoints yield an empty slice, not
	// an error.
	FindPaths(ctx context.Context, source, target string, maxDepth int) ([]domain.RelationshipPath, error)

	// Statistics summarises the graph.
	Statistics(ctx context.Context) (*domain.GraphStatistics, error)

	// AssignTag attaches a tag to a document.
	AssignTag(ctx context.Context, documentID, tag, category string, confidence float64) error

	// Tags lists a document's tags.
	Tags(ctx context.Context, documentID string) ([]domain.DocumentTag, error)

	// SaveTaxonomyNode stores a taxonomy node; parent chains must stay
	// acyclic.
	SaveTaxonomyNode(ctx context.Context, node domain.TaxonomyNode) error
}

// RelationshipExtractor is the slice of GraphService the repository
// needs for its best-effort post-write extraction.
type RelationshipExtractor interface {
	ExtractAndStore(ctx context.Context, documentID, content string, metadata domain.Metadata) (int, error)
}
