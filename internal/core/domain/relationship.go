package domain

import "time"

// Well-known relationship types. The type is an open string enum;
// callers may introduce their own.
const (
	RelationReferences  = "references"
	RelationDerivedFrom = "derived_from"
	RelationDuplicates  = "duplicates"
	RelationRelated     = "related"
	RelationParent      = "parent"
)

// DefaultStrength is the edge weight used when the caller supplies none.
const DefaultStrength = 1.0

// Direction selects which edges of a document to traverse.
type Direction string

// Direction values for relationship queries.
const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Valid reports whether the direction is one of the known values.
func (d Direction) Valid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionBoth:
		return true
	}
	return false
}

// DocumentRelationship is a directed, typed, weighted edge between two
// documents. The (source, target, type) triple is unique; re-asserting
// an existing edge updates strength and metadata in place.
type DocumentRelationship struct {
	ID        string
	SourceID  string
	TargetID  string
	Type      string
	Strength  float64
	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RelatedDocument is an edge enriched with the far-side document's
// display information.
type RelatedDocument struct {
	Relationship DocumentRelationship

	// Direction is "out" when the queried document is the source,
	// "in" when it is the target.
	Direction Direction

	// RelatedID is the document on the far side of the edge.
	RelatedID string

	// RelatedTitle is the far-side document's display title.
	RelatedTitle string

	// RelatedMetadata is the far-side document's metadata.
	RelatedMetadata Metadata
}

// RelationshipPath is one simple path between two documents: an ordered
// edge sequence with no repeated nodes.
type RelationshipPath struct {
	// Nodes lists the document ids along the path, source first.
	Nodes []string

	// Edges are the traversed relationships, in order.
	Edges []DocumentRelationship

	// TotalStrength is the product of edge strengths along the path.
	TotalStrength float64
}

// Length returns the number of hops in the path.
func (p RelationshipPath) Length() int { return len(p.Edges) }

// NodeDegree pairs a document with its undirected degree.
type NodeDegree struct {
	DocumentID string
	Degree     int
}

// GraphStatistics summarises the relationship graph.
type GraphStatistics struct {
	TotalDocuments     int
	TotalRelationships int

	// TypeBreakdown counts edges per relationship type.
	TypeBreakdown map[string]int

	// TopNodes lists the highest-degree documents, descending.
	TopNodes []NodeDegree

	// ConnectedComponents counts components of the undirected
	// simplification of the graph.
	ConnectedComponents int

	AverageStrength float64

	// Density is edges / (nodes * (nodes-1)) over the undirected
	// simplification; 0 when fewer than two documents exist.
	Density float64
}
