package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
	"github.com/chronicle-labs/docvault/internal/logger"
)

// Ensure GraphService implements the interfaces.
var (
	_ driving.GraphService          = (*GraphService)(nil)
	_ driving.RelationshipExtractor = (*GraphService)(nil)
)

// Extraction confidence for inferred edges.
const (
	extractedReferenceStrength = 0.8
	sharedTagStrength          = 0.5
)

// topNodeLimit caps the degree ranking in statistics.
const topNodeLimit = 10

// GraphService manages the typed, weighted relationship graph.
type GraphService struct {
	relStore driven.RelationshipStore
	tagStore driven.TagStore
	docStore driven.DocumentStore
}

// NewGraphService creates a new graph service. The tag store is
// optional (can be nil); without it tag operations and shared-tag
// extraction are disabled.
func NewGraphService(
	relStore driven.RelationshipStore,
	tagStore driven.TagStore,
	docStore driven.DocumentStore,
) *GraphService {
	return &GraphService{
		relStore: relStore,
		tagStore: tagStore,
		docStore: docStore,
	}
}

// AddRelationship upserts an edge keyed on (source, target, type).
func (s *GraphService) AddRelationship(
	ctx context.Context, source, target, relType string, strength float64, metadata domain.Metadata,
) (*domain.DocumentRelationship, error) {
	if source == "" || target == "" {
		return nil, fmt.Errorf("%w: source and target are required", domain.ErrInvalidInput)
	}
	if source == target {
		return nil, fmt.Errorf("%w: self-loop relationship %s -> %s", domain.ErrInvalidInput, source, target)
	}
	if relType == "" {
		return nil, fmt.Errorf("%w: relationship type is required", domain.ErrInvalidInput)
	}
	if strength <= 0 {
		strength = domain.DefaultStrength
	}

	now := time.Now().UTC()
	rel := &domain.DocumentRelationship{
		ID:        uuid.NewString(),
		SourceID:  source,
		TargetID:  target,
		Type:      relType,
		Strength:  strength,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.relStore.Upsert(ctx, rel); err != nil {
		return nil, fmt.Errorf("add relationship %s -[%s]-> %s: %w", source, relType, target, err)
	}
	return rel, nil
}

// RemoveRelationship deletes an edge by id.
func (s *GraphService) RemoveRelationship(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: relationship id is empty", domain.ErrInvalidInput)
	}
	return s.relStore.Remove(ctx, id)
}

// ExtractAndStore scans content and metadata for references to known
// documents and stores an inferred edge per match. Best-effort: the
// caller treats any error as a logged warning, never a write failure.
func (s *GraphService) ExtractAndStore(
	ctx context.Context, documentID, content string, metadata domain.Metadata,
) (int, error) {
	known, err := s.docStore.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load documents for extraction: %w", err)
	}

	stored := 0

	// Mentions of known document ids in the content body.
	for i := range known {
		other := known[i].ID
		if other == documentID {
			continue
		}
		if strings.Contains(content, other) {
			if _, err := s.AddRelationship(ctx, documentID, other,
				domain.RelationReferences, extractedReferenceStrength, nil); err != nil {
				logger.Warn("extracted reference %s -> %s not stored: %v", documentID, other, err)
				continue
			}
			stored++
		}
	}

	// Explicit structural hints in metadata.
	stored += s.extractFromMetadata(ctx, documentID, metadata)

	// Shared-tag hints.
	stored += s.extractSharedTags(ctx, documentID)

	return stored, nil
}

// extractFromMetadata stores edges declared by well-known metadata
// keys: "references" and "related" (lists of ids), "parent" (one id).
func (s *GraphService) extractFromMetadata(ctx context.Context, documentID string, metadata domain.Metadata) int {
	stored := 0

	addEach := func(value any, relType string, strength float64) {
		for _, target := range stringList(value) {
			if target == "" || target == documentID {
				continue
			}
			if _, err := s.AddRelationship(ctx, documentID, target, relType, strength, nil); err != nil {
				logger.Warn("metadata edge %s -[%s]-> %s not stored: %v", documentID, relType, target, err)
				continue
			}
			stored++
		}
	}

	addEach(metadata["references"], domain.RelationReferences, domain.DefaultStrength)
	addEach(metadata["related"], domain.RelationRelated, domain.DefaultStrength)
	if parent, ok := metadata["parent"].(string); ok {
		addEach([]string{parent}, domain.RelationParent, domain.DefaultStrength)
	}

	return stored
}

// extractSharedTags links the document to others carrying the same tag.
func (s *GraphService) extractSharedTags(ctx context.Context, documentID string) int {
	if s.tagStore == nil {
		return 0
	}

	tags, err := s.tagStore.TagsForDocument(ctx, documentID)
	if err != nil {
		logger.Warn("shared-tag extraction for %s: %v", documentID, err)
		return 0
	}

	stored := 0
	for _, tag := range tags {
		others, err := s.tagStore.DocumentsForTag(ctx, tag.Tag)
		if err != nil {
			logger.Warn("documents for tag %q: %v", tag.Tag, err)
			continue
		}
		for _, other := range others {
			if other == documentID {
				continue
			}
			if _, err := s.AddRelationship(ctx, documentID, other,
				domain.RelationRelated, sharedTagStrength,
				domain.Metadata{"shared_tag": tag.Tag}); err != nil {
				continue
			}
			stored++
		}
	}
	return stored
}

// stringList coerces a metadata value into a string slice. JSON
// decoding yields []any, so both forms are handled.
func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Relationships returns a document's edges, enriched for display.
func (s *GraphService) Relationships(
	ctx context.Context, documentID string, dir domain.Direction, relType string,
) ([]domain.RelatedDocument, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	if dir == "" {
		dir = domain.DirectionBoth
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidInput, dir)
	}
	return s.relStore.ByDocument(ctx, documentID, dir, relType)
}

// FindPaths returns all simple paths from source to target within
// maxDepth hops, breadth-first. Each candidate path carries its own
// visited set, so cycles terminate without hiding disjoint paths.
// Disconnected endpoints yield an empty slice.
func (s *GraphService) FindPaths(
	ctx context.Context, source, target string, maxDepth int,
) ([]domain.RelationshipPath, error) {
	if source == "" || target == "" {
		return nil, fmt.Errorf("%w: source and target are required", domain.ErrInvalidInput)
	}
	if source == target {
		return nil, fmt.Errorf("%w: source and target are the same document", domain.ErrInvalidInput)
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}

	edges, err := s.relStore.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	adjacency := make(map[string][]domain.DocumentRelationship)
	for _, edge := range edges {
		adjacency[edge.SourceID] = append(adjacency[edge.SourceID], edge)
	}

	type partial struct {
		node    string
		edges   []domain.DocumentRelationship
		visited map[string]bool
	}

	queue := []partial{{
		node:    source,
		visited: map[string]bool{source: true},
	}}

	var paths []domain.RelationshipPath
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("find paths %s -> %s: %w", source, target, err)
		}

		current := queue[0]
		queue = queue[1:]

		if len(current.edges) >= maxDepth {
			continue
		}

		for _, edge := range adjacency[current.node] {
			if current.visited[edge.TargetID] {
				continue
			}

			nextEdges := make([]domain.DocumentRelationship, len(current.edges), len(current.edges)+1)
			copy(nextEdges, current.edges)
			nextEdges = append(nextEdges, edge)

			if edge.TargetID == target {
				paths = append(paths, buildPath(source, nextEdges))
				continue
			}

			nextVisited := make(map[string]bool, len(current.visited)+1)
			for k := range current.visited {
				nextVisited[k] = true
			}
			nextVisited[edge.TargetID] = true

			queue = append(queue, partial{
				node:    edge.TargetID,
				edges:   nextEdges,
				visited: nextVisited,
			})
		}
	}

	return paths, nil
}

// buildPath assembles the path value from its ordered edges.
func buildPath(source string, edges []domain.DocumentRelationship) domain.RelationshipPath {
	nodes := make([]string, 0, len(edges)+1)
	nodes = append(nodes, source)
	strength := 1.0
	for _, edge := range edges {
		nodes = append(nodes, edge.TargetID)
		strength *= edge.Strength
	}
	return domain.RelationshipPath{
		Nodes:         nodes,
		Edges:         edges,
		TotalStrength: strength,
	}
}

// Statistics summarises the relationship graph. Components and density
// are computed over the undirected simplification.
func (s *GraphService) Statistics(ctx context.Context) (*domain.GraphStatistics, error) {
	edges, err := s.relStore.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	docCount, err := s.docStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	stats := &domain.GraphStatistics{
		TotalDocuments:     docCount,
		TotalRelationships: len(edges),
		TypeBreakdown:      make(map[string]int),
	}

	degree := make(map[string]int)
	undirected := make(map[[2]string]bool)
	var strengthSum float64

	uf := newUnionFind()
	for _, edge := range edges {
		stats.TypeBreakdown[edge.Type]++
		strengthSum += edge.Strength
		degree[edge.SourceID]++
		degree[edge.TargetID]++
		uf.union(edge.SourceID, edge.TargetID)

		key := [2]string{edge.SourceID, edge.TargetID}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		undirected[key] = true
	}

	if len(edges) > 0 {
		stats.AverageStrength = strengthSum / float64(len(edges))
	}

	// Isolated documents each form their own component.
	connectedNodes := len(uf.parent)
	stats.ConnectedComponents = uf.components() + (docCount - connectedNodes)
	if stats.ConnectedComponents < 0 {
		// Edges referencing since-removed documents; component count
		// from the union-find alone is the best available answer.
		stats.ConnectedComponents = uf.components()
	}

	if docCount > 1 {
		stats.Density = float64(len(undirected)) / float64(docCount*(docCount-1))
	}

	for id, d := range degree {
		stats.TopNodes = append(stats.TopNodes, domain.NodeDegree{DocumentID: id, Degree: d})
	}
	sort.Slice(stats.TopNodes, func(i, j int) bool {
		if stats.TopNodes[i].Degree != stats.TopNodes[j].Degree {
			return stats.TopNodes[i].Degree > stats.TopNodes[j].Degree
		}
		return stats.TopNodes[i].DocumentID < stats.TopNodes[j].DocumentID
	})
	if len(stats.TopNodes) > topNodeLimit {
		stats.TopNodes = stats.TopNodes[:topNodeLimit]
	}

	return stats, nil
}

// AssignTag attaches a tag to a document.
func (s *GraphService) AssignTag(ctx context.Context, documentID, tag, category string, confidence float64) error {
	if s.tagStore == nil {
		return fmt.Errorf("%w: tag store not configured", domain.ErrInvalidInput)
	}
	if documentID == "" || tag == "" {
		return fmt.Errorf("%w: document id and tag are required", domain.ErrInvalidInput)
	}
	if confidence <= 0 {
		confidence = 1.0
	}
	return s.tagStore.AssignTag(ctx, domain.DocumentTag{
		DocumentID: documentID,
		Tag:        tag,
		Category:   category,
		Confidence: confidence,
		CreatedAt:  time.Now().UTC(),
	})
}

// Tags lists a document's tags.
func (s *GraphService) Tags(ctx context.Context, documentID string) ([]domain.DocumentTag, error) {
	if s.tagStore == nil {
		return nil, nil
	}
	return s.tagStore.TagsForDocument(ctx, documentID)
}

// SaveTaxonomyNode stores a taxonomy node. The store rejects parent
// links that would close a cycle.
func (s *GraphService) SaveTaxonomyNode(ctx context.Context, node domain.TaxonomyNode) error {
	if s.tagStore == nil {
		return fmt.Errorf("%w: tag store not configured", domain.ErrInvalidInput)
	}
	if node.Tag == "" {
		return fmt.Errorf("%w: taxonomy tag is required", domain.ErrInvalidInput)
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now().UTC()
	}
	return s.tagStore.SaveTaxonomyNode(ctx, node)
}

// unionFind is a minimal disjoint-set over document ids.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(id string) string {
	root, ok := u.parent[id]
	if !ok {
		u.parent[id] = id
		return id
	}
	if root == id {
		return id
	}
	top := u.find(root)
	u.parent[id] = top
	return top
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

func (u *unionFind) components() int {
	roots := make(map[string]bool)
	for id := range u.parent {
		roots[u.find(id)] = true
	}
	return len(roots)
}
