package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// RelationshipStore is an in-memory driven.RelationshipStore keyed on
// (source, target, type) like the SQLite adapter.
type RelationshipStore struct {
	mu    sync.RWMutex
	edges map[string]domain.DocumentRelationship

	// docs resolves far-side titles for ByDocument; optional.
	docs *DocumentStore
}

var _ driven.RelationshipStore = (*RelationshipStore)(nil)

// NewRelationshipStore returns an empty in-memory relationship store.
// docs may be nil when title enrichment is not needed.
func NewRelationshipStore(docs *DocumentStore) *RelationshipStore {
	return &RelationshipStore{
		edges: make(map[string]domain.DocumentRelationship),
		docs:  docs,
	}
}

func edgeKey(source, target, relType string) string {
	return fmt.Sprintf("%s|%s|%s", source, target, relType)
}

// Upsert stores the edge, preserving the existing id and created_at
// when the triple already exists.
func (s *RelationshipStore) Upsert(ctx context.Context, rel *domain.DocumentRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey(rel.SourceID, rel.TargetID, rel.Type)
	if existing, ok := s.edges[key]; ok {
		rel.ID = existing.ID
		rel.CreatedAt = existing.CreatedAt
	} else if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	s.edges[key] = *rel
	return nil
}

// Remove deletes an edge by id.
func (s *RelationshipStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, edge := range s.edges {
		if edge.ID == id {
			delete(s.edges, key)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ByDocument returns edges touching the document in the given direction.
func (s *RelationshipStore) ByDocument(ctx context.Context, documentID string, dir domain.Direction, relType string) ([]domain.RelatedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var related []domain.RelatedDocument
	for _, edge := range s.edges {
		if relType != "" && edge.Type != relType {
			continue
		}
		if edge.SourceID == documentID && (dir == domain.DirectionOut || dir == domain.DirectionBoth) {
			related = append(related, s.enrich(ctx, edge, domain.DirectionOut, edge.TargetID))
		}
		if edge.TargetID == documentID && (dir == domain.DirectionIn || dir == domain.DirectionBoth) {
			related = append(related, s.enrich(ctx, edge, domain.DirectionIn, edge.SourceID))
		}
	}
	sort.Slice(related, func(i, j int) bool {
		return related[i].Relationship.Strength > related[j].Relationship.Strength
	})
	return related, nil
}

func (s *RelationshipStore) enrich(ctx context.Context, edge domain.DocumentRelationship, dir domain.Direction, farID string) domain.RelatedDocument {
	out := domain.RelatedDocument{
		Relationship: edge,
		Direction:    dir,
		RelatedID:    farID,
		RelatedTitle: farID,
	}
	if s.docs != nil {
		if doc, err := s.docs.Get(ctx, farID); err == nil {
			out.RelatedTitle = doc.Title()
			out.RelatedMetadata = doc.Metadata
		}
	}
	return out
}

// All returns every edge.
func (s *RelationshipStore) All(ctx context.Context) ([]domain.DocumentRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]domain.DocumentRelationship, 0, len(s.edges))
	for _, edge := range s.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

// TagStore is an in-memory driven.TagStore.
type TagStore struct {
	mu       sync.RWMutex
	tags     map[string]map[string]domain.DocumentTag // documentID -> tag -> assignment
	taxonomy map[string]domain.TaxonomyNode
}

var _ driven.TagStore = (*TagStore)(nil)

// NewTagStore returns an empty in-memory tag store.
func NewTagStore() *TagStore {
	return &TagStore{
		tags:     make(map[string]map[string]domain.DocumentTag),
		taxonomy: make(map[string]domain.TaxonomyNode),
	}
}

// AssignTag stores or updates a tag assignment.
func (s *TagStore) AssignTag(ctx context.Context, tag domain.DocumentTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tags[tag.DocumentID] == nil {
		s.tags[tag.DocumentID] = make(map[string]domain.DocumentTag)
	}
	s.tags[tag.DocumentID][tag.Tag] = tag
	return nil
}

// RemoveTag deletes one tag assignment.
func (s *TagStore) RemoveTag(ctx context.Context, documentID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[documentID][tag]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tags[documentID], tag)
	return nil
}

// TagsForDocument lists a document's tags.
func (s *TagStore) TagsForDocument(ctx context.Context, documentID string) ([]domain.DocumentTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]domain.DocumentTag, 0, len(s.tags[documentID]))
	for _, tag := range s.tags[documentID] {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Tag < tags[j].Tag })
	return tags, nil
}

// DocumentsForTag lists documents carrying the tag.
func (s *TagStore) DocumentsForTag(ctx context.Context, tag string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for documentID, assigned := range s.tags {
		if _, ok := assigned[tag]; ok {
			ids = append(ids, documentID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveTaxonomyNode stores a taxonomy node, rejecting cycles.
func (s *TagStore) SaveTaxonomyNode(ctx context.Context, node domain.TaxonomyNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{node.Tag: true}
	for parent := node.ParentTag; parent != ""; {
		if seen[parent] {
			return fmt.Errorf("%w: tag %q", domain.ErrTaxonomyCycle, node.Tag)
		}
		seen[parent] = true
		next, ok := s.taxonomy[parent]
		if !ok {
			break
		}
		parent = next.ParentTag
	}

	s.taxonomy[node.Tag] = node
	return nil
}

// GetTaxonomyNode retrieves a taxonomy node by tag.
func (s *TagStore) GetTaxonomyNode(ctx context.Context, tag string) (*domain.TaxonomyNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.taxonomy[tag]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &node, nil
}
