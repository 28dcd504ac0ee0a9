package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// relationshipStore implements driven.RelationshipStore.
type relationshipStore struct {
	store *Store
}

var _ driven.RelationshipStore = (*relationshipStore)(nil)

// Upsert stores the edge, keyed on (source, target, type). The second
// assertion of an existing triple overwrites strength and metadata.
func (s *relationshipStore) Upsert(ctx context.Context, rel *domain.DocumentRelationship) error {
	metadataJSON, err := json.Marshal(rel.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling relationship metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO document_relationships
			(id, source_document_id, target_document_id, relationship_type,
			 strength, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_document_id, target_document_id, relationship_type) DO UPDATE SET
			strength = excluded.strength,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, rel.ID, rel.SourceID, rel.TargetID, rel.Type,
		rel.Strength, string(metadataJSON), rel.CreatedAt, rel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}

	// The caller's id is discarded on conflict; read back the stored row.
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM document_relationships
		WHERE source_document_id = ? AND target_document_id = ? AND relationship_type = ?
	`, rel.SourceID, rel.TargetID, rel.Type)
	if err := row.Scan(&rel.ID, &rel.CreatedAt); err != nil {
		return fmt.Errorf("reading back relationship: %w", err)
	}

	return nil
}

// Remove deletes an edge by id.
func (s *relationshipStore) Remove(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_relationships WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ByDocument returns edges touching the document, enriched with the
// far-side document's title and metadata.
func (s *relationshipStore) ByDocument(
	ctx context.Context, documentID string, dir domain.Direction, relType string,
) ([]domain.RelatedDocument, error) {
	var results []domain.RelatedDocument

	if dir == domain.DirectionOut || dir == domain.DirectionBoth {
		out, err := s.edgesFor(ctx, documentID, domain.DirectionOut, relType)
		if err != nil {
			return nil, err
		}
		results = append(results, out...)
	}
	if dir == domain.DirectionIn || dir == domain.DirectionBoth {
		in, err := s.edgesFor(ctx, documentID, domain.DirectionIn, relType)
		if err != nil {
			return nil, err
		}
		results = append(results, in...)
	}

	return results, nil
}

// edgesFor queries one direction, joining the far-side document.
func (s *relationshipStore) edgesFor(
	ctx context.Context, documentID string, dir domain.Direction, relType string,
) ([]domain.RelatedDocument, error) {
	nearCol, farCol := "source_document_id", "target_document_id"
	if dir == domain.DirectionIn {
		nearCol, farCol = farCol, nearCol
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.source_document_id, r.target_document_id, r.relationship_type,
		       r.strength, r.metadata, r.created_at, r.updated_at,
		       d.id, d.metadata
		FROM document_relationships r
		JOIN documents d ON d.id = r.%s
		WHERE r.%s = ?`, farCol, nearCol)
	args := []any{documentID}
	if relType != "" {
		query += " AND r.relationship_type = ?"
		args = append(args, relType)
	}
	query += " ORDER BY r.strength DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var results []domain.RelatedDocument //nolint:prealloc // size unknown from query
	for rows.Next() {
		var related domain.RelatedDocument
		var relMetaJSON, farMetaJSON string

		rel := &related.Relationship
		if err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &rel.Type,
			&rel.Strength, &relMetaJSON, &rel.CreatedAt, &rel.UpdatedAt,
			&related.RelatedID, &farMetaJSON); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}

		if err := json.Unmarshal([]byte(relMetaJSON), &rel.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling relationship metadata: %w", err)
		}
		if err := json.Unmarshal([]byte(farMetaJSON), &related.RelatedMetadata); err != nil {
			return nil, fmt.Errorf("unmarshaling related document metadata: %w", err)
		}

		related.Direction = dir
		related.RelatedTitle = (&domain.Document{
			ID:       related.RelatedID,
			Metadata: related.RelatedMetadata,
		}).Title()
		results = append(results, related)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}

	return results, nil
}

// All returns every edge.
func (s *relationshipStore) All(ctx context.Context) ([]domain.DocumentRelationship, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_document_id, target_document_id, relationship_type,
		       strength, metadata, created_at, updated_at
		FROM document_relationships
	`)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var edges []domain.DocumentRelationship //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rel domain.DocumentRelationship
		var metadataJSON string
		if err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &rel.Type,
			&rel.Strength, &metadataJSON, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &rel.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling relationship metadata: %w", err)
		}
		edges = append(edges, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}

	return edges, nil
}

// ==================== Tag Store ====================

// tagStore implements driven.TagStore.
type tagStore struct {
	store *Store
}

var _ driven.TagStore = (*tagStore)(nil)

// AssignTag stores or updates a tag assignment.
func (s *tagStore) AssignTag(ctx context.Context, tag domain.DocumentTag) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_tags (document_id, tag, category, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, tag) DO UPDATE SET
			category = excluded.category,
			confidence = excluded.confidence
	`, tag.DocumentID, tag.Tag, tag.Category, tag.Confidence, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("assigning tag: %w", err)
	}
	return nil
}

// RemoveTag deletes one tag assignment.
func (s *tagStore) RemoveTag(ctx context.Context, documentID, tag string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_tags WHERE document_id = ? AND tag = ?", documentID, tag)
	if err != nil {
		return fmt.Errorf("removing tag: %w", err)
	}
	return nil
}

// TagsForDocument lists a document's tags.
func (s *tagStore) TagsForDocument(ctx context.Context, documentID string) ([]domain.DocumentTag, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, tag, category, confidence, created_at
		FROM document_tags WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.DocumentTag //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tag domain.DocumentTag
		if err := rows.Scan(&tag.DocumentID, &tag.Tag, &tag.Category,
			&tag.Confidence, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	return tags, nil
}

// DocumentsForTag lists documents carrying the tag.
func (s *tagStore) DocumentsForTag(ctx context.Context, tag string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT document_id FROM document_tags WHERE tag = ?", tag)
	if err != nil {
		return nil, fmt.Errorf("querying documents for tag: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document ids: %w", err)
	}

	return ids, nil
}

// SaveTaxonomyNode stores a taxonomy node, walking the parent chain
// first to reject links that would close a cycle.
func (s *tagStore) SaveTaxonomyNode(ctx context.Context, node domain.TaxonomyNode) error {
	if node.ParentTag != "" {
		if err := s.checkParentChain(ctx, node.Tag, node.ParentTag); err != nil {
			return err
		}
	}

	synonymsJSON, err := json.Marshal(node.Synonyms)
	if err != nil {
		return fmt.Errorf("marshalling synonyms: %w", err)
	}

	var parent any
	if node.ParentTag != "" {
		parent = node.ParentTag
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO tag_taxonomy (tag, category, parent_tag, synonyms, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tag) DO UPDATE SET
			category = excluded.category,
			parent_tag = excluded.parent_tag,
			synonyms = excluded.synonyms
	`, node.Tag, node.Category, parent, string(synonymsJSON), node.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving taxonomy node: %w", err)
	}
	return nil
}

// checkParentChain walks from parent to the root, failing when the
// chain passes through tag itself.
func (s *tagStore) checkParentChain(ctx context.Context, tag, parent string) error {
	current := parent
	for current != "" {
		if current == tag {
			return fmt.Errorf("%w: %s -> %s", domain.ErrTaxonomyCycle, tag, parent)
		}
		var next sql.NullString
		row := s.store.db.QueryRowContext(ctx,
			"SELECT parent_tag FROM tag_taxonomy WHERE tag = ?", current)
		if err := row.Scan(&next); err != nil {
			if err == sql.ErrNoRows {
				return nil // chain ends at a tag with no taxonomy entry yet
			}
			return fmt.Errorf("walking taxonomy chain: %w", err)
		}
		current = next.String
	}
	return nil
}

// GetTaxonomyNode retrieves a taxonomy node by tag.
func (s *tagStore) GetTaxonomyNode(ctx context.Context, tag string) (*domain.TaxonomyNode, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT tag, category, parent_tag, synonyms, created_at
		FROM tag_taxonomy WHERE tag = ?
	`, tag)

	var node domain.TaxonomyNode
	var parent sql.NullString
	var synonymsJSON string
	if err := row.Scan(&node.Tag, &node.Category, &parent, &synonymsJSON, &node.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning taxonomy node: %w", err)
	}

	node.ParentTag = parent.String
	if err := json.Unmarshal([]byte(synonymsJSON), &node.Synonyms); err != nil {
		return nil, fmt.Errorf("unmarshaling synonyms: %w", err)
	}

	return &node, nil
}
