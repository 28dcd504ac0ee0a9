package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Put inserts or overwrites a document. On overwrite the prior row is
// snapshotted as the next version number inside the same transaction,
// so no reader ever sees the new row without its preceding version.
func (s *documentStore) Put(
	ctx context.Context, doc *domain.Document, changeSummary, changedBy string,
) (*driven.PutOutcome, error) {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, release, err := s.store.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		prevContent  string
		prevHash     string
		prevMetadata string
		prevCreated  time.Time
	)
	row := tx.QueryRowContext(ctx, `
		SELECT content, content_hash, metadata, created_at
		FROM documents WHERE id = ?
	`, doc.ID)

	outcome := &driven.PutOutcome{}
	switch err := row.Scan(&prevContent, &prevHash, &prevMetadata, &prevCreated); {
	case err == sql.ErrNoRows:
		outcome.Created = true

	case err != nil:
		return nil, fmt.Errorf("reading current document %s: %w", doc.ID, err)

	default:
		// Snapshot the prior state before overwriting.
		var next int
		numRow := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version_number), 0) + 1
			FROM document_versions WHERE document_id = ?
		`, doc.ID)
		if err := numRow.Scan(&next); err != nil {
			return nil, fmt.Errorf("assigning version number for %s: %w", doc.ID, err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_versions
				(id, document_id, version_number, content, content_hash,
				 metadata, change_summary, changed_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), doc.ID, next, prevContent, prevHash,
			prevMetadata, changeSummary, changedBy, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("snapshotting version %d of %s: %w", next, doc.ID, err)
		}

		outcome.SnapshotVersion = next
		doc.CreatedAt = prevCreated // first-write time survives overwrites
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, content, content_hash, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			content_hash = excluded.content_hash,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Content, doc.ContentHash, string(metadataJSON),
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving document %s: %w", doc.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing document %s: %w", doc.ID, err)
	}
	return outcome, nil
}

// Get retrieves a document by id.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, content, content_hash, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocumentRow(row)
}

// List returns document summaries, most recently created first.
func (s *documentStore) List(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, content_hash, metadata, length(content), created_at, updated_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var summary domain.DocumentSummary
		var metadataJSON string
		if err := rows.Scan(&summary.ID, &summary.ContentHash, &metadataJSON,
			&summary.ContentLength, &summary.CreatedAt, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document summary: %w", err)
		}

		var metadata domain.Metadata
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		summary.Title = (&domain.Document{ID: summary.ID, Metadata: metadata}).Title()
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return summaries, nil
}

// All returns every live document.
func (s *documentStore) All(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, content, content_hash, metadata, created_at, updated_at
		FROM documents
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of live documents.
func (s *documentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// ListVersions returns version snapshots for a document, newest first.
func (s *documentStore) ListVersions(
	ctx context.Context, documentID string, limit, offset int,
) ([]domain.DocumentVersion, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, version_number, content, content_hash,
		       metadata, change_summary, changed_by, created_at
		FROM document_versions
		WHERE document_id = ?
		ORDER BY version_number DESC
		LIMIT ? OFFSET ?
	`, documentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.DocumentVersion //nolint:prealloc // size unknown from query
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}

	return versions, nil
}

// GetVersion retrieves one version snapshot.
func (s *documentStore) GetVersion(
	ctx context.Context, documentID string, versionNumber int,
) (*domain.DocumentVersion, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, version_number, content, content_hash,
		       metadata, change_summary, changed_by, created_at
		FROM document_versions
		WHERE document_id = ? AND version_number = ?
	`, documentID, versionNumber)

	var version domain.DocumentVersion
	var metadataJSON string
	if err := row.Scan(&version.ID, &version.DocumentID, &version.VersionNumber,
		&version.Content, &version.ContentHash, &metadataJSON,
		&version.ChangeSummary, &version.ChangedBy, &version.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning version: %w", err)
	}

	if err := json.Unmarshal([]byte(metadataJSON), &version.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling version metadata: %w", err)
	}

	return &version, nil
}

// PruneVersions deletes the oldest versions beyond keep. The most
// recent version always survives.
func (s *documentStore) PruneVersions(ctx context.Context, documentID string, keep int) (int, error) {
	if keep < 1 {
		keep = 1 // never delete the single most recent version
	}

	tx, release, err := s.store.beginWrite(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM document_versions
		WHERE document_id = ?
		  AND version_number NOT IN (
			SELECT version_number FROM document_versions
			WHERE document_id = ?
			ORDER BY version_number DESC
			LIMIT ?
		  )
	`, documentID, documentID, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning versions of %s: %w", documentID, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned versions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune of %s: %w", documentID, err)
	}
	return int(deleted), nil
}

// scanDocumentRow scans a single document row.
func scanDocumentRow(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON string

	if err := row.Scan(&doc.ID, &doc.Content, &doc.ContentHash,
		&metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON string

	if err := rows.Scan(&doc.ID, &doc.Content, &doc.ContentHash,
		&metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	return &doc, nil
}

// scanVersion scans a version from *sql.Rows.
func scanVersion(rows *sql.Rows) (*domain.DocumentVersion, error) {
	var version domain.DocumentVersion
	var metadataJSON string

	if err := rows.Scan(&version.ID, &version.DocumentID, &version.VersionNumber,
		&version.Content, &version.ContentHash, &metadataJSON,
		&version.ChangeSummary, &version.ChangedBy, &version.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning version: %w", err)
	}

	if err := json.Unmarshal([]byte(metadataJSON), &version.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling version metadata: %w", err)
	}

	return &version, nil
}
