package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxDocumentIDLength bounds caller-supplied document identifiers.
const MaxDocumentIDLength = 255

// MetadataContentLength is the metadata key the repository always derives
// from the stored content. Caller-supplied values for it are overwritten.
const MetadataContentLength = "content_length"

// Metadata contains arbitrary key-value pairs attached to a document,
// version or relationship. Stored as JSON.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata map.
// A nil receiver yields an empty, non-nil map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Document is the live, content-addressed document row.
// The row is overwritten in place on update; prior state survives
// as a DocumentVersion snapshot.
type Document struct {
	// ID is the unique identifier, caller-supplied or content-derived.
	ID string

	// Content is the full text content.
	Content string

	// ContentHash is the SHA-256 digest of Content, recomputed at every
	// write and never trusted from input.
	ContentHash string

	// Metadata contains arbitrary key-value pairs. Always carries the
	// derived content_length key.
	Metadata Metadata

	// CreatedAt is when the document was first written.
	CreatedAt time.Time

	// UpdatedAt is when the document row was last overwritten.
	UpdatedAt time.Time
}

// Title returns the metadata title when present, falling back to the ID.
func (d *Document) Title() string {
	if t, ok := d.Metadata["title"].(string); ok && t != "" {
		return t
	}
	return d.ID
}

// DocumentSummary is a listing row without the content blob.
type DocumentSummary struct {
	ID            string
	Title         string
	ContentHash   string
	ContentLength int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HashContent computes the canonical content digest (SHA-256, hex).
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DeriveDocumentID derives a deterministic identifier from content,
// so identical content maps to the same id.
func DeriveDocumentID(content string) string {
	return "doc-" + HashContent(content)[:12]
}
