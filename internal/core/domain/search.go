package domain

import "time"

// IndexEntry is the indexed representation of a document, maintained
// best-effort alongside writes.
type IndexEntry struct {
	DocumentID string
	Title      string
	Content    string
	Tags       []string
	UpdatedAt  time.Time
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	DocumentID string
	Title      string

	// Score is the term-occurrence score. Higher is better.
	Score float64

	// Source reports which path produced the hit: "index" or "scan".
	Source string

	CreatedAt time.Time
}
