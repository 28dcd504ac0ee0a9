package domain

import "time"

// DocumentTag assigns a tag to a document. Assignments may reference a
// taxonomy tag but are not required to.
type DocumentTag struct {
	DocumentID string
	Tag        string
	Category   string
	Confidence float64
	CreatedAt  time.Time
}

// TaxonomyNode is a node in the tag taxonomy. Parent links must not
// form a cycle; root nodes have an empty parent.
type TaxonomyNode struct {
	Tag       string
	Category  string
	ParentTag string
	Synonyms  []string
	CreatedAt time.Time
}
