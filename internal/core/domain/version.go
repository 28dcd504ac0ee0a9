package domain

import (
	"sort"
	"strings"
	"time"
)

// DocumentVersion is an immutable snapshot of a document row, taken
// immediately before the row is overwritten. Version numbers per
// document are gapless and strictly increasing from 1.
type DocumentVersion struct {
	ID            string
	DocumentID    string
	VersionNumber int
	Content       string
	ContentHash   string
	Metadata      Metadata
	ChangeSummary string
	ChangedBy     string
	CreatedAt     time.Time
}

// LineChange describes a single line-level difference between two
// version contents.
type LineChange struct {
	// Line is the 1-based line number in the newer version
	// (or the older version for removals).
	Line int

	// Kind is "added", "removed" or "changed".
	Kind string

	// Text is the line content on the newer side ("removed" carries
	// the older side).
	Text string
}

// VersionDiff is the structured comparison of two versions of one document.
type VersionDiff struct {
	DocumentID string
	VersionA   int
	VersionB   int

	// Identical is true when the content hashes match.
	Identical bool

	ContentChanges []LineChange

	// MetadataAdded/Removed/Changed list metadata keys that differ
	// between the two versions.
	MetadataAdded   []string
	MetadataRemoved []string
	MetadataChanged []string
}

// DiffVersions computes the structured diff between two version snapshots.
func DiffVersions(a, b *DocumentVersion) *VersionDiff {
	diff := &VersionDiff{
		DocumentID: a.DocumentID,
		VersionA:   a.VersionNumber,
		VersionB:   b.VersionNumber,
		Identical:  a.ContentHash == b.ContentHash,
	}

	if !diff.Identical {
		diff.ContentChanges = diffLines(a.Content, b.Content)
	}

	for key, bv := range b.Metadata {
		av, ok := a.Metadata[key]
		switch {
		case !ok:
			diff.MetadataAdded = append(diff.MetadataAdded, key)
		case !metadataValueEqual(av, bv):
			diff.MetadataChanged = append(diff.MetadataChanged, key)
		}
	}
	for key := range a.Metadata {
		if _, ok := b.Metadata[key]; !ok {
			diff.MetadataRemoved = append(diff.MetadataRemoved, key)
		}
	}
	sort.Strings(diff.MetadataAdded)
	sort.Strings(diff.MetadataRemoved)
	sort.Strings(diff.MetadataChanged)

	return diff
}

// diffLines compares contents line by line. Positional comparison is
// enough here: the diff is informational, not a patch format.
func diffLines(oldContent, newContent string) []LineChange {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	var changes []LineChange
	maxLen := len(oldLines)
	if len(newLines) > maxLen {
		maxLen = len(newLines)
	}

	for i := 0; i < maxLen; i++ {
		switch {
		case i >= len(oldLines):
			changes = append(changes, LineChange{Line: i + 1, Kind: "added", Text: newLines[i]})
		case i >= len(newLines):
			changes = append(changes, LineChange{Line: i + 1, Kind: "removed", Text: oldLines[i]})
		case oldLines[i] != newLines[i]:
			changes = append(changes, LineChange{Line: i + 1, Kind: "changed", Text: newLines[i]})
		}
	}

	return changes
}

// metadataValueEqual compares two metadata values loosely. Values come
// back from JSON so numeric types are normalised to float64 first.
func metadataValueEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
