// Package domain defines the core entities of the document store:
// documents, version snapshots, relationships, tags, lifecycle state
// and search results. Types here are pure Go with no storage or
// transport dependencies.
package domain
