package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document, version, relationship
	// or policy does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed input: empty content, an
	// over-long id, a self-loop relationship, a malformed policy.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a write raced with another writer, e.g. a
	// duplicate version number was detected at commit.
	ErrConflict = errors.New("conflict")

	// ErrPolicyEvaluation indicates a single policy failed to evaluate
	// for a document. Batch runs collect it per document instead of
	// aborting siblings.
	ErrPolicyEvaluation = errors.New("policy evaluation failed")

	// ErrTaxonomyCycle indicates a taxonomy parent link would close a cycle.
	ErrTaxonomyCycle = errors.New("taxonomy cycle")
)
