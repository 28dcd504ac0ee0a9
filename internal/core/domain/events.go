package domain

import "time"

// Domain event types emitted best-effort to an external publisher.
const (
	EventDocumentCreated   = "document.created"
	EventDocumentUpdated   = "document.updated"
	EventPhaseTransitioned = "lifecycle.phase_transitioned"
)

// DomainEvent is a best-effort notification about a state change.
// Delivery failures are invisible to the core.
type DomainEvent struct {
	Type       string
	DocumentID string
	Detail     map[string]any
	OccurredAt time.Time
}
