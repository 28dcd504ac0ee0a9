package driven

import (
	"context"
	"time"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// LifecycleStore persists per-document lifecycle state, the policy
// table and the append-only event log.
type LifecycleStore interface {
	// GetLifecycle retrieves the lifecycle row for a document.
	GetLifecycle(ctx context.Context, documentID string) (*domain.DocumentLifecycle, error)

	// SaveLifecycle stores or updates a lifecycle row.
	SaveLifecycle(ctx context.Context, lc *domain.DocumentLifecycle) error

	// ListLifecycles returns every lifecycle row.
	ListLifecycles(ctx context.Context) ([]domain.DocumentLifecycle, error)

	// SavePolicy stores or updates a policy, keyed on name.
	SavePolicy(ctx context.Context, policy *domain.LifecyclePolicy) error

	// DeletePolicy removes a policy by name.
	DeletePolicy(ctx context.Context, name string) error

	// ListPolicies returns policies ordered by priority descending.
	ListPolicies(ctx context.Context, enabledOnly bool) ([]domain.LifecyclePolicy, error)

	// AppendEvent appends to the audit log. Events are never mutated
	// or deleted.
	AppendEvent(ctx context.Context, event *domain.LifecycleEvent) error

	// RecentEvents returns events created at or after since, newest
	// first, capped at limit.
	RecentEvents(ctx context.Context, since time.Time, limit int) ([]domain.LifecycleEvent, error)

	// EventsForDocument returns a document's full event history,
	// oldest first.
	EventsForDocument(ctx context.Context, documentID string) ([]domain.LifecycleEvent, error)
}
