package driven

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// EventPublisher delivers domain events to external subscribers.
// Publication is best-effort: failures are logged by callers and
// never surface as the failure of the primary operation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}
