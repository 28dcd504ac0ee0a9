package memory

import (
	"context"
	"sync"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// EventPublisher records published events for inspection by tests.
type EventPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent

	// Err, when set, is returned from Publish.
	Err error
}

var _ driven.EventPublisher = (*EventPublisher)(nil)

// Publish records the event.
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *EventPublisher) Events() []domain.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}
