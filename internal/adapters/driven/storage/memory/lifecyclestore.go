package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// LifecycleStore is an in-memory driven.LifecycleStore.
type LifecycleStore struct {
	mu         sync.RWMutex
	lifecycles map[string]domain.DocumentLifecycle
	policies   map[string]domain.LifecyclePolicy // keyed on name
	events     []domain.LifecycleEvent
}

var _ driven.LifecycleStore = (*LifecycleStore)(nil)

// NewLifecycleStore returns an empty in-memory lifecycle store.
func NewLifecycleStore() *LifecycleStore {
	return &LifecycleStore{
		lifecycles: make(map[string]domain.DocumentLifecycle),
		policies:   make(map[string]domain.LifecyclePolicy),
	}
}

// GetLifecycle retrieves the lifecycle row for a document.
func (s *LifecycleStore) GetLifecycle(ctx context.Context, documentID string) (*domain.DocumentLifecycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lc, ok := s.lifecycles[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &lc, nil
}

// SaveLifecycle stores or updates a lifecycle row.
func (s *LifecycleStore) SaveLifecycle(ctx context.Context, lc *domain.DocumentLifecycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lifecycles[lc.DocumentID] = *lc
	return nil
}

// ListLifecycles returns every lifecycle row.
func (s *LifecycleStore) ListLifecycles(ctx context.Context) ([]domain.DocumentLifecycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DocumentLifecycle, 0, len(s.lifecycles))
	for _, lc := range s.lifecycles {
		out = append(out, lc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// SavePolicy stores or updates a policy, keyed on name.
func (s *LifecycleStore) SavePolicy(ctx context.Context, policy *domain.LifecyclePolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.policies[policy.Name]; ok {
		policy.ID = existing.ID
		policy.CreatedAt = existing.CreatedAt
	}
	s.policies[policy.Name] = *policy
	return nil
}

// DeletePolicy removes a policy by name.
func (s *LifecycleStore) DeletePolicy(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.policies, name)
	return nil
}

// ListPolicies returns policies ordered by priority descending.
func (s *LifecycleStore) ListPolicies(ctx context.Context, enabledOnly bool) ([]domain.LifecyclePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LifecyclePolicy
	for _, policy := range s.policies {
		if enabledOnly && !policy.Enabled {
			continue
		}
		out = append(out, policy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// AppendEvent appends to the audit log.
func (s *LifecycleStore) AppendEvent(ctx context.Context, event *domain.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *event)
	return nil
}

// RecentEvents returns events created at or after since, newest first.
func (s *LifecycleStore) RecentEvents(ctx context.Context, since time.Time, limit int) ([]domain.LifecycleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LifecycleEvent
	for _, event := range s.events {
		if !event.CreatedAt.Before(since) {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EventsForDocument returns a document's event history, oldest first.
func (s *LifecycleStore) EventsForDocument(ctx context.Context, documentID string) ([]domain.LifecycleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LifecycleEvent
	for _, event := range s.events {
		if event.DocumentID == documentID {
			out = append(out, event)
		}
	}
	return out, nil
}
