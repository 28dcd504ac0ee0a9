package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
	"github.com/chronicle-labs/docvault/internal/logger"
)

// Ensure LifecycleService implements the interface.
var _ driving.LifecycleService = (*LifecycleService)(nil)

// recentEventLimit caps the event listing inside compliance reports.
const recentEventLimit = 100

// LifecycleService drives the per-document phase state machine from
// declarative policies and keeps the append-only audit log.
type LifecycleService struct {
	lcStore   driven.LifecycleStore
	docStore  driven.DocumentStore
	publisher driven.EventPublisher

	// now is injectable for tests.
	now func() time.Time
}

// NewLifecycleService creates a new lifecycle service. The publisher
// is optional (can be nil).
func NewLifecycleService(
	lcStore driven.LifecycleStore,
	docStore driven.DocumentStore,
	publisher driven.EventPublisher,
) *LifecycleService {
	return &LifecycleService{
		lcStore:   lcStore,
		docStore:  docStore,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EvaluatePolicies evaluates enabled policies against one document,
// highest priority first, applying the first match.
func (s *LifecycleService) EvaluatePolicies(ctx context.Context, documentID string) (*domain.PhaseChange, error) {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}

	lc, err := s.ensureLifecycle(ctx, documentID)
	if err != nil {
		return nil, err
	}

	change := &domain.PhaseChange{
		DocumentID: documentID,
		OldPhase:   lc.CurrentPhase,
		NewPhase:   lc.CurrentPhase,
	}

	// deleted is terminal for automatic evaluation.
	if lc.CurrentPhase == domain.PhaseDeleted {
		logger.Debug("Skipping %s: phase deleted is terminal", documentID)
		return change, nil
	}

	policies, err := s.lcStore.ListPolicies(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}

	dc := s.buildContext(doc, lc)
	for i := range policies {
		policy := &policies[i]
		matched, err := policy.Conditions.Evaluate(dc)
		if err != nil {
			return nil, fmt.Errorf("%w: policy %s on %s: %v",
				domain.ErrPolicyEvaluation, policy.Name, documentID, err)
		}
		if !matched {
			continue
		}

		logger.Debug("Policy %s matched %s", policy.Name, documentID)
		if err := s.applyPolicy(ctx, lc, policy, change); err != nil {
			return nil, err
		}
		break
	}

	return change, nil
}

// buildContext assembles the typed view of the document that policy
// conditions evaluate against.
func (s *LifecycleService) buildContext(doc *domain.Document, lc *domain.DocumentLifecycle) domain.DocumentContext {
	now := s.now()
	dc := domain.DocumentContext{
		DocumentID:        doc.ID,
		AgeDays:           now.Sub(doc.CreatedAt).Hours() / 24,
		Phase:             lc.CurrentPhase,
		DaysSinceArchival: -1,
		ContentLength:     len(doc.Content),
		ComplianceStatus:  lc.ComplianceStatus,
		Metadata:          doc.Metadata,
	}
	if lc.ArchivalDate != nil {
		dc.DaysSinceArchival = now.Sub(*lc.ArchivalDate).Hours() / 24
	}
	return dc
}

// applyPolicy applies one matching policy's actions, records the event
// and updates the lifecycle row.
func (s *LifecycleService) applyPolicy(
	ctx context.Context,
	lc *domain.DocumentLifecycle,
	policy *domain.LifecyclePolicy,
	change *domain.PhaseChange,
) error {
	now := s.now()
	change.PolicyName = policy.Name

	if policy.Actions.RetentionDays > 0 {
		lc.RetentionPeriodDays = policy.Actions.RetentionDays
	}
	if policy.Actions.ComplianceStatus != "" {
		lc.ComplianceStatus = policy.Actions.ComplianceStatus
	}

	newPhase := policy.Actions.SetPhase
	if newPhase != "" && newPhase != lc.CurrentPhase {
		oldPhase := lc.CurrentPhase
		s.stampPhase(lc, newPhase, now)

		event := &domain.LifecycleEvent{
			ID:          uuid.NewString(),
			DocumentID:  lc.DocumentID,
			EventType:   domain.EventPhaseTransition,
			PolicyID:    policy.ID,
			OldPhase:    oldPhase,
			NewPhase:    newPhase,
			Details:     fmt.Sprintf("policy %s (priority %d)", policy.Name, policy.Priority),
			PerformedBy: "lifecycle-manager",
			CreatedAt:   now,
		}
		if err := s.lcStore.AppendEvent(ctx, event); err != nil {
			return fmt.Errorf("append event for %s: %w", lc.DocumentID, err)
		}

		change.NewPhase = newPhase
		change.Changed = true
		s.publishTransition(ctx, lc.DocumentID, oldPhase, newPhase)
	}

	lc.AppliedPolicies = appendUnique(lc.AppliedPolicies, policy.Name)
	lc.LastReviewed = &now
	lc.UpdatedAt = now

	if err := s.lcStore.SaveLifecycle(ctx, lc); err != nil {
		return fmt.Errorf("save lifecycle for %s: %w", lc.DocumentID, err)
	}
	return nil
}

// stampPhase updates the phase and its associated dates.
func (s *LifecycleService) stampPhase(lc *domain.DocumentLifecycle, phase domain.LifecyclePhase, now time.Time) {
	lc.CurrentPhase = phase
	switch phase {
	case domain.PhaseArchived:
		lc.ArchivalDate = &now
	case domain.PhaseDeleted:
		lc.DeletionDate = &now
	}
}

// publishTransition emits the best-effort domain event.
func (s *LifecycleService) publishTransition(ctx context.Context, documentID string, from, to domain.LifecyclePhase) {
	if s.publisher == nil {
		return
	}
	event := domain.DomainEvent{
		Type:       domain.EventPhaseTransitioned,
		DocumentID: documentID,
		Detail:     map[string]any{"old_phase": string(from), "new_phase": string(to)},
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("transition event publication failed for %s: %v", documentID, err)
	}
}

// ensureLifecycle returns the document's lifecycle row, creating one
// lazily with phase active.
func (s *LifecycleService) ensureLifecycle(ctx context.Context, documentID string) (*domain.DocumentLifecycle, error) {
	lc, err := s.lcStore.GetLifecycle(ctx, documentID)
	if err == nil {
		return lc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lifecycle for %s: %w", documentID, err)
	}

	lc = &domain.DocumentLifecycle{
		DocumentID:       documentID,
		CurrentPhase:     domain.PhaseActive,
		ComplianceStatus: domain.ComplianceCompliant,
		UpdatedAt:        s.now(),
	}
	if err := s.lcStore.SaveLifecycle(ctx, lc); err != nil {
		return nil, fmt.Errorf("create lifecycle for %s: %w", documentID, err)
	}
	return lc, nil
}

// EvaluateAll runs policy evaluation across every document. A failure
// on one document is collected and the batch continues.
func (s *LifecycleService) EvaluateAll(ctx context.Context) (*domain.BatchEvaluation, error) {
	logger.Section("Lifecycle Batch Evaluation")

	docs, err := s.docStore.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	result := &domain.BatchEvaluation{}
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch evaluation: %w", err)
		}

		change, err := s.EvaluatePolicies(ctx, docs[i].ID)
		result.Evaluated++
		if err != nil {
			logger.Warn("evaluation failed for %s: %v", docs[i].ID, err)
			result.Errors = append(result.Errors, domain.EvaluationError{
				DocumentID: docs[i].ID,
				Err:        err.Error(),
			})
			continue
		}
		if change.Changed {
			result.Transitions++
			result.Changes = append(result.Changes, *change)
		}
	}

	logger.Info("Evaluated %d documents, %d transitions, %d errors",
		result.Evaluated, result.Transitions, len(result.Errors))
	return result, nil
}

// TransitionPhase is the manual override. It bypasses policies and is
// always recorded as an event with no policy id.
func (s *LifecycleService) TransitionPhase(
	ctx context.Context, documentID string, newPhase domain.LifecyclePhase, reason, performedBy string,
) error {
	if !newPhase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", domain.ErrInvalidInput, newPhase)
	}
	if _, err := s.docStore.Get(ctx, documentID); err != nil {
		return fmt.Errorf("document %s: %w", documentID, err)
	}

	lc, err := s.ensureLifecycle(ctx, documentID)
	if err != nil {
		return err
	}

	now := s.now()
	oldPhase := lc.CurrentPhase
	s.stampPhase(lc, newPhase, now)
	lc.UpdatedAt = now

	event := &domain.LifecycleEvent{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		EventType:   domain.EventManualTransition,
		OldPhase:    oldPhase,
		NewPhase:    newPhase,
		Details:     reason,
		PerformedBy: performedBy,
		CreatedAt:   now,
	}
	if err := s.lcStore.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("append event for %s: %w", documentID, err)
	}
	if err := s.lcStore.SaveLifecycle(ctx, lc); err != nil {
		return fmt.Errorf("save lifecycle for %s: %w", documentID, err)
	}

	s.publishTransition(ctx, documentID, oldPhase, newPhase)
	return nil
}

// SavePolicy validates and stores a policy.
func (s *LifecycleService) SavePolicy(ctx context.Context, policy *domain.LifecyclePolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	now := s.now()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now
	return s.lcStore.SavePolicy(ctx, policy)
}

// Policies lists stored policies, priority descending.
func (s *LifecycleService) Policies(ctx context.Context) ([]domain.LifecyclePolicy, error) {
	return s.lcStore.ListPolicies(ctx, false)
}

// History returns a document's event log, oldest first.
func (s *LifecycleService) History(ctx context.Context, documentID string) ([]domain.LifecycleEvent, error) {
	return s.lcStore.EventsForDocument(ctx, documentID)
}

// ComplianceReport summarises lifecycle state over the period.
func (s *LifecycleService) ComplianceReport(ctx context.Context, periodDays int) (*domain.ComplianceReport, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	now := s.now()

	report := &domain.ComplianceReport{
		PeriodDays:          periodDays,
		GeneratedAt:         now,
		PhaseDistribution:   make(map[domain.LifecyclePhase]int),
		PolicyEffectiveness: make(map[string]int),
	}

	lifecycles, err := s.lcStore.ListLifecycles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lifecycles: %w", err)
	}
	for i := range lifecycles {
		lc := &lifecycles[i]
		report.PhaseDistribution[lc.CurrentPhase]++
		if t := s.upcomingTransition(lc, now, periodDays); t != nil {
			report.UpcomingTransitions = append(report.UpcomingTransitions, *t)
		}
	}

	since := now.AddDate(0, 0, -periodDays)
	events, err := s.lcStore.RecentEvents(ctx, since, recentEventLimit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	report.RecentEvents = events

	policies, err := s.lcStore.ListPolicies(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	policyNames := make(map[string]string, len(policies))
	for i := range policies {
		policyNames[policies[i].ID] = policies[i].Name
	}
	for i := range events {
		if events[i].PolicyID == "" {
			continue
		}
		name, ok := policyNames[events[i].PolicyID]
		if !ok {
			name = events[i].PolicyID
		}
		report.PolicyEffectiveness[name]++
	}

	return report, nil
}

// upcomingTransition projects the next retention-driven transition for
// a lifecycle row when it falls inside the report window.
func (s *LifecycleService) upcomingTransition(
	lc *domain.DocumentLifecycle, now time.Time, periodDays int,
) *domain.UpcomingTransition {
	if lc.RetentionPeriodDays <= 0 {
		return nil
	}

	var from, to domain.LifecyclePhase
	var start time.Time

	switch lc.CurrentPhase {
	case domain.PhaseArchived:
		if lc.ArchivalDate == nil {
			return nil
		}
		from, to = domain.PhaseArchived, domain.PhasePendingDeletion
		start = *lc.ArchivalDate
	case domain.PhasePendingDeletion:
		from, to = domain.PhasePendingDeletion, domain.PhaseDeleted
		start = lc.UpdatedAt
	default:
		return nil
	}

	due := start.AddDate(0, 0, lc.RetentionPeriodDays)
	if due.After(now.AddDate(0, 0, periodDays)) {
		return nil
	}
	return &domain.UpcomingTransition{
		DocumentID: lc.DocumentID,
		FromPhase:  from,
		ToPhase:    to,
		DueDate:    due,
	}
}

// appendUnique appends name unless already present.
func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
