package driving

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// LifecycleService drives the per-document phase state machine.
// Policies are the sole source of transition legality; the engine does
// not hard-code forward-only transitions.
type LifecycleService interface {
	// EvaluatePolicies evaluates enabled policies against one document,
	// highest priority first, applying the first match. A document with
	// no lifecycle row gets one lazily, phase active. Documents in
	// phase deleted are skipped by automatic evaluation.
	EvaluatePolicies(ctx context.Context, documentID string) (*domain.PhaseChange, error)

	// EvaluateAll runs EvaluatePolicies across every document,
	// isolating per-document failures into the result.
	EvaluateAll(ctx context.Context) (*domain.BatchEvaluation, error)

	// TransitionPhase is the manual override. Always logged as an
	// event with no policy id.
	TransitionPhase(ctx context.Context, documentID string, newPhase domain.LifecyclePhase, reason, performedBy string) error

	// SavePolicy validates and stores a policy.
	SavePolicy(ctx context.Context, policy *domain.LifecyclePolicy) error

	// Policies lists stored policies, priority descending.
	Policies(ctx context.Context) ([]domain.LifecyclePolicy, error)

	// History returns a document's event log, oldest first.
	History(ctx context.Context, documentID string) ([]domain.LifecycleEvent, error)

	// ComplianceReport summarises lifecycle state over the period.
	ComplianceReport(ctx context.Context, periodDays int) (*domain.ComplianceReport, error)
}
