package domain

import (
	"fmt"
	"strings"
	"time"
)

// LifecyclePhase is a named stage in a document's retention journey.
type LifecyclePhase string

// Lifecycle phases. A document starts active; deleted is terminal for
// automatic policy evaluation (manual override remains possible).
const (
	PhaseActive          LifecyclePhase = "active"
	PhaseArchived        LifecyclePhase = "archived"
	PhasePendingDeletion LifecyclePhase = "pending_deletion"
	PhaseDeleted         LifecyclePhase = "deleted"
)

// Valid reports whether the phase is one of the known values.
func (p LifecyclePhase) Valid() bool {
	switch p {
	case PhaseActive, PhaseArchived, PhasePendingDeletion, PhaseDeleted:
		return true
	}
	return false
}

// Compliance status values.
const (
	ComplianceCompliant   = "compliant"
	ComplianceUnderReview = "under_review"
	ComplianceViolation   = "violation"
)

// Comparison operators for policy conditions.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
	OpExists   = "exists"
)

// Condition fields resolvable against a DocumentContext. Metadata keys
// are addressed as "metadata.<key>".
const (
	FieldAgeDays           = "age_days"
	FieldPhase             = "phase"
	FieldDaysSinceArchival = "days_since_archival"
	FieldContentLength     = "content_length"
	FieldComplianceStatus  = "compliance_status"
)

// PolicyCondition is a small expression tree over document attributes.
// Exactly one of the comparison form (Field/Op/Value) or the
// combinators (All, Any, Not) should be set.
type PolicyCondition struct {
	Field string `json:"field,omitempty" toml:"field,omitempty"`
	Op    string `json:"op,omitempty"    toml:"op,omitempty"`
	Value any    `json:"value,omitempty" toml:"value,omitempty"`

	All []PolicyCondition `json:"all,omitempty" toml:"all,omitempty"`
	Any []PolicyCondition `json:"any,omitempty" toml:"any,omitempty"`
	Not *PolicyCondition  `json:"not,omitempty" toml:"not,omitempty"`
}

// DocumentContext is the typed view of a document that policy
// conditions evaluate against.
type DocumentContext struct {
	DocumentID        string
	AgeDays           float64
	Phase             LifecyclePhase
	DaysSinceArchival float64 // negative when never archived
	ContentLength     int
	ComplianceStatus  string
	Metadata          Metadata
}

// Evaluate resolves the condition tree against the context. A malformed
// condition (unknown field or operator, empty node) is an error, not a
// silent false.
func (c PolicyCondition) Evaluate(dc DocumentContext) (bool, error) {
	switch {
	case len(c.All) > 0:
		for _, sub := range c.All {
			ok, err := sub.Evaluate(dc)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case len(c.Any) > 0:
		for _, sub := range c.Any {
			ok, err := sub.Evaluate(dc)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case c.Not != nil:
		ok, err := c.Not.Evaluate(dc)
		return !ok, err

	case c.Field != "":
		return c.compare(dc)

	default:
		return false, fmt.Errorf("%w: empty policy condition", ErrInvalidInput)
	}
}

// compare evaluates the leaf comparison form.
func (c PolicyCondition) compare(dc DocumentContext) (bool, error) {
	actual, found, err := dc.resolve(c.Field)
	if err != nil {
		return false, err
	}

	if c.Op == OpExists {
		return found, nil
	}
	if !found {
		return false, nil
	}

	switch c.Op {
	case OpEq:
		return looseEqual(actual, c.Value), nil
	case OpNe:
		return !looseEqual(actual, c.Value), nil
	case OpGt, OpGte, OpLt, OpLte:
		av, aok := asFloat(actual)
		ev, eok := asFloat(c.Value)
		if !aok || !eok {
			return false, fmt.Errorf("%w: operator %s needs numeric operands for field %s",
				ErrInvalidInput, c.Op, c.Field)
		}
		switch c.Op {
		case OpGt:
			return av > ev, nil
		case OpGte:
			return av >= ev, nil
		case OpLt:
			return av < ev, nil
		default:
			return av <= ev, nil
		}
	case OpContains:
		as, aok := actual.(string)
		es, eok := c.Value.(string)
		if !aok || !eok {
			return false, fmt.Errorf("%w: operator contains needs string operands for field %s",
				ErrInvalidInput, c.Field)
		}
		return strings.Contains(as, es), nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidInput, c.Op)
	}
}

// resolve looks up a condition field in the context. The second return
// reports whether the field has a value at all.
func (dc DocumentContext) resolve(field string) (any, bool, error) {
	switch field {
	case FieldAgeDays:
		return dc.AgeDays, true, nil
	case FieldPhase:
		return string(dc.Phase), true, nil
	case FieldDaysSinceArchival:
		if dc.DaysSinceArchival < 0 {
			return nil, false, nil
		}
		return dc.DaysSinceArchival, true, nil
	case FieldContentLength:
		return dc.ContentLength, true, nil
	case FieldComplianceStatus:
		return dc.ComplianceStatus, true, nil
	}

	if key, ok := strings.CutPrefix(field, "metadata."); ok {
		v, found := dc.Metadata[key]
		return v, found, nil
	}

	return nil, false, fmt.Errorf("%w: unknown condition field %q", ErrInvalidInput, field)
}

func looseEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// PolicyAction is the structured effect of a matching policy.
type PolicyAction struct {
	// SetPhase transitions the document to the named phase when set.
	SetPhase LifecyclePhase `json:"set_phase,omitempty" toml:"set_phase,omitempty"`

	// RetentionDays overrides the document's retention period when > 0.
	RetentionDays int `json:"retention_days,omitempty" toml:"retention_days,omitempty"`

	// ComplianceStatus updates the compliance flag when set.
	ComplianceStatus string `json:"compliance_status,omitempty" toml:"compliance_status,omitempty"`
}

// LifecyclePolicy is a declarative rule: when Conditions match a
// document, Actions are applied. Policies are evaluated highest
// priority first; the first match wins.
type LifecyclePolicy struct {
	ID         string          `json:"id"         toml:"-"`
	Name       string          `json:"name"       toml:"name"`
	Conditions PolicyCondition `json:"conditions" toml:"conditions"`
	Actions    PolicyAction    `json:"actions"    toml:"actions"`
	Priority   int             `json:"priority"   toml:"priority"`
	Enabled    bool            `json:"enabled"    toml:"enabled"`
	CreatedAt  time.Time       `json:"created_at" toml:"-"`
	UpdatedAt  time.Time       `json:"updated_at" toml:"-"`
}

// Validate checks the policy is well formed.
func (p *LifecyclePolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: policy name is required", ErrInvalidInput)
	}
	if p.Actions.SetPhase != "" && !p.Actions.SetPhase.Valid() {
		return fmt.Errorf("%w: unknown phase %q in policy %s", ErrInvalidInput, p.Actions.SetPhase, p.Name)
	}
	return nil
}

// DocumentLifecycle is the 1:1 lifecycle row for a document. Mutated
// only by the lifecycle manager.
type DocumentLifecycle struct {
	DocumentID          string
	CurrentPhase        LifecyclePhase
	RetentionPeriodDays int
	ArchivalDate        *time.Time
	DeletionDate        *time.Time
	LastReviewed        *time.Time
	ComplianceStatus    string
	AppliedPolicies     []string
	UpdatedAt           time.Time
}

// Lifecycle event types recorded in the append-only audit log.
const (
	EventPhaseTransition  = "phase_transition"
	EventPolicyApplied    = "policy_applied"
	EventManualTransition = "manual_transition"
)

// LifecycleEvent is one append-only audit record. Never mutated or
// deleted.
type LifecycleEvent struct {
	ID          string
	DocumentID  string
	EventType   string
	PolicyID    string // empty for manual transitions
	OldPhase    LifecyclePhase
	NewPhase    LifecyclePhase
	Details     string
	PerformedBy string
	CreatedAt   time.Time
}

// PhaseChange reports the outcome of a single-document evaluation.
type PhaseChange struct {
	DocumentID string
	PolicyName string
	OldPhase   LifecyclePhase
	NewPhase   LifecyclePhase
	Changed    bool
}

// EvaluationError is a per-document failure inside a batch run.
type EvaluationError struct {
	DocumentID string
	Err        string
}

// BatchEvaluation summarises a batch policy run. Per-document failures
// are collected here rather than aborting the batch.
type BatchEvaluation struct {
	Evaluated   int
	Transitions int
	Changes     []PhaseChange
	Errors      []EvaluationError
}

// UpcomingTransition is a projected phase change within a report window.
type UpcomingTransition struct {
	DocumentID string
	FromPhase  LifecyclePhase
	ToPhase    LifecyclePhase
	DueDate    time.Time
}

// ComplianceReport summarises lifecycle state across the store.
type ComplianceReport struct {
	PeriodDays          int
	GeneratedAt         time.Time
	PhaseDistribution   map[LifecyclePhase]int
	UpcomingTransitions []UpcomingTransition
	RecentEvents        []LifecycleEvent
	// PolicyEffectiveness counts transitions produced per policy name
	// within the period.
	PolicyEffectiveness map[string]int
}
