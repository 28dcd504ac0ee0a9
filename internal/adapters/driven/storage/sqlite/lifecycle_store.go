package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

// lifecycleStore implements driven.LifecycleStore.
type lifecycleStore struct {
	store *Store
}

var _ driven.LifecycleStore = (*lifecycleStore)(nil)

// GetLifecycle retrieves the lifecycle row for a document.
func (s *lifecycleStore) GetLifecycle(ctx context.Context, documentID string) (*domain.DocumentLifecycle, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, current_phase, retention_period_days, archival_date,
		       deletion_date, last_reviewed, compliance_status, applied_policies, updated_at
		FROM document_lifecycle WHERE document_id = ?
	`, documentID)

	var lc domain.DocumentLifecycle
	var phase string
	var archival, deletion, reviewed sql.NullTime
	var appliedJSON string
	if err := row.Scan(&lc.DocumentID, &phase, &lc.RetentionPeriodDays, &archival,
		&deletion, &reviewed, &lc.ComplianceStatus, &appliedJSON, &lc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning lifecycle: %w", err)
	}

	lc.CurrentPhase = domain.LifecyclePhase(phase)
	if archival.Valid {
		lc.ArchivalDate = &archival.Time
	}
	if deletion.Valid {
		lc.DeletionDate = &deletion.Time
	}
	if reviewed.Valid {
		lc.LastReviewed = &reviewed.Time
	}
	if err := json.Unmarshal([]byte(appliedJSON), &lc.AppliedPolicies); err != nil {
		return nil, fmt.Errorf("unmarshaling applied policies: %w", err)
	}

	return &lc, nil
}

// SaveLifecycle stores or updates a lifecycle row.
func (s *lifecycleStore) SaveLifecycle(ctx context.Context, lc *domain.DocumentLifecycle) error {
	appliedJSON, err := json.Marshal(lc.AppliedPolicies)
	if err != nil {
		return fmt.Errorf("marshalling applied policies: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO document_lifecycle
			(document_id, current_phase, retention_period_days, archival_date,
			 deletion_date, last_reviewed, compliance_status, applied_policies, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			current_phase = excluded.current_phase,
			retention_period_days = excluded.retention_period_days,
			archival_date = excluded.archival_date,
			deletion_date = excluded.deletion_date,
			last_reviewed = excluded.last_reviewed,
			compliance_status = excluded.compliance_status,
			applied_policies = excluded.applied_policies,
			updated_at = excluded.updated_at
	`, lc.DocumentID, string(lc.CurrentPhase), lc.RetentionPeriodDays,
		nullTime(lc.ArchivalDate), nullTime(lc.DeletionDate), nullTime(lc.LastReviewed),
		lc.ComplianceStatus, string(appliedJSON), lc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving lifecycle: %w", err)
	}
	return nil
}

// ListLifecycles returns every lifecycle row.
func (s *lifecycleStore) ListLifecycles(ctx context.Context) ([]domain.DocumentLifecycle, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, current_phase, retention_period_days, archival_date,
		       deletion_date, last_reviewed, compliance_status, applied_policies, updated_at
		FROM document_lifecycle
	`)
	if err != nil {
		return nil, fmt.Errorf("querying lifecycles: %w", err)
	}
	defer rows.Close()

	var lifecycles []domain.DocumentLifecycle //nolint:prealloc // size unknown from query
	for rows.Next() {
		var lc domain.DocumentLifecycle
		var phase string
		var archival, deletion, reviewed sql.NullTime
		var appliedJSON string
		if err := rows.Scan(&lc.DocumentID, &phase, &lc.RetentionPeriodDays, &archival,
			&deletion, &reviewed, &lc.ComplianceStatus, &appliedJSON, &lc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning lifecycle: %w", err)
		}

		lc.CurrentPhase = domain.LifecyclePhase(phase)
		if archival.Valid {
			lc.ArchivalDate = &archival.Time
		}
		if deletion.Valid {
			lc.DeletionDate = &deletion.Time
		}
		if reviewed.Valid {
			lc.LastReviewed = &reviewed.Time
		}
		if err := json.Unmarshal([]byte(appliedJSON), &lc.AppliedPolicies); err != nil {
			return nil, fmt.Errorf("unmarshaling applied policies: %w", err)
		}
		lifecycles = append(lifecycles, lc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lifecycles: %w", err)
	}

	return lifecycles, nil
}

// SavePolicy stores or updates a policy, keyed on name.
func (s *lifecycleStore) SavePolicy(ctx context.Context, policy *domain.LifecyclePolicy) error {
	conditionsJSON, err := json.Marshal(policy.Conditions)
	if err != nil {
		return fmt.Errorf("marshalling conditions: %w", err)
	}
	actionsJSON, err := json.Marshal(policy.Actions)
	if err != nil {
		return fmt.Errorf("marshalling actions: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO lifecycle_policies
			(id, name, conditions, actions, priority, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			conditions = excluded.conditions,
			actions = excluded.actions,
			priority = excluded.priority,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, policy.ID, policy.Name, string(conditionsJSON), string(actionsJSON),
		policy.Priority, boolToInt(policy.Enabled), policy.CreatedAt, policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving policy: %w", err)
	}

	// On conflict the stored id wins; read it back for the caller.
	row := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM lifecycle_policies WHERE name = ?", policy.Name)
	if err := row.Scan(&policy.ID); err != nil {
		return fmt.Errorf("reading back policy: %w", err)
	}
	return nil
}

// DeletePolicy removes a policy by name.
func (s *lifecycleStore) DeletePolicy(ctx context.Context, name string) error {
	result, err := s.store.db.ExecContext(ctx,
		"DELETE FROM lifecycle_policies WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPolicies returns policies ordered by priority descending.
func (s *lifecycleStore) ListPolicies(ctx context.Context, enabledOnly bool) ([]domain.LifecyclePolicy, error) {
	query := `
		SELECT id, name, conditions, actions, priority, enabled, created_at, updated_at
		FROM lifecycle_policies`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY priority DESC, name"

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	var policies []domain.LifecyclePolicy //nolint:prealloc // size unknown from query
	for rows.Next() {
		var policy domain.LifecyclePolicy
		var conditionsJSON, actionsJSON string
		var enabled int
		if err := rows.Scan(&policy.ID, &policy.Name, &conditionsJSON, &actionsJSON,
			&policy.Priority, &enabled, &policy.CreatedAt, &policy.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}

		if err := json.Unmarshal([]byte(conditionsJSON), &policy.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshaling conditions: %w", err)
		}
		if err := json.Unmarshal([]byte(actionsJSON), &policy.Actions); err != nil {
			return nil, fmt.Errorf("unmarshaling actions: %w", err)
		}
		policy.Enabled = enabled != 0
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating policies: %w", err)
	}

	return policies, nil
}

// AppendEvent appends to the audit log.
func (s *lifecycleStore) AppendEvent(ctx context.Context, event *domain.LifecycleEvent) error {
	var policyID any
	if event.PolicyID != "" {
		policyID = event.PolicyID
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO lifecycle_events
			(id, document_id, event_type, policy_id, old_phase, new_phase,
			 details, performed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.DocumentID, event.EventType, policyID,
		string(event.OldPhase), string(event.NewPhase),
		event.Details, event.PerformedBy, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// RecentEvents returns events created at or after since, newest first.
func (s *lifecycleStore) RecentEvents(ctx context.Context, since time.Time, limit int) ([]domain.LifecycleEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, event_type, policy_id, old_phase, new_phase,
		       details, performed_by, created_at
		FROM lifecycle_events
		WHERE created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// EventsForDocument returns a document's event history, oldest first.
func (s *lifecycleStore) EventsForDocument(ctx context.Context, documentID string) ([]domain.LifecycleEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, event_type, policy_id, old_phase, new_phase,
		       details, performed_by, created_at
		FROM lifecycle_events
		WHERE document_id = ?
		ORDER BY created_at ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents scans multiple event rows.
func scanEvents(rows *sql.Rows) ([]domain.LifecycleEvent, error) {
	var events []domain.LifecycleEvent //nolint:prealloc // size unknown from query
	for rows.Next() {
		var event domain.LifecycleEvent
		var policyID sql.NullString
		var oldPhase, newPhase string
		if err := rows.Scan(&event.ID, &event.DocumentID, &event.EventType, &policyID,
			&oldPhase, &newPhase, &event.Details, &event.PerformedBy, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		event.PolicyID = policyID.String
		event.OldPhase = domain.LifecyclePhase(oldPhase)
		event.NewPhase = domain.LifecyclePhase(newPhase)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// nullTime converts an optional time to its SQL representation.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
