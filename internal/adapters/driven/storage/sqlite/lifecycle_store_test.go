package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

func newTestPolicy(name string, priority int) *domain.LifecyclePolicy {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.LifecyclePolicy{
		ID:   uuid.New().String(),
		Name: name,
		Conditions: domain.PolicyCondition{
			Field: domain.FieldAgeDays,
			Op:    domain.OpGt,
			Value: 30.0,
		},
		Actions: domain.PolicyAction{
			SetPhase: domain.PhaseArchived,
		},
		Priority:  priority,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ==================== Lifecycle Row Tests ====================

func TestLifecycleStore_SaveAndGetLifecycle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	createTestDocument(t, store, "doc-1", "content")

	now := time.Now().UTC().Truncate(time.Second)
	archival := now.Add(24 * time.Hour)
	lc := &domain.DocumentLifecycle{
		DocumentID:          "doc-1",
		CurrentPhase:        domain.PhaseActive,
		RetentionPeriodDays: 90,
		ArchivalDate:        &archival,
		ComplianceStatus:    domain.ComplianceCompliant,
		AppliedPolicies:     []string{"age-policy"},
		UpdatedAt:           now,
	}
	require.NoError(t, lcs.SaveLifecycle(ctx, lc))

	got, err := lcs.GetLifecycle(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, got.CurrentPhase)
	assert.Equal(t, 90, got.RetentionPeriodDays)
	require.NotNil(t, got.ArchivalDate)
	assert.Equal(t, archival.Unix(), got.ArchivalDate.Unix())
	assert.Nil(t, got.DeletionDate)
	assert.Equal(t, []string{"age-policy"}, got.AppliedPolicies)
}

func TestLifecycleStore_GetLifecycleNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.LifecycleStore().GetLifecycle(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycleStore_SaveLifecycleUpserts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	createTestDocument(t, store, "doc-1", "content")

	now := time.Now().UTC().Truncate(time.Second)
	lc := &domain.DocumentLifecycle{
		DocumentID:   "doc-1",
		CurrentPhase: domain.PhaseActive,
		UpdatedAt:    now,
	}
	require.NoError(t, lcs.SaveLifecycle(ctx, lc))

	lc.CurrentPhase = domain.PhaseArchived
	require.NoError(t, lcs.SaveLifecycle(ctx, lc))

	got, err := lcs.GetLifecycle(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseArchived, got.CurrentPhase)

	all, err := lcs.ListLifecycles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// ==================== Policy Tests ====================

func TestLifecycleStore_SaveAndListPolicies(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	low := newTestPolicy("low-priority", 1)
	high := newTestPolicy("high-priority", 10)
	disabled := newTestPolicy("disabled", 5)
	disabled.Enabled = false

	require.NoError(t, lcs.SavePolicy(ctx, low))
	require.NoError(t, lcs.SavePolicy(ctx, high))
	require.NoError(t, lcs.SavePolicy(ctx, disabled))

	all, err := lcs.ListPolicies(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "high-priority", all[0].Name)
	assert.Equal(t, "low-priority", all[2].Name)

	enabled, err := lcs.ListPolicies(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	for _, policy := range enabled {
		assert.True(t, policy.Enabled)
	}

	// Conditions round-trip through JSON.
	assert.Equal(t, domain.FieldAgeDays, all[0].Conditions.Field)
	assert.Equal(t, domain.PhaseArchived, all[0].Actions.SetPhase)
}

func TestLifecycleStore_SavePolicyUpsertsByName(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	first := newTestPolicy("retention", 1)
	require.NoError(t, lcs.SavePolicy(ctx, first))

	second := newTestPolicy("retention", 7)
	require.NoError(t, lcs.SavePolicy(ctx, second))

	// The stored id is stable across upserts.
	assert.Equal(t, first.ID, second.ID)

	all, err := lcs.ListPolicies(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 7, all[0].Priority)
}

func TestLifecycleStore_DeletePolicy(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	require.NoError(t, lcs.SavePolicy(ctx, newTestPolicy("doomed", 1)))
	require.NoError(t, lcs.DeletePolicy(ctx, "doomed"))
	assert.ErrorIs(t, lcs.DeletePolicy(ctx, "doomed"), domain.ErrNotFound)
}

// ==================== Event Log Tests ====================

func TestLifecycleStore_EventsAppendOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	createTestDocument(t, store, "doc-1", "content")

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		event := &domain.LifecycleEvent{
			ID:         uuid.New().String(),
			DocumentID: "doc-1",
			EventType:  domain.EventPhaseTransition,
			OldPhase:   domain.PhaseActive,
			NewPhase:   domain.PhaseArchived,
			Details:    "archival",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, lcs.AppendEvent(ctx, event))
	}

	history, err := lcs.EventsForDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Oldest first.
	assert.True(t, history[0].CreatedAt.Before(history[2].CreatedAt))
	assert.Empty(t, history[0].PolicyID)
}

func TestLifecycleStore_RecentEvents(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	lcs := store.LifecycleStore()

	createTestDocument(t, store, "doc-1", "content")

	base := time.Now().UTC().Truncate(time.Second)
	old := &domain.LifecycleEvent{
		ID:         uuid.New().String(),
		DocumentID: "doc-1",
		EventType:  domain.EventManualTransition,
		OldPhase:   domain.PhaseActive,
		NewPhase:   domain.PhaseArchived,
		CreatedAt:  base.Add(-48 * time.Hour),
	}
	recent := &domain.LifecycleEvent{
		ID:         uuid.New().String(),
		DocumentID: "doc-1",
		EventType:  domain.EventManualTransition,
		OldPhase:   domain.PhaseArchived,
		NewPhase:   domain.PhaseActive,
		CreatedAt:  base,
	}
	require.NoError(t, lcs.AppendEvent(ctx, old))
	require.NoError(t, lcs.AppendEvent(ctx, recent))

	events, err := lcs.RecentEvents(ctx, base.Add(-24*time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, recent.ID, events[0].ID)
}
