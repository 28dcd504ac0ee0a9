package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

func TestLifecycleStore_SaveAndGetLifecycle(t *testing.T) {
	store := NewLifecycleStore()
	ctx := context.Background()

	archived := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	lc := &domain.DocumentLifecycle{
		DocumentID:          "doc-1",
		CurrentPhase:        domain.PhaseArchived,
		RetentionPeriodDays: 365,
		ArchivalDate:        &archived,
		ComplianceStatus:    domain.ComplianceCompliant,
		AppliedPolicies:     []string{"archive-stale"},
	}
	require.NoError(t, store.SaveLifecycle(ctx, lc))

	got, err := store.GetLifecycle(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseArchived, got.CurrentPhase)
	assert.Equal(t, []string{"archive-stale"}, got.AppliedPolicies)
	require.NotNil(t, got.ArchivalDate)
	assert.True(t, got.ArchivalDate.Equal(archived))
	assert.Nil(t, got.DeletionDate)

	_, err = store.GetLifecycle(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycleStore_SavePolicyUpsertsByName(t *testing.T) {
	store := NewLifecycleStore()
	ctx := context.Background()

	first := &domain.LifecyclePolicy{ID: "pol-1", Name: "archive-stale", Priority: 1, Enabled: true}
	require.NoError(t, store.SavePolicy(ctx, first))

	second := &domain.LifecyclePolicy{ID: "pol-other", Name: "archive-stale", Priority: 9, Enabled: false}
	require.NoError(t, store.SavePolicy(ctx, second))

	// The stored identity survives the update.
	assert.Equal(t, "pol-1", second.ID)

	policies, err := store.ListPolicies(ctx, false)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, 9, policies[0].Priority)

	enabled, err := store.ListPolicies(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, enabled)
}

func TestLifecycleStore_ListPoliciesOrdering(t *testing.T) {
	store := NewLifecycleStore()
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, &domain.LifecyclePolicy{Name: "b-low", Priority: 1, Enabled: true}))
	require.NoError(t, store.SavePolicy(ctx, &domain.LifecyclePolicy{Name: "a-low", Priority: 1, Enabled: true}))
	require.NoError(t, store.SavePolicy(ctx, &domain.LifecyclePolicy{Name: "high", Priority: 10, Enabled: true}))

	policies, err := store.ListPolicies(ctx, false)
	require.NoError(t, err)
	require.Len(t, policies, 3)
	assert.Equal(t, "high", policies[0].Name)
	assert.Equal(t, "a-low", policies[1].Name)
	assert.Equal(t, "b-low", policies[2].Name)
}

func TestLifecycleStore_DeletePolicy(t *testing.T) {
	store := NewLifecycleStore()
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, &domain.LifecyclePolicy{Name: "archive-stale"}))
	require.NoError(t, store.DeletePolicy(ctx, "archive-stale"))
	assert.ErrorIs(t, store.DeletePolicy(ctx, "archive-stale"), domain.ErrNotFound)
}

func TestLifecycleStore_Events(t *testing.T) {
	store := NewLifecycleStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendEvent(ctx, &domain.LifecycleEvent{
			ID:         fmt.Sprintf("event-%d", i),
			DocumentID: "doc-1",
			EventType:  domain.EventPhaseTransition,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	history, err := store.EventsForDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].CreatedAt.Before(history[2].CreatedAt))

	recent, err := store.RecentEvents(ctx, base.Add(time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))

	limited, err := store.RecentEvents(ctx, base, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
