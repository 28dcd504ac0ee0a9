package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

func setupTestConfigStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "docvault-config-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestConfigStore_LoadDefaultsWhenMissing(t *testing.T) {
	store, _ := setupTestConfigStore(t)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestConfigStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := setupTestConfigStore(t)
	ctx := context.Background()

	cfg := &domain.Config{
		DataDir:      "/tmp/docvault-data",
		KeepVersions: 25,
		Policies: []domain.LifecyclePolicy{
			{
				Name: "archive-stale",
				Conditions: domain.PolicyCondition{
					Field: domain.FieldAgeDays,
					Op:    domain.OpGt,
					Value: float64(90),
				},
				Actions: domain.PolicyAction{
					SetPhase:      domain.PhaseArchived,
					RetentionDays: 365,
				},
				Priority: 5,
				Enabled:  true,
			},
		},
	}
	require.NoError(t, store.Save(ctx, cfg))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docvault-data", loaded.DataDir)
	assert.Equal(t, 25, loaded.KeepVersions)
	require.Len(t, loaded.Policies, 1)

	policy := loaded.Policies[0]
	assert.Equal(t, "archive-stale", policy.Name)
	assert.Equal(t, domain.FieldAgeDays, policy.Conditions.Field)
	assert.Equal(t, domain.OpGt, policy.Conditions.Op)
	assert.Equal(t, float64(90), policy.Conditions.Value)
	assert.Equal(t, domain.PhaseArchived, policy.Actions.SetPhase)
	assert.Equal(t, 365, policy.Actions.RetentionDays)
	assert.Equal(t, 5, policy.Priority)
	assert.True(t, policy.Enabled)
}

func TestConfigStore_SaveRestrictsPermissions(t *testing.T) {
	store, dir := setupTestConfigStore(t)

	require.NoError(t, store.Save(context.Background(), domain.DefaultConfig()))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_LoadClampsKeepVersions(t *testing.T) {
	store, dir := setupTestConfigStore(t)

	raw := []byte("data_dir = \"/tmp/d\"\nkeep_versions = 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), raw, 0600))

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig().KeepVersions, cfg.KeepVersions)
}

func TestConfigStore_LoadRejectsMalformedFile(t *testing.T) {
	store, dir := setupTestConfigStore(t)

	raw := []byte("keep_versions = not-a-number\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), raw, 0600))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestConfigStore_Path(t *testing.T) {
	store, dir := setupTestConfigStore(t)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
