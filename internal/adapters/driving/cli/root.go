// Package cli implements the docvault command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-labs/docvault/internal/adapters/driven/config/file"
	"github.com/chronicle-labs/docvault/internal/adapters/driven/events"
	"github.com/chronicle-labs/docvault/internal/adapters/driven/storage/sqlite"
	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
	"github.com/chronicle-labs/docvault/internal/core/services"
	"github.com/chronicle-labs/docvault/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	flagDataDir   string
	flagConfigDir string
	flagVerbose   bool
)

// Services wired in initServices. Commands nil-check before use.
var (
	repositoryService driving.RepositoryService
	versionService    driving.VersionService
	graphService      driving.GraphService
	lifecycleService  driving.LifecycleService
	searchService     driving.SearchService

	configStore *file.ConfigStore
	store       *sqlite.Store
	appConfig   *domain.Config
)

var rootCmd = &cobra.Command{
	Use:   "docvault",
	Short: "Content-addressed document store",
	Long: `docvault is a content-addressed document store with version
history, a typed relationship graph, policy-driven lifecycle
management and full-text search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return initServices(cmd.Context())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "database directory (default ~/.docvault/data)")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.docvault)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
}

// initServices builds the storage layer and wires the core services.
func initServices(ctx context.Context) error {
	var err error
	configStore, err = file.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	appConfig, err = configStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = appConfig.DataDir
	}

	store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("store opened at %s", store.Path())

	publisher, err := events.NewLogPublisher(store.Path() + ".events")
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}

	graph := services.NewGraphService(store.RelationshipStore(), store.TagStore(), store.DocumentStore())
	repo := services.NewRepositoryService(store.DocumentStore(), store.SearchIndex(), graph, publisher)

	repositoryService = repo
	versionService = services.NewVersionService(store.DocumentStore(), repo)
	graphService = graph
	lifecycleService = services.NewLifecycleService(store.LifecycleStore(), store.DocumentStore(), publisher)
	searchService = services.NewSearchService(store.SearchIndex(), store.DocumentStore())

	return seedPolicies(ctx)
}

// seedPolicies stores policies declared in the config file. Existing
// policies with the same name are overwritten; policies created only
// in the database are untouched.
func seedPolicies(ctx context.Context) error {
	for i := range appConfig.Policies {
		policy := appConfig.Policies[i]
		if err := lifecycleService.SavePolicy(ctx, &policy); err != nil {
			return fmt.Errorf("seeding policy %q: %w", policy.Name, err)
		}
		logger.Debug("seeded policy %s (priority %d)", policy.Name, policy.Priority)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
