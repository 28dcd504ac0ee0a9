package driven

import (
	"context"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

// ConfigStore loads and saves the file-backed configuration, including
// declarative lifecycle policy definitions.
type ConfigStore interface {
	// Load reads the configuration, returning defaults when no file
	// exists yet.
	Load(ctx context.Context) (*domain.Config, error)

	// Save writes the configuration.
	Save(ctx context.Context, cfg *domain.Config) error

	// Watch invokes onChange whenever the underlying file changes,
	// until ctx is cancelled.
	Watch(ctx context.Context, onChange func()) error
}
