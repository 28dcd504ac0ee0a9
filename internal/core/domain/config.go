package domain

// Config is the file-backed configuration for the store. Policy
// definitions declared here are seeded into the policy table at
// startup and re-seeded when the file changes.
type Config struct {
	// DataDir overrides the default database directory.
	DataDir string `toml:"data_dir"`

	// KeepVersions is the default retention floor for version pruning.
	KeepVersions int `toml:"keep_versions"`

	// Policies are declarative lifecycle policies.
	Policies []LifecyclePolicy `toml:"policies"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		KeepVersions: 10,
	}
}
