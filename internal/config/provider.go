// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions configures a single Load call.
	LoadOptions struct {
		// ConfigFilePath, when set, is the only file consulted. It must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the platform config directory.
		ConfigDirPath string
		// Overrides are applied last, keyed by config key (e.g. "lib_dir",
		// "s3.region"). Nil values are ignored.
		Overrides map[string]any
	}

	// Provider loads configuration.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider returns the default Provider backed by files and the environment.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load implements Provider.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// Load is a shorthand for NewProvider().Load.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return NewProvider().Load(ctx, opts)
}

// LoadWithSource is like Load and also reports the file that was read,
// or "" when only defaults and the environment applied.
func LoadWithSource(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
