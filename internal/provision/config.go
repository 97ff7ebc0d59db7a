// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cefkit/cefkit/internal/buildhook"
	"github.com/cefkit/cefkit/internal/config"
	"github.com/cefkit/cefkit/internal/source"
)

type (
	// Config holds the settings of a provisioning run that are not part of
	// the identity or the destination set.
	Config struct {
		// ArchiveDir caches downloaded archives. Empty disables the cache.
		ArchiveDir string

		// SentinelPath is the file recording the last successful run.
		// Empty means every run provisions.
		SentinelPath string

		// BaseURL is the distribution index, http(s):// or s3://.
		BaseURL string

		// ArchiveSuffix is the compression the source serves archives in.
		// Empty means the published .tar.bz2.
		ArchiveSuffix string

		// VerifyChecksum compares fetched archives against the published
		// .sha1 sidecar.
		VerifyChecksum bool

		// S3 configures s3:// base URLs.
		S3 source.S3Config

		// Force bypasses the sentinel guard.
		Force bool

		// WrapperScript is the macOS wrapper build script source. Empty
		// selects the built-in CMake script.
		WrapperScript string

		// SkipWrapperBuild disables the macOS wrapper build.
		SkipWrapperBuild bool

		// Fetcher replaces the fetcher selected from BaseURL.
		Fetcher source.Fetcher

		// HookStdout and HookStderr receive the wrapper build output.
		HookStdout io.Writer
		HookStderr io.Writer

		Logger *log.Logger
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    config.DefaultConfig().BaseURL.String(),
		HookStdout: os.Stderr,
		HookStderr: os.Stderr,
		Logger:     log.New(io.Discard),
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithArchiveDir sets the archive cache directory.
func WithArchiveDir(dir string) Option {
	return func(c *Config) { c.ArchiveDir = dir }
}

// WithSentinel sets the sentinel file path.
func WithSentinel(path string) Option {
	return func(c *Config) { c.SentinelPath = path }
}

// WithBaseURL sets the distribution base URL.
func WithBaseURL(base string) Option {
	return func(c *Config) {
		if base != "" {
			c.BaseURL = base
		}
	}
}

// WithArchiveSuffix selects the archive compression served by the source.
func WithArchiveSuffix(suffix string) Option {
	return func(c *Config) { c.ArchiveSuffix = suffix }
}

// WithChecksum enables SHA-1 verification of fetched archives.
func WithChecksum(verify bool) Option {
	return func(c *Config) { c.VerifyChecksum = verify }
}

// WithS3Config sets the S3 connection settings.
func WithS3Config(cfg source.S3Config) Option {
	return func(c *Config) { c.S3 = cfg }
}

// WithForce bypasses the sentinel guard.
func WithForce(force bool) Option {
	return func(c *Config) { c.Force = force }
}

// WithWrapperScript sets the macOS wrapper build script source.
func WithWrapperScript(script string) Option {
	return func(c *Config) { c.WrapperScript = script }
}

// WithoutWrapperBuild disables the macOS wrapper build.
func WithoutWrapperBuild() Option {
	return func(c *Config) { c.SkipWrapperBuild = true }
}

// WithFetcher overrides fetcher selection.
func WithFetcher(f source.Fetcher) Option {
	return func(c *Config) { c.Fetcher = f }
}

// WithHookOutput redirects the wrapper build output.
func WithHookOutput(stdout, stderr io.Writer) Option {
	return func(c *Config) {
		c.HookStdout = stdout
		c.HookStderr = stderr
	}
}

// WithLogger sets the logger passed to every stage.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// OptionsFromConfig translates loaded configuration into pipeline options.
// The wrapper script, when configured, is read here.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	opts := []Option{
		WithArchiveDir(cfg.ArchiveDir.String()),
		WithSentinel(cfg.UnpackSentinel.String()),
		WithBaseURL(cfg.BaseURL.String()),
		WithArchiveSuffix(cfg.ArchiveSuffix),
		WithChecksum(cfg.VerifyChecksum),
		WithS3Config(cfg.S3.Source()),
	}
	if cfg.WrapperScript != "" {
		script, err := buildhook.LoadScript(cfg.WrapperScript.String())
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithWrapperScript(script))
	}
	return opts, nil
}
