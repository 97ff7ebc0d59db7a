// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cefkit/cefkit/internal/linkflags"
	"github.com/cefkit/cefkit/internal/rewrite"
	"github.com/cefkit/cefkit/internal/source"
	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

var (
	// ErrInvalidDirPath is the sentinel error wrapped by InvalidDirPathError.
	ErrInvalidDirPath = errors.New("invalid directory path")
	// ErrInvalidBaseURL is the sentinel error wrapped by InvalidBaseURLError.
	ErrInvalidBaseURL = errors.New("invalid base URL")
	// ErrInvalidCapability is the sentinel error wrapped by InvalidCapabilityError.
	ErrInvalidCapability = errors.New("invalid capability")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// DirPath is a filesystem path taken from configuration.
	// The zero value is valid and means "unset". Non-zero values must not be
	// whitespace-only.
	DirPath string

	// InvalidDirPathError is returned when a DirPath is whitespace-only.
	InvalidDirPathError struct {
		Field string
		Value DirPath
	}

	// BaseURL is the location archives are fetched from: an http(s) URL or
	// an s3://bucket/prefix mirror.
	BaseURL string

	// InvalidBaseURLError is returned when a BaseURL cannot be used.
	InvalidBaseURLError struct {
		Value  BaseURL
		Reason string
	}

	// InvalidCapabilityError is returned for an unknown link capability.
	InvalidCapabilityError struct {
		Value string
	}

	// InvalidConfigError collects every field error found by Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// S3Config holds credentials and endpoint settings for s3:// base URLs.
	S3Config struct {
		Region       string `json:"region" mapstructure:"region" toml:"region,omitempty"`
		Endpoint     string `json:"endpoint" mapstructure:"endpoint" toml:"endpoint,omitempty"`
		AccessKey    string `json:"access_key" mapstructure:"access_key" toml:"access_key,omitempty"`
		SecretKey    string `json:"secret_key" mapstructure:"secret_key" toml:"-"`
		UsePathStyle bool   `json:"use_path_style" mapstructure:"use_path_style" toml:"use_path_style"`
	}

	// Config is the effective cefkit configuration.
	Config struct {
		Version        string   `json:"version" mapstructure:"version" toml:"version"`
		Platform       string   `json:"platform" mapstructure:"platform" toml:"platform"`
		OptLevel       string   `json:"opt_level" mapstructure:"opt_level" toml:"opt_level"`
		ArchiveDir     DirPath  `json:"archive_dir" mapstructure:"archive_dir" toml:"archive_dir"`
		LibDir         DirPath  `json:"lib_dir" mapstructure:"lib_dir" toml:"lib_dir"`
		ResourceDir    DirPath  `json:"resource_dir" mapstructure:"resource_dir" toml:"resource_dir"`
		HeaderDir      DirPath  `json:"header_dir" mapstructure:"header_dir" toml:"header_dir"`
		WrapperSrcDir  DirPath  `json:"wrapper_src_dir" mapstructure:"wrapper_src_dir" toml:"wrapper_src_dir"`
		MacrosDir      DirPath  `json:"macros_dir" mapstructure:"macros_dir" toml:"macros_dir"`
		ProjectDir     DirPath  `json:"project_dir" mapstructure:"project_dir" toml:"project_dir"`
		UnpackSentinel DirPath  `json:"unpack_sentinel" mapstructure:"unpack_sentinel" toml:"unpack_sentinel"`
		BaseURL        BaseURL  `json:"base_url" mapstructure:"base_url" toml:"base_url"`
		ArchiveSuffix  string   `json:"archive_suffix" mapstructure:"archive_suffix" toml:"archive_suffix"`
		VerifyChecksum bool     `json:"verify_checksum" mapstructure:"verify_checksum" toml:"verify_checksum"`
		WrapperScript  DirPath  `json:"wrapper_script" mapstructure:"wrapper_script" toml:"wrapper_script"`
		Capabilities   []string `json:"capabilities" mapstructure:"capabilities" toml:"capabilities"`
		S3             S3Config `json:"s3" mapstructure:"s3" toml:"s3"`
	}
)

// IsValid returns whether the path is unset or names something.
func (p DirPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDirPathError{Value: p}}
	}
	return true, nil
}

// String returns the path.
func (p DirPath) String() string { return string(p) }

// Error implements the error interface for InvalidDirPathError.
func (e *InvalidDirPathError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid directory path %q (must not be whitespace-only)", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid directory path %q (must not be whitespace-only)", e.Value)
}

// Unwrap returns ErrInvalidDirPath for errors.Is() compatibility.
func (e *InvalidDirPathError) Unwrap() error { return ErrInvalidDirPath }

// IsValid returns whether the URL has an http, https or s3 scheme and a host.
func (u BaseURL) IsValid() (bool, []error) {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return false, []error{&InvalidBaseURLError{Value: u, Reason: err.Error()}}
	}
	switch parsed.Scheme {
	case "http", "https", "s3":
	default:
		return false, []error{&InvalidBaseURLError{Value: u, Reason: "scheme must be http, https or s3"}}
	}
	if parsed.Host == "" {
		return false, []error{&InvalidBaseURLError{Value: u, Reason: "missing host"}}
	}
	return true, nil
}

// String returns the URL.
func (u BaseURL) String() string { return string(u) }

// Error implements the error interface for InvalidBaseURLError.
func (e *InvalidBaseURLError) Error() string {
	return fmt.Sprintf("invalid base URL %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidBaseURL for errors.Is() compatibility.
func (e *InvalidBaseURLError) Unwrap() error { return ErrInvalidBaseURL }

// Error implements the error interface for InvalidCapabilityError.
func (e *InvalidCapabilityError) Error() string {
	return fmt.Sprintf("invalid capability %q (valid: %s)", e.Value, linkflags.CapabilitySandbox)
}

// Unwrap returns ErrInvalidCapability for errors.Is() compatibility.
func (e *InvalidCapabilityError) Unwrap() error { return ErrInvalidCapability }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the configuration used when nothing else is set.
// ArchiveDir points into the user cache directory when one is available.
func DefaultConfig() *Config {
	cfg := &Config{
		OptLevel: string(cefdist.OptRelease),
		BaseURL:       BaseURL(cefdist.DefaultBaseURL),
		ArchiveSuffix: cefdist.ArchiveSuffix,
	}
	if dir, err := DefaultArchiveDir(); err == nil {
		cfg.ArchiveDir = DirPath(dir)
	}
	return cfg
}

// IsValid checks every field and reports all problems at once. The version
// is not required here; commands that need it call Identity.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	paths := []struct {
		field string
		value DirPath
	}{
		{"archive_dir", c.ArchiveDir},
		{"lib_dir", c.LibDir},
		{"resource_dir", c.ResourceDir},
		{"header_dir", c.HeaderDir},
		{"wrapper_src_dir", c.WrapperSrcDir},
		{"macros_dir", c.MacrosDir},
		{"project_dir", c.ProjectDir},
		{"unpack_sentinel", c.UnpackSentinel},
		{"wrapper_script", c.WrapperScript},
	}
	for _, p := range paths {
		if ok, _ := p.value.IsValid(); !ok {
			errs = append(errs, &InvalidDirPathError{Field: p.field, Value: p.value})
		}
	}
	if c.Platform != "" {
		if _, err := platform.Parse(c.Platform); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := cefdist.ParseOptLevel(c.OptLevel); err != nil {
		errs = append(errs, err)
	}
	if ok, urlErrs := c.BaseURL.IsValid(); !ok {
		errs = append(errs, urlErrs...)
	}
	if err := cefdist.ValidateArchiveSuffix(c.ArchiveSuffix); err != nil {
		errs = append(errs, err)
	}
	for _, capName := range c.Capabilities {
		if capName != linkflags.CapabilitySandbox {
			errs = append(errs, &InvalidCapabilityError{Value: capName})
		}
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Validate returns an *InvalidConfigError when IsValid fails.
func (c *Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Source returns the settings in the form the archive resolver takes.
func (s S3Config) Source() source.S3Config {
	return source.S3Config{
		Region:       s.Region,
		Endpoint:     s.Endpoint,
		AccessKey:    s.AccessKey,
		SecretKey:    s.SecretKey,
		UsePathStyle: s.UsePathStyle,
	}
}

// Target returns the configured platform, or the host platform when unset.
func (c *Config) Target() (platform.Platform, error) {
	if c.Platform == "" {
		return platform.Host()
	}
	return platform.Parse(c.Platform)
}

// Identity returns the distribution the configuration selects.
func (c *Config) Identity() (cefdist.Identity, error) {
	p, err := c.Target()
	if err != nil {
		return cefdist.Identity{}, err
	}
	opt, err := cefdist.ParseOptLevel(c.OptLevel)
	if err != nil {
		return cefdist.Identity{}, err
	}
	return cefdist.NewIdentity(c.Version, p, opt)
}

// Destinations returns the destination set with ProjectDir expanded into
// any of the header, wrapper and macros directories left unset.
func (c *Config) Destinations() rewrite.Destinations {
	return rewrite.Destinations{
		LibDir:        c.LibDir.String(),
		ResourceDir:   c.ResourceDir.String(),
		HeaderDir:     c.HeaderDir.String(),
		WrapperSrcDir: c.WrapperSrcDir.String(),
		MacrosDir:     c.MacrosDir.String(),
	}.WithProjectDir(c.ProjectDir.String())
}
