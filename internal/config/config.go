// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/cefkit/cefkit/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "cefkit"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "cefkit"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "CEF"

	// maxFileSize bounds config files read into memory.
	maxFileSize = 1 << 20
)

//go:embed cefkit_schema.cue
var configSchema string

// keys lists every configuration key. Each one gets a default so that
// AutomaticEnv values reach Unmarshal.
var keys = []string{
	"version", "platform", "opt_level",
	"archive_dir", "lib_dir", "resource_dir", "header_dir", "wrapper_src_dir", "macros_dir",
	"project_dir", "unpack_sentinel", "base_url", "archive_suffix", "verify_checksum", "wrapper_script", "capabilities",
	"s3.region", "s3.endpoint", "s3.access_key", "s3.secret_key", "s3.use_path_style",
}

// ConfigDir returns the cefkit configuration directory under the platform's
// user config directory.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := getConfigDirOverride(); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultArchiveDir returns the default archive cache directory.
func DefaultArchiveDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(base, AppName, "archives"), nil
}

// loadWithOptions performs option-driven config loading without touching
// package-level state other than the config dir override.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := mergeConfigFile(v, opts)
	if err != nil {
		return nil, "", err
	}

	for key, value := range opts.Overrides {
		if value == nil {
			continue
		}
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		ctxBuilder := issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Fix the listed fields in the config file, CEF_* environment or flags").
			WithIssue(issue.ConfigLoadFailedId)
		if resolvedPath != "" {
			ctxBuilder = ctxBuilder.WithResource(resolvedPath)
		}
		return nil, "", ctxBuilder.Wrap(err).BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	values := map[string]any{
		"version":           d.Version,
		"platform":          d.Platform,
		"opt_level":         d.OptLevel,
		"archive_dir":       d.ArchiveDir.String(),
		"lib_dir":           d.LibDir.String(),
		"resource_dir":      d.ResourceDir.String(),
		"header_dir":        d.HeaderDir.String(),
		"wrapper_src_dir":   d.WrapperSrcDir.String(),
		"macros_dir":        d.MacrosDir.String(),
		"project_dir":       d.ProjectDir.String(),
		"unpack_sentinel":   d.UnpackSentinel.String(),
		"base_url":          d.BaseURL.String(),
		"archive_suffix":    d.ArchiveSuffix,
		"verify_checksum":   d.VerifyChecksum,
		"wrapper_script":    d.WrapperScript.String(),
		"capabilities":      []string{},
		"s3.region":         d.S3.Region,
		"s3.endpoint":       d.S3.Endpoint,
		"s3.access_key":     d.S3.AccessKey,
		"s3.secret_key":     d.S3.SecretKey,
		"s3.use_path_style": d.S3.UsePathStyle,
	}
	for _, key := range keys {
		v.SetDefault(key, values[key])
	}
}

// mergeConfigFile finds and merges the config file, returning its path or ""
// when none applies.
func mergeConfigFile(v *viper.Viper, opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'cefkit config show' to see the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, mergeOrWrap(v, opts.ConfigFilePath)
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}

	fileName := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(cfgDir, fileName), fileName} {
		if fileExists(candidate) {
			return candidate, mergeOrWrap(v, candidate)
		}
	}
	return "", nil
}

func mergeOrWrap(v *viper.Viper, path string) error {
	if err := loadCUEIntoViper(v, path); err != nil {
		return issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("%s: file exceeds %d bytes", path, maxFileSize)
	}

	cctx := cuecontext.New()

	schemaValue := cctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := cctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Fields are optional, so only require a well-formed value here.
	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError flattens CUE errors into "<file>: <path>: <message>" lines.
func formatCUEError(err error, path string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.Join(cueerrors.Path(e), ".")
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if field != "" {
			lines = append(lines, fmt.Sprintf("%s: %s: %s", path, field, msg))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", path, msg))
		}
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders the configuration as a cefkit.cue file. The S3 secret
// key is never written.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// cefkit configuration\n\n")
	writeString := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "%s: %q\n", key, value)
		}
	}
	writeString("version", cfg.Version)
	writeString("platform", cfg.Platform)
	writeString("opt_level", cfg.OptLevel)
	writeString("archive_dir", cfg.ArchiveDir.String())
	writeString("lib_dir", cfg.LibDir.String())
	writeString("resource_dir", cfg.ResourceDir.String())
	writeString("header_dir", cfg.HeaderDir.String())
	writeString("wrapper_src_dir", cfg.WrapperSrcDir.String())
	writeString("macros_dir", cfg.MacrosDir.String())
	writeString("project_dir", cfg.ProjectDir.String())
	writeString("unpack_sentinel", cfg.UnpackSentinel.String())
	writeString("base_url", cfg.BaseURL.String())
	writeString("archive_suffix", cfg.ArchiveSuffix)
	fmt.Fprintf(&sb, "verify_checksum: %v\n", cfg.VerifyChecksum)
	writeString("wrapper_script", cfg.WrapperScript.String())

	if len(cfg.Capabilities) > 0 {
		quoted := make([]string, len(cfg.Capabilities))
		for i, c := range cfg.Capabilities {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		fmt.Fprintf(&sb, "capabilities: [%s]\n", strings.Join(quoted, ", "))
	}

	if cfg.S3 != (S3Config{}) {
		sb.WriteString("\ns3: {\n")
		if cfg.S3.Region != "" {
			fmt.Fprintf(&sb, "\tregion: %q\n", cfg.S3.Region)
		}
		if cfg.S3.Endpoint != "" {
			fmt.Fprintf(&sb, "\tendpoint: %q\n", cfg.S3.Endpoint)
		}
		if cfg.S3.AccessKey != "" {
			fmt.Fprintf(&sb, "\taccess_key: %q\n", cfg.S3.AccessKey)
		}
		fmt.Fprintf(&sb, "\tuse_path_style: %v\n", cfg.S3.UsePathStyle)
		sb.WriteString("}\n")
	}

	return sb.String()
}

// GenerateTOML renders the configuration as TOML.
func GenerateTOML(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return data, nil
}

// Save writes cfg to the config directory as cefkit.cue.
func Save(cfg *Config) (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}
