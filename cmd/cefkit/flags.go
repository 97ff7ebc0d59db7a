// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cefkit/cefkit/internal/config"
)

// configFlags maps CLI flag names to configuration keys. A flag only
// overrides configuration when it was set on the command line.
var configFlags = map[string]string{
	"cef-version":     "version",
	"platform":        "platform",
	"opt-level":       "opt_level",
	"archive-dir":     "archive_dir",
	"lib-dir":         "lib_dir",
	"resource-dir":    "resource_dir",
	"header-dir":      "header_dir",
	"wrapper-src-dir": "wrapper_src_dir",
	"macros-dir":      "macros_dir",
	"project-dir":     "project_dir",
	"sentinel":        "unpack_sentinel",
	"base-url":        "base_url",
	"archive-suffix":  "archive_suffix",
	"verify-checksum": "verify_checksum",
	"wrapper-script":  "wrapper_script",
	"capability":      "capabilities",
}

// addIdentityFlags registers the flags selecting a distribution.
func addIdentityFlags(fs *pflag.FlagSet) {
	fs.String("cef-version", "", "CEF version, e.g. 84.3.10+ga46056b+chromium-84.0.4147.105 (CEF_VERSION)")
	fs.String("platform", "", "target platform: windows, linux or macosx (CEF_PLATFORM, default host)")
	fs.String("opt-level", "", "Debug or Release (CEF_OPT_LEVEL)")
}

// addSourceFlags registers the flags locating archives.
func addSourceFlags(fs *pflag.FlagSet) {
	fs.String("archive-dir", "", "archive cache directory (CEF_ARCHIVE_DIR)")
	fs.String("base-url", "", "distribution index, http(s):// or s3:// (CEF_BASE_URL)")
	fs.String("archive-suffix", "", "archive compression the source serves: .tar.bz2, .tar.gz, .tar.zst or .tar.lz4 (CEF_ARCHIVE_SUFFIX)")
	fs.Bool("verify-checksum", false, "verify archives against the published .sha1 (CEF_VERIFY_CHECKSUM)")
}

// addDestinationFlags registers the flags naming destination directories.
func addDestinationFlags(fs *pflag.FlagSet) {
	fs.String("lib-dir", "", "library destination (CEF_LIB_DIR)")
	fs.String("resource-dir", "", "resource destination, defaults to the library destination (CEF_RESOURCE_DIR)")
	fs.String("header-dir", "", "header destination (CEF_HEADER_DIR)")
	fs.String("wrapper-src-dir", "", "libcef_dll wrapper source destination (CEF_WRAPPER_SRC_DIR)")
	fs.String("macros-dir", "", "CMake macros destination (CEF_MACROS_DIR)")
	fs.String("project-dir", "", "CMake project directory filling include/, libcef_dll/ and cmake/ (CEF_PROJECT_DIR)")
	fs.String("sentinel", "", "file recording the last provisioned inputs (CEF_UNPACK_SENTINEL)")
	fs.String("wrapper-script", "", "macOS wrapper build script (default: built-in CMake build)")
}

// overrides collects the configuration overrides from flags set on cmd.
func overrides(cmd *cobra.Command) map[string]any {
	values := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := configFlags[f.Name]
		if !ok {
			return
		}
		if f.Value.Type() == "stringSlice" {
			if key != "capabilities" {
				return
			}
			s, err := cmd.Flags().GetStringSlice(f.Name)
			if err == nil {
				values[key] = s
			}
			return
		}
		values[key] = f.Value.String()
	})
	return values
}

// loadConfig loads configuration with the flags set on cmd applied last.
func (app *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: app.configPath,
		Overrides:      overrides(cmd),
	})
	if err != nil {
		return nil, err
	}
	app.logger.Debug("configuration loaded", "version", cfg.Version, "platform", cfg.Platform)
	return cfg, nil
}
