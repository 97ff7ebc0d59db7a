// SPDX-License-Identifier: MPL-2.0

// Package config loads cefkit settings using Viper with CUE as the file format.
//
// Sources are layered, lowest precedence first: built-in defaults, a cefkit.cue
// file (the user config directory, then the working directory), CEF_* environment
// variables and finally explicit overrides supplied by the CLI flags.
//
// Files are validated against the embedded CUE schema (cefkit_schema.cue) before
// they are merged.
package config
