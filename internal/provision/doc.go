// SPDX-License-Identifier: MPL-2.0

// Package provision places the files of a CEF binary distribution into a
// project's destination directories.
//
// A run builds the rewrite table for the target identity, consults the
// sentinel guard, resolves the archive (cache or network), extracts the
// matching entries and records the sentinel. On macOS the wrapper library
// build script runs afterwards.
package provision
