// SPDX-License-Identifier: MPL-2.0

// Package cefdist names CEF binary distributions.
//
// An Identity is the (version, platform, optimization level) triple that
// selects one distribution. It determines the archive file name
// (cef_binary_<version>_<token>64.tar.bz2), the remote locator under a base
// URL, and the Release/Debug directory the rewrite rules read from.
package cefdist
