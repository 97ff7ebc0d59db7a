// SPDX-License-Identifier: MPL-2.0

// Package platform identifies the target operating systems a CEF
// distribution can be provisioned for.
//
// A Platform maps to exactly one archive token used in CEF distribution
// file names ("windows", "linux", "macosx"). Unknown platform names are
// rejected with a PlatformUnsupportedError before any I/O happens.
package platform
