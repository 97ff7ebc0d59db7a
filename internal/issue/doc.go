// SPDX-License-Identifier: MPL-2.0

// Package issue turns failures into user-facing guidance: ActionableError
// carries the failed operation, the resource involved and remediation hints,
// and the issue catalog holds longer Markdown explanations rendered for the
// terminal.
package issue
