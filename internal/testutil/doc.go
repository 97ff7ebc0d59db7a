// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers that fail the test on setup errors:
// environment variables, working directory changes and fixture files.
package testutil
