// SPDX-License-Identifier: MPL-2.0

// Package rewrite builds the ordered rule table that maps archive entry paths
// to destination files.
//
// Rules are tried in order and the first match wins. Library rules come
// first, then resources, headers, wrapper sources, and build macros, so a
// path that could match more than one destination lands where the earlier
// destination wants it. Entries matching no rule are discarded.
package rewrite
