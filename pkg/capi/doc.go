// SPDX-License-Identifier: MPL-2.0

// Package capi builds the C-ABI objects a CEF embedder hands to the native
// library: cef_app_t and cef_client_t structs whose slots point at Go
// callbacks.
//
// Objects are allocated in C memory so their address never moves, and their
// lifetime is tracked in refcount.Default keyed by that address. The native
// library acquires and releases references through the base struct's four
// slots; the release that drops the count to zero frees the block. Every
// interface slot is filled: a capability without a Go handler answers with
// its empty value (NULL or false).
//
// The package requires cgo.
package capi
