// SPDX-License-Identifier: MPL-2.0

// Package source resolves a CEF distribution archive to a readable byte
// stream, preferring a local cache directory and falling back to a single
// network fetch over HTTP(S) or from an S3 mirror.
//
// Fetched archives are written back to the cache together with a BLAKE3
// digest sidecar. Cache population is best-effort: a write failure is logged
// and the fetched bytes are still returned.
package source
