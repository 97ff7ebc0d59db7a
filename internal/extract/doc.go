// SPDX-License-Identifier: MPL-2.0

// Package extract streams a CEF distribution archive to disk through a
// rewrite table.
//
// Decompress picks a decoder from the archive suffix. Extractor then walks
// the tar stream entry by entry: unmatched entries are discarded, existing
// destination files are left untouched, and new files are written next to
// their destination and renamed into place. A second run over the same
// archive therefore converges on the same tree without rewriting anything.
package extract
