// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"errors"
	"fmt"
)

// ErrArchiveDecode is the sentinel error wrapped by ArchiveDecodeError.
var ErrArchiveDecode = errors.New("archive decode failed")

// ArchiveDecodeError reports a malformed compressed stream or tar entry.
// Extraction stops at the first one; files already written stay on disk.
type ArchiveDecodeError struct {
	Archive string // archive name, if known
	Entry   string // entry path, if the failure is tied to one
	Err     error
}

// Error implements the error interface.
func (e *ArchiveDecodeError) Error() string {
	msg := "decoding archive"
	if e.Archive != "" {
		msg += " " + e.Archive
	}
	if e.Entry != "" {
		msg += fmt.Sprintf(" (entry %q)", e.Entry)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrArchiveDecode and the underlying cause.
func (e *ArchiveDecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrArchiveDecode}
	}
	return []error{ErrArchiveDecode, e.Err}
}
