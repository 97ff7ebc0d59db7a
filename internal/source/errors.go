// SPDX-License-Identifier: MPL-2.0

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport is the sentinel error wrapped by TransportError.
	ErrTransport = errors.New("archive transport failed")

	// ErrChecksumMismatch is the sentinel error wrapped by ChecksumError.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")

	// ErrCacheWrite is the sentinel error wrapped by CacheWriteError.
	ErrCacheWrite = errors.New("archive cache write failed")

	// ErrDigestMismatch is returned by Cache.Verify for a cached archive
	// whose contents differ from its digest sidecar.
	ErrDigestMismatch = errors.New("cached archive does not match its digest")
)

type (
	// TransportError reports a failed fetch: a connection error, a non-2xx
	// response or a truncated body. No retry is attempted.
	TransportError struct {
		Locator    string
		StatusCode int // 0 when no response was received
		Err        error
	}

	// ChecksumError reports fetched bytes that do not match the published
	// SHA-1 sidecar.
	ChecksumError struct {
		Archive string
		Want    string
		Got     string
	}

	// CacheWriteError reports a failure to populate the archive cache. It is
	// never fatal to provisioning.
	CacheWriteError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.Locator, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.Locator, e.Err)
}

// Unwrap returns ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// Error implements the error interface.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: sha1 %s does not match published %s", e.Archive, e.Got, e.Want)
}

// Unwrap returns ErrChecksumMismatch for errors.Is() compatibility.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// Error implements the error interface.
func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("caching %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrCacheWrite and the underlying cause.
func (e *CacheWriteError) Unwrap() []error {
	return []error{ErrCacheWrite, e.Err}
}
