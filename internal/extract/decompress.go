// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies the compression of a tar archive.
type Format string

const (
	FormatTar   Format = "tar"
	FormatBzip2 Format = "bzip2"
	FormatGzip  Format = "gzip"
	FormatZstd  Format = "zstd"
	FormatLZ4   Format = "lz4"
)

// suffixes is checked in order; longer suffixes first.
var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.bz2", FormatBzip2},
	{".tbz2", FormatBzip2},
	{".tar.gz", FormatGzip},
	{".tgz", FormatGzip},
	{".tar.zst", FormatZstd},
	{".tar.lz4", FormatLZ4},
	{".tar", FormatTar},
}

// DetectFormat returns the compression format implied by an archive name.
func DetectFormat(name string) (Format, bool) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format, true
		}
	}
	return "", false
}

// Decompress wraps r with the decoder for the archive's format. The returned
// ReadCloser releases decoder resources; it does not close r.
func Decompress(name string, r io.Reader) (io.ReadCloser, error) {
	format, ok := DetectFormat(name)
	if !ok {
		return nil, &ArchiveDecodeError{Archive: name, Err: fmt.Errorf("unrecognized archive suffix")}
	}
	return NewDecoder(format, r)
}

// NewDecoder wraps r with the decoder for format.
func NewDecoder(format Format, r io.Reader) (io.ReadCloser, error) {
	switch format {
	case FormatTar:
		return io.NopCloser(r), nil
	case FormatBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case FormatGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, &ArchiveDecodeError{Err: fmt.Errorf("opening gzip stream: %w", err)}
		}
		return gz, nil
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, &ArchiveDecodeError{Err: fmt.Errorf("opening zstd stream: %w", err)}
		}
		return zr.IOReadCloser(), nil
	case FormatLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, &ArchiveDecodeError{Err: fmt.Errorf("unsupported format %q", format)}
}
