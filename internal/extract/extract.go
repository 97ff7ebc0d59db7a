// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cefkit/cefkit/internal/rewrite"
)

// partialSuffix marks a file that is still being written.
const partialSuffix = ".partial"

type (
	// Stats summarizes one extraction run.
	Stats struct {
		Written   int // entries written to disk
		Skipped   int // entries whose destination already existed
		Discarded int // entries no rule matched
	}

	// Extractor writes matching archive entries to their rewritten destinations.
	Extractor struct {
		logger *log.Logger
	}

	// Option configures an Extractor.
	Option func(*Extractor)
)

// WithLogger sets the logger used for per-entry progress.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the decompressed tar stream r to the end, writing every entry
// the table maps to a destination that does not exist yet. The first decode
// error aborts the run.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, table *rewrite.Table) (Stats, error) {
	var stats Stats
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, &ArchiveDecodeError{Err: fmt.Errorf("reading tar entry: %w", err)}
		}

		m, ok, err := table.Lookup(hdr.Name)
		if err != nil {
			return stats, &ArchiveDecodeError{Entry: hdr.Name, Err: err}
		}
		if !ok {
			stats.Discarded++
			continue
		}

		if err := checkParents(hdr.Name, m); err != nil {
			return stats, err
		}
		if _, statErr := os.Lstat(m.Path); statErr == nil {
			e.logger.Debug("already exists", "path", m.Path)
			stats.Skipped++
			continue
		}

		written, err := e.writeEntry(hdr, tr, m)
		if err != nil {
			return stats, err
		}
		if written {
			e.logger.Debug("wrote", "path", m.Path)
			stats.Written++
		} else {
			stats.Discarded++
		}
	}
}

// writeEntry materializes one entry at its rewritten path. It reports false
// for entry types that are not extracted (devices, FIFOs, hard links).
func (e *Extractor) writeEntry(hdr *tar.Header, r io.Reader, m rewrite.Match) (bool, error) {
	dest := m.Path
	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(dest, dirMode(hdr)); err != nil {
			return false, fmt.Errorf("creating directory %s: %w", dest, err)
		}
		return true, nil

	case tar.TypeSymlink:
		if err := checkLink(hdr, m); err != nil {
			return false, err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return false, fmt.Errorf("creating directory for %s: %w", dest, err)
		}
		if err := os.Symlink(hdr.Linkname, dest); err != nil {
			return false, fmt.Errorf("creating symlink %s: %w", dest, err)
		}
		return true, nil

	case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // TypeRegA still appears in old archives.
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return false, fmt.Errorf("creating directory for %s: %w", dest, err)
		}
		return true, writeFile(hdr, r, dest)

	default:
		e.logger.Debug("skipping unsupported entry type", "entry", hdr.Name, "type", hdr.Typeflag)
		return false, nil
	}
}

// checkLink rejects a symlink entry whose target is absolute or resolves
// outside the root of the rule that matched it.
func checkLink(hdr *tar.Header, m rewrite.Match) error {
	target := hdr.Linkname
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(m.Path), target)
	}
	if filepath.IsAbs(hdr.Linkname) || (m.Root != "" && !rewrite.Within(m.Root, target)) {
		return &ArchiveDecodeError{
			Entry: hdr.Name,
			Err:   &rewrite.EscapeError{Entry: hdr.Name, Path: target, Root: m.Root},
		}
	}
	return nil
}

// checkParents refuses to write below a symlink: every existing directory
// between the rule root and the destination must be a real directory.
func checkParents(entry string, m rewrite.Match) error {
	if m.Root == "" {
		return nil
	}
	parent := filepath.Dir(m.Path)
	if !rewrite.Within(m.Root, parent) {
		return nil
	}
	rel, err := filepath.Rel(filepath.Clean(m.Root), parent)
	if err != nil || rel == "." {
		return nil
	}

	cur := filepath.Clean(m.Root)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", cur, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return &ArchiveDecodeError{
				Entry: entry,
				Err:   &rewrite.EscapeError{Entry: entry, Path: m.Path, Root: m.Root},
			}
		}
	}
	return nil
}

// writeFile copies the entry body to dest via a sibling .partial file so an
// interrupted run never leaves a truncated file at the final path.
func writeFile(hdr *tar.Header, r io.Reader, dest string) (err error) {
	tmpPath := dest + partialSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(hdr))
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // best-effort cleanup of the partial file
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return &ArchiveDecodeError{Entry: hdr.Name, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	return nil
}

func fileMode(hdr *tar.Header) fs.FileMode {
	mode := fs.FileMode(hdr.Mode).Perm()
	if mode == 0 {
		return 0o644
	}
	return mode | 0o200
}

func dirMode(hdr *tar.Header) fs.FileMode {
	mode := fs.FileMode(hdr.Mode).Perm()
	if mode == 0 {
		return 0o755
	}
	return mode | 0o700
}
