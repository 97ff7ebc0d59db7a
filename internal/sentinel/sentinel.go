// SPDX-License-Identifier: MPL-2.0

// Package sentinel decides whether a provisioning run can be skipped by
// comparing a fingerprint of its inputs against the one recorded by the last
// successful run.
package sentinel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cefkit/cefkit/internal/rewrite"
	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

// separator joins sentinel fields. Changing it, or the field order, is a
// format break that forces every existing tree to be re-provisioned.
const separator = ";"

type (
	// Sentinel fingerprints the inputs of one provisioning run.
	Sentinel struct {
		Identity   cefdist.Identity
		ArchiveDir string
		Dest       rewrite.Destinations
	}

	// Guard reads and writes the sentinel file.
	Guard struct {
		path   string
		logger *log.Logger
	}

	// Option configures a Guard.
	Option func(*Guard)
)

// New returns the sentinel for a run with every path made absolute.
func New(id cefdist.Identity, archiveDir string, dest rewrite.Destinations) (Sentinel, error) {
	dest, err := dest.Abs()
	if err != nil {
		return Sentinel{}, err
	}
	if archiveDir != "" {
		if archiveDir, err = filepath.Abs(archiveDir); err != nil {
			return Sentinel{}, fmt.Errorf("resolving archive directory: %w", err)
		}
	}
	return Sentinel{Identity: id, ArchiveDir: archiveDir, Dest: dest}, nil
}

// ProjectDir returns the CMake project directory the wrapper sources live
// in, or "" when no wrapper source directory is set.
func (s Sentinel) ProjectDir() string {
	if s.Dest.WrapperSrcDir == "" {
		return ""
	}
	return filepath.Dir(s.Dest.WrapperSrcDir)
}

// String renders the sentinel as its on-disk form:
// version;archive dir;lib dir, followed by ;project dir when there is one.
// Platform, opt level and the other destinations are not recorded; a change
// to only those needs a forced run.
func (s Sentinel) String() string {
	fields := []string{s.Identity.Version, s.ArchiveDir, s.Dest.LibDir}
	if project := s.ProjectDir(); project != "" {
		fields = append(fields, project)
	}
	return strings.Join(fields, separator)
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard creates a guard backed by the file at path. An empty path
// disables skipping.
func NewGuard(path string, opts ...Option) *Guard {
	g := &Guard{path: path, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Path returns the sentinel file path.
func (g *Guard) Path() string { return g.path }

// ShouldProvision reports false only when the recorded sentinel is
// byte-identical to s. macOS always provisions, because the wrapper library
// has to be rebuilt from the extracted sources on every run; callers decide
// separately whether that build runs.
func (g *Guard) ShouldProvision(s Sentinel) bool {
	if s.Identity.Platform == platform.PlatformMacOS {
		return true
	}
	if g.path == "" {
		return true
	}

	recorded, err := os.ReadFile(g.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			g.logger.Debug("unreadable sentinel", "path", g.path, "err", err)
		}
		return true
	}
	if !bytes.Equal(recorded, []byte(s.String())) {
		g.logger.Debug("sentinel changed", "path", g.path)
		return true
	}
	return false
}

// Commit records s as the sentinel of the last successful run. Failure is
// logged and otherwise ignored; the next run simply provisions again.
func (g *Guard) Commit(s Sentinel) {
	if g.path == "" {
		return
	}
	if err := g.write(s); err != nil {
		g.logger.Warn("could not write sentinel", "path", g.path, "err", err)
	}
}

func (g *Guard) write(s Sentinel) error {
	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(g.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err = tmp.WriteString(s.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err = os.Rename(tmpPath, g.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
