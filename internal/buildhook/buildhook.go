// SPDX-License-Identifier: MPL-2.0

// Package buildhook runs the post-extraction build step that macOS needs:
// compiling the libcef_dll_wrapper static library from the extracted wrapper
// sources. Scripts run in an embedded POSIX shell interpreter so they behave
// the same on every host.
package buildhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/cefkit/cefkit/internal/rewrite"
	"github.com/cefkit/cefkit/pkg/cefdist"
)

// DefaultScript configures and builds the wrapper with CMake and copies the
// static library next to the framework.
const DefaultScript = `set -e
build="$CEF_LIB_DIR/.wrapper-build"
mkdir -p "$build"
cmake -S "$CEF_PROJECT_DIR" -B "$build" -DCMAKE_BUILD_TYPE="$CEF_OPT_LEVEL"
cmake --build "$build" --target libcef_dll_wrapper --config "$CEF_OPT_LEVEL"
cp "$build/libcef_dll_wrapper/libcef_dll_wrapper.a" "$CEF_LIB_DIR/"
`

// ErrBuildHook is the sentinel error wrapped by BuildHookError.
var ErrBuildHook = errors.New("wrapper build failed")

type (
	// BuildHookError reports a script that could not be parsed or exited
	// non-zero.
	BuildHookError struct {
		ExitCode int // 0 when the script never ran
		Err      error
	}

	// Inputs are the values exported to the script as CEF_* variables.
	Inputs struct {
		Identity   cefdist.Identity
		ArchiveDir string
		Dest       rewrite.Destinations
	}

	// Hook runs a wrapper build script.
	Hook struct {
		script string
		name   string
		dir    string
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// Option configures a Hook.
	Option func(*Hook)
)

// Error implements the error interface.
func (e *BuildHookError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("wrapper build script exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("wrapper build script: %v", e.Err)
}

// Unwrap returns ErrBuildHook and the underlying cause.
func (e *BuildHookError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBuildHook}
	}
	return []error{ErrBuildHook, e.Err}
}

// WithScript sets the script source.
func WithScript(script string) Option {
	return func(h *Hook) {
		h.script = script
	}
}

// WithDir sets the working directory. It defaults to the wrapper source
// directory.
func WithDir(dir string) Option {
	return func(h *Hook) {
		h.dir = dir
	}
}

// WithOutput sets where the script's stdout and stderr go.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(h *Hook) {
		h.stdout = stdout
		h.stderr = stderr
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(h *Hook) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Hook running DefaultScript unless WithScript overrides it.
func New(opts ...Option) *Hook {
	h := &Hook{
		script: DefaultScript,
		name:   "wrapper-build",
		stdout: os.Stderr,
		stderr: os.Stderr,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoadScript reads a script from a file for use with WithScript.
func LoadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading wrapper build script: %w", err)
	}
	return string(data), nil
}

// Validate parses the script without running it.
func (h *Hook) Validate() error {
	if _, err := syntax.NewParser().Parse(strings.NewReader(h.script), h.name); err != nil {
		return &BuildHookError{Err: fmt.Errorf("parsing script: %w", err)}
	}
	return nil
}

// Run executes the script with the host environment plus the CEF_*
// variables derived from in.
func (h *Hook) Run(ctx context.Context, in Inputs) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(h.script), h.name)
	if err != nil {
		return &BuildHookError{Err: fmt.Errorf("parsing script: %w", err)}
	}

	dir := h.dir
	if dir == "" {
		dir = in.Dest.WrapperSrcDir
	}
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return &BuildHookError{Err: err}
		}
	}

	env := append(os.Environ(), Env(in)...)
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, h.stdout, h.stderr),
	)
	if err != nil {
		return &BuildHookError{Err: fmt.Errorf("creating interpreter: %w", err)}
	}

	h.logger.Info("Building wrapper", "dir", dir)
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &BuildHookError{ExitCode: int(exitStatus), Err: err}
		}
		return &BuildHookError{Err: err}
	}
	return nil
}

// Env returns the CEF_* variables describing a provisioning run.
// CEF_PROJECT_DIR is the parent of the wrapper source directory.
func Env(in Inputs) []string {
	project := ""
	if in.Dest.WrapperSrcDir != "" {
		project = filepath.Dir(in.Dest.WrapperSrcDir)
	}
	return []string{
		"CEF_VERSION=" + in.Identity.Version,
		"CEF_PLATFORM=" + in.Identity.Platform.Token(),
		"CEF_OPT_LEVEL=" + in.Identity.OptLevel.String(),
		"CEF_ARCHIVE_DIR=" + in.ArchiveDir,
		"CEF_LIB_DIR=" + in.Dest.LibDir,
		"CEF_RESOURCE_DIR=" + in.Dest.ResourceDir,
		"CEF_HEADER_DIR=" + in.Dest.HeaderDir,
		"CEF_WRAPPER_SRC_DIR=" + in.Dest.WrapperSrcDir,
		"CEF_MACROS_DIR=" + in.Dest.MacrosDir,
		"CEF_PROJECT_DIR=" + project,
	}
}
