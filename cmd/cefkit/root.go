// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cefkit/cefkit/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires CLI services and shared state. Every command handler
	// receives it.
	App struct {
		Config config.Provider

		configPath string
		verbose    bool
		quiet      bool
		logger     *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{Config: deps.Config, logger: log.New(io.Discard)}
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cefkit",
		Short: "Provision CEF binary distributions",
		Long: TitleStyle.Render("cefkit") + SubtitleStyle.Render(" - Provision CEF binary distributions") + `

cefkit downloads a Chromium Embedded Framework distribution, keeps a local
archive cache and extracts the libraries, resources, headers, wrapper sources
and CMake macros a project links against.

` + SubtitleStyle.Render("Examples:") + `
  cefkit fetch --cef-version 84.3.10+ga46056b+chromium-84.0.4147.105 --lib-dir third_party/cef
  cefkit ldflags --lib-dir third_party/cef
  cefkit cache list
  cefkit config show --format toml`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.logger = newLogger(cmd.ErrOrStderr(), app.verbose, app.quiet)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "config file (default is cefkit.cue in the user config directory)")
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "enable debug output")
	pf.BoolVarP(&app.quiet, "quiet", "q", false, "only print warnings and errors")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newFetchCommand(app),
		newLDFlagsCommand(app),
		newCacheCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// newLogger builds the process logger. Quiet raises the level to warn,
// verbose lowers it to debug.
func newLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "cefkit"})
	switch {
	case verbose:
		logger.SetLevel(log.DebugLevel)
	case quiet:
		logger.SetLevel(log.WarnLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with the command's status.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
