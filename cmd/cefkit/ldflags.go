// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cefkit/cefkit/internal/linkflags"
)

func newLDFlagsCommand(app *App) *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "ldflags",
		Short: "Print the linker flags for the target platform",
		Long: `Print the linker flags for the target platform.

The library directory is added as a search path. The Windows sandbox library
is only linked with --capability sandbox.`,
		Example: `  export CGO_LDFLAGS="$(cefkit ldflags --lib-dir third_party/cef)"
  eval "$(cefkit ldflags --export --platform windows --capability sandbox)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runLDFlags(cmd, export)
		},
	}

	fs := cmd.Flags()
	fs.String("platform", "", "target platform: windows, linux or macosx (default host)")
	fs.String("lib-dir", "", "library directory added with -L (CEF_LIB_DIR)")
	fs.StringSlice("capability", nil, "enable an optional library (sandbox)")
	fs.BoolVar(&export, "export", false, "print as a shell CGO_LDFLAGS assignment")
	return cmd
}

func (app *App) runLDFlags(cmd *cobra.Command, export bool) error {
	stderr := cmd.ErrOrStderr()

	cfg, err := app.loadConfig(cmd)
	if err != nil {
		return app.fail(stderr, err, "load configuration", app.configPath)
	}
	target, err := cfg.Target()
	if err != nil {
		return app.fail(stderr, err, "select target platform", cfg.Platform)
	}

	libDir := cfg.LibDir.String()
	if libDir != "" {
		if libDir, err = filepath.Abs(libDir); err != nil {
			return app.fail(stderr, err, "resolve library directory", cfg.LibDir.String())
		}
	}

	set, err := linkflags.For(target, libDir, cfg.Capabilities...)
	if err != nil {
		return app.fail(stderr, err, "compute linker flags", target.String())
	}

	if export {
		fmt.Fprintf(cmd.OutOrStdout(), "export CGO_LDFLAGS=%q\n", set.String())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), set.String())
	return nil
}
