// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cefkit/cefkit/internal/provision"
)

func newFetchCommand(app *App) *cobra.Command {
	var (
		force     bool
		noWrapper bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a CEF distribution and extract it into the destinations",
		Long: `Download a CEF distribution and extract it into the destinations.

The archive is taken from the archive cache when present. Files that already
exist in a destination are kept. When the sentinel file records the same
inputs as this run, nothing is done; on macOS the run always happens so the
wrapper library can be rebuilt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runFetch(cmd, force, noWrapper)
		},
	}

	fs := cmd.Flags()
	addIdentityFlags(fs)
	addSourceFlags(fs)
	addDestinationFlags(fs)
	fs.BoolVar(&force, "force", false, "provision even when the sentinel matches")
	fs.BoolVar(&noWrapper, "no-wrapper-build", false, "skip the macOS wrapper library build")
	return cmd
}

func (app *App) runFetch(cmd *cobra.Command, force, noWrapper bool) error {
	stderr := cmd.ErrOrStderr()

	cfg, err := app.loadConfig(cmd)
	if err != nil {
		return app.fail(stderr, err, "load configuration", app.configPath)
	}
	id, err := cfg.Identity()
	if err != nil {
		return app.fail(stderr, err, "select CEF distribution", "")
	}

	opts, err := provision.OptionsFromConfig(cfg)
	if err != nil {
		return app.fail(stderr, err, "load wrapper build script", cfg.WrapperScript.String())
	}
	opts = append(opts,
		provision.WithForce(force),
		provision.WithLogger(app.logger),
		provision.WithHookOutput(stderr, stderr),
	)
	if noWrapper {
		opts = append(opts, provision.WithoutWrapperBuild())
	}

	res, err := provision.New(id, cfg.Destinations(), opts...).Provision(cmd.Context())
	if err != nil {
		return app.fail(stderr, err, "provision CEF", id.ArchiveNameWithSuffix(cfg.ArchiveSuffix))
	}

	out := cmd.OutOrStdout()
	switch {
	case res.Skipped:
		fmt.Fprintf(out, "%s %s is already provisioned\n", SuccessStyle.Render("✓"), CmdStyle.Render(id.Version))
	default:
		source := "downloaded"
		if res.Cached {
			source = "from cache"
		}
		fmt.Fprintf(out, "%s %s (%s): %d written, %d kept, %d ignored\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(id.ArchiveNameWithSuffix(cfg.ArchiveSuffix)), source,
			res.Stats.Written, res.Stats.Skipped, res.Stats.Discarded)
		if res.WrapperBuilt {
			fmt.Fprintf(out, "%s libcef_dll_wrapper built\n", SuccessStyle.Render("✓"))
		}
	}
	return nil
}
