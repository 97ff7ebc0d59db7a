// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cefkit/cefkit/internal/config"
)

const (
	formatCUE  = "cue"
	formatTOML = "toml"
)

// newConfigCommand creates the `cefkit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect cefkit configuration",
		Long: `Inspect cefkit configuration.

Settings are read from cefkit.cue in the user config directory (or the
working directory), then from CEF_* environment variables, then from flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd, format)
		},
	}
	showCmd.Flags().StringVar(&format, "format", formatCUE, "output format: cue or toml")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfigPath(cmd)
		},
	})

	return cfgCmd
}

func (app *App) showConfig(cmd *cobra.Command, format string) error {
	stderr := cmd.ErrOrStderr()
	cfg, err := app.loadConfig(cmd)
	if err != nil {
		return app.fail(stderr, err, "load configuration", app.configPath)
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatCUE:
		fmt.Fprint(out, config.GenerateCUE(cfg))
	case formatTOML:
		data, err := config.GenerateTOML(cfg)
		if err != nil {
			return app.fail(stderr, err, "render configuration", "")
		}
		fmt.Fprint(out, string(data))
	default:
		return app.fail(stderr, fmt.Errorf("unknown format %q (valid: cue, toml)", format), "render configuration", "")
	}
	return nil
}

func (app *App) showConfigPath(cmd *cobra.Command) error {
	if app.configPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), app.configPath)
		return nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return app.fail(cmd.ErrOrStderr(), err, "locate configuration directory", "")
	}
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
