// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cefkit/cefkit/internal/config"
	"github.com/cefkit/cefkit/internal/source"
	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

// errNoArchiveDir is returned by cache commands when caching is disabled.
var errNoArchiveDir = errors.New("no archive directory configured")

// maxConcurrentWarm bounds parallel downloads in 'cache warm'.
const maxConcurrentWarm = 3

func newCacheCommand(app *App) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the archive cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cacheCmd.PersistentFlags().String("archive-dir", "", "archive cache directory (CEF_ARCHIVE_DIR)")

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached archives, oldest version first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runCacheList(cmd)
		},
	})

	var keep int
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest cached archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runCachePrune(cmd, keep)
		},
	}
	pruneCmd.Flags().IntVar(&keep, "keep", 1, "number of archives to keep")
	cacheCmd.AddCommand(pruneCmd)

	var platforms []string
	warmCmd := &cobra.Command{
		Use:   "warm",
		Short: "Download archives for several platforms into the cache",
		Example: `  cefkit cache warm --cef-version 84.3.10+ga46056b+chromium-84.0.4147.105 \
    --platform windows --platform linux --platform macosx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runCacheWarm(cmd, platforms)
		},
	}
	fs := warmCmd.Flags()
	fs.String("cef-version", "", "CEF version (CEF_VERSION)")
	fs.String("opt-level", "", "Debug or Release (CEF_OPT_LEVEL)")
	fs.StringSliceVar(&platforms, "platform", nil, "platforms to fetch (default: configured platform)")
	fs.String("base-url", "", "distribution index, http(s):// or s3:// (CEF_BASE_URL)")
	fs.Bool("verify-checksum", false, "verify archives against the published .sha1 (CEF_VERIFY_CHECKSUM)")
	cacheCmd.AddCommand(warmCmd)

	return cacheCmd
}

// openCache loads configuration and returns the archive cache it names.
func (app *App) openCache(cmd *cobra.Command) (*config.Config, *source.Cache, error) {
	cfg, err := app.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ArchiveDir == "" {
		return nil, nil, errNoArchiveDir
	}
	return cfg, source.NewCache(cfg.ArchiveDir.String()), nil
}

func (app *App) runCacheList(cmd *cobra.Command) error {
	_, cache, err := app.openCache(cmd)
	if err != nil {
		return app.fail(cmd.ErrOrStderr(), err, "open archive cache", "")
	}
	entries, err := cache.List()
	if err != nil {
		return app.fail(cmd.ErrOrStderr(), err, "list archive cache", cache.Dir())
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No cached archives in %s\n", CmdStyle.Render(cache.Dir()))
		return nil
	}
	renderEntries(out, entries)
	return nil
}

// renderEntries prints the cache listing as an aligned table.
func renderEntries(w io.Writer, entries []source.Entry) {
	rows := [][]string{{"VERSION", "PLATFORM", "SIZE", "MODIFIED"}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Identity.Version,
			e.Identity.Platform.Token(),
			formatSize(e.Size),
			e.ModTime.Format("2006-01-02 15:04"),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	for r, row := range rows {
		style := tableCellStyle
		if r == 0 {
			style = tableHeaderStyle
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, ""), " "))
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func (app *App) runCachePrune(cmd *cobra.Command, keep int) error {
	stderr := cmd.ErrOrStderr()
	if keep < 0 {
		return app.fail(stderr, fmt.Errorf("--keep must not be negative, got %d", keep), "prune archive cache", "")
	}

	_, cache, err := app.openCache(cmd)
	if err != nil {
		return app.fail(stderr, err, "open archive cache", "")
	}
	entries, err := cache.List()
	if err != nil {
		return app.fail(stderr, err, "list archive cache", cache.Dir())
	}

	removed := 0
	if len(entries) > keep {
		for _, e := range entries[:len(entries)-keep] {
			if err := cache.Remove(e.Name); err != nil {
				return app.fail(stderr, err, "prune archive cache", cache.Path(e.Name))
			}
			app.logger.Info("Removed", "archive", e.Name)
			removed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s removed %d archive(s), kept %d\n",
		SuccessStyle.Render("✓"), removed, len(entries)-removed)
	return nil
}

func (app *App) runCacheWarm(cmd *cobra.Command, platforms []string) error {
	stderr := cmd.ErrOrStderr()

	cfg, cache, err := app.openCache(cmd)
	if err != nil {
		return app.fail(stderr, err, "open archive cache", "")
	}
	ids, err := warmIdentities(cfg, platforms)
	if err != nil {
		return app.fail(stderr, err, "select CEF distributions", "")
	}

	resolver := source.New(
		source.WithCacheDir(cache.Dir()),
		source.WithBaseURL(cfg.BaseURL.String()),
		source.WithArchiveSuffix(cfg.ArchiveSuffix),
		source.WithChecksum(cfg.VerifyChecksum),
		source.WithS3Config(cfg.S3.Source()),
		source.WithLogger(app.logger),
	)

	var fetched, cached atomic.Int32
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxConcurrentWarm)
	for _, id := range ids {
		g.Go(func() error {
			archive, err := resolver.Resolve(ctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id.ArchiveNameWithSuffix(cfg.ArchiveSuffix), err)
			}
			if archive.Cached {
				cached.Add(1)
			} else {
				fetched.Add(1)
			}
			return archive.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return app.fail(stderr, err, "warm archive cache", cache.Dir())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d downloaded, %d already cached\n",
		SuccessStyle.Render("✓"), fetched.Load(), cached.Load())
	return nil
}

// warmIdentities returns one identity per distinct platform. Debug and
// Release builds ship in the same archive, so the opt level only has to be
// valid.
func warmIdentities(cfg *config.Config, platforms []string) ([]cefdist.Identity, error) {
	opt, err := cefdist.ParseOptLevel(cfg.OptLevel)
	if err != nil {
		return nil, err
	}

	var targets []platform.Platform
	if len(platforms) == 0 {
		p, err := cfg.Target()
		if err != nil {
			return nil, err
		}
		targets = append(targets, p)
	}
	for _, name := range platforms {
		p, err := platform.Parse(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, p)
	}

	seen := make(map[platform.Platform]bool)
	var ids []cefdist.Identity
	for _, p := range targets {
		if seen[p] {
			continue
		}
		seen[p] = true
		id, err := cefdist.NewIdentity(cfg.Version, p, opt)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
