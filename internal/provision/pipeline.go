// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/cefkit/cefkit/internal/buildhook"
	"github.com/cefkit/cefkit/internal/extract"
	"github.com/cefkit/cefkit/internal/rewrite"
	"github.com/cefkit/cefkit/internal/sentinel"
	"github.com/cefkit/cefkit/internal/source"
	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

// Pipeline is the Provisioner for one identity and destination set.
type Pipeline struct {
	id   cefdist.Identity
	dest rewrite.Destinations
	cfg  *Config
}

var _ Provisioner = (*Pipeline)(nil)

// New creates a Pipeline. Inputs are validated by Provision, before any I/O.
func New(id cefdist.Identity, dest rewrite.Destinations, opts ...Option) *Pipeline {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Pipeline{id: id, dest: dest, cfg: cfg}
}

// Resolver returns the archive resolver a run uses.
func (p *Pipeline) Resolver() *source.Resolver {
	opts := []source.Option{
		source.WithCacheDir(p.cfg.ArchiveDir),
		source.WithBaseURL(p.cfg.BaseURL),
		source.WithArchiveSuffix(p.cfg.ArchiveSuffix),
		source.WithChecksum(p.cfg.VerifyChecksum),
		source.WithS3Config(p.cfg.S3),
		source.WithLogger(p.cfg.Logger),
	}
	if p.cfg.Fetcher != nil {
		opts = append(opts, source.WithFetcher(p.cfg.Fetcher))
	}
	return source.New(opts...)
}

// Provision implements Provisioner.
func (p *Pipeline) Provision(ctx context.Context) (*Result, error) {
	logger := p.cfg.Logger

	if err := p.id.Validate(); err != nil {
		return nil, err
	}
	if err := cefdist.ValidateArchiveSuffix(p.cfg.ArchiveSuffix); err != nil {
		return nil, err
	}
	dest, err := p.dest.Abs()
	if err != nil {
		return nil, err
	}

	table, err := rewrite.Build(p.id, dest)
	if err != nil {
		return nil, err
	}

	sent, err := sentinel.New(p.id, p.cfg.ArchiveDir, dest)
	if err != nil {
		return nil, err
	}
	res := &Result{Identity: p.id, Sentinel: sent.String()}

	guard := sentinel.NewGuard(p.cfg.SentinelPath, sentinel.WithLogger(logger))
	if !p.cfg.Force && !guard.ShouldProvision(sent) {
		logger.Info("CEF already provisioned", "version", p.id.Version, "sentinel", guard.Path())
		res.Skipped = true
		return res, nil
	}

	for _, dir := range []string{dest.LibDir, dest.ResourceDir, dest.HeaderDir, dest.WrapperSrcDir, dest.MacrosDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating destination %s: %w", dir, err)
		}
	}

	archive, err := p.Resolver().Resolve(ctx, p.id)
	if err != nil {
		return nil, err
	}
	defer archive.Close()
	res.Cached = archive.Cached

	if dest.IsEmpty() {
		logger.Info("No destinations configured; archive resolved only", "archive", archive.Name)
		guard.Commit(sent)
		return res, nil
	}

	stream, err := extract.Decompress(archive.Name, archive)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	logger.Info("Extracting", "archive", archive.Name)
	res.Stats, err = extract.New(extract.WithLogger(logger)).Extract(ctx, stream, table)
	if err != nil {
		return nil, err
	}
	logger.Info("Extracted",
		"written", res.Stats.Written, "skipped", res.Stats.Skipped, "discarded", res.Stats.Discarded)

	guard.Commit(sent)

	if p.id.Platform == platform.PlatformMacOS && dest.WrapperSrcDir != "" && !p.cfg.SkipWrapperBuild {
		if err := p.buildWrapper(ctx, dest); err != nil {
			return nil, err
		}
		res.WrapperBuilt = true
	}

	return res, nil
}

func (p *Pipeline) buildWrapper(ctx context.Context, dest rewrite.Destinations) error {
	opts := []buildhook.Option{
		buildhook.WithOutput(p.cfg.HookStdout, p.cfg.HookStderr),
		buildhook.WithLogger(p.cfg.Logger),
	}
	if p.cfg.WrapperScript != "" {
		opts = append(opts, buildhook.WithScript(p.cfg.WrapperScript))
	}
	return buildhook.New(opts...).Run(ctx, buildhook.Inputs{
		Identity:   p.id,
		ArchiveDir: p.cfg.ArchiveDir,
		Dest:       dest,
	})
}
