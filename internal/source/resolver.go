// SPDX-License-Identifier: MPL-2.0

package source

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // CEF publishes SHA-1 sidecars; integrity only.
	"encoding/hex"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/cefkit/cefkit/pkg/cefdist"
)

// ChecksumSuffix is appended to a locator to fetch its published SHA-1.
const ChecksumSuffix = ".sha1"

type (
	// Archive is a resolved distribution archive. Callers must Close it.
	Archive struct {
		io.ReadCloser
		Name   string
		Cached bool // served from the cache without network access
	}

	// Resolver turns an Identity into an archive byte stream.
	Resolver struct {
		cache    *Cache
		baseURL  string
		suffix   string
		verify   bool
		s3Config S3Config
		logger   *log.Logger

		mu      sync.Mutex
		fetcher Fetcher
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// WithCacheDir enables the archive cache rooted at dir.
func WithCacheDir(dir string) Option {
	return func(r *Resolver) {
		if dir != "" {
			r.cache = NewCache(dir)
		}
	}
}

// WithBaseURL sets the distribution base URL. s3:// URLs select the S3
// fetcher; anything else is fetched over HTTP.
func WithBaseURL(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.baseURL = base
		}
	}
}

// WithArchiveSuffix selects the compression a mirror serves archives in,
// one of cefdist.ArchiveSuffixes. The cache keys entries by the same name.
func WithArchiveSuffix(suffix string) Option {
	return func(r *Resolver) {
		if suffix != "" {
			r.suffix = suffix
		}
	}
}

// WithFetcher overrides fetcher selection.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithS3Config sets the S3 connection settings used for s3:// base URLs.
func WithS3Config(cfg S3Config) Option {
	return func(r *Resolver) {
		r.s3Config = cfg
	}
}

// WithChecksum enables SHA-1 verification of fetched archives.
func WithChecksum(verify bool) Option {
	return func(r *Resolver) {
		r.verify = verify
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver. Without WithCacheDir every call fetches.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		baseURL: cefdist.DefaultBaseURL,
		suffix:  cefdist.ArchiveSuffix,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the resolver's cache, or nil when caching is disabled.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve returns the archive for id. A valid cached copy is opened without
// touching the network. Otherwise the archive is fetched in exactly one
// attempt, optionally checksummed, and written back to the cache on a
// best-effort basis.
func (r *Resolver) Resolve(ctx context.Context, id cefdist.Identity) (*Archive, error) {
	name := id.ArchiveNameWithSuffix(r.suffix)

	if r.cache != nil {
		f, ok, err := r.cache.Open(name)
		switch {
		case err != nil:
			r.logger.Warn("ignoring unreadable cached archive", "path", r.cache.Path(name), "err", err)
		case ok:
			r.logger.Debug("using cached archive", "path", r.cache.Path(name))
			return &Archive{ReadCloser: f, Name: name, Cached: true}, nil
		}
	}

	fetcher, err := r.fetcherFor(ctx)
	if err != nil {
		return nil, &TransportError{Locator: r.baseURL, Err: err}
	}

	locator := id.LocatorWithSuffix(r.baseURL, r.suffix)
	r.logger.Info("Fetching", "url", locator)
	data, err := fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	if r.verify {
		if err := r.checkSum(ctx, fetcher, locator, name, data); err != nil {
			return nil, err
		}
	}

	if r.cache != nil {
		if err := r.cache.Store(name, data); err != nil {
			r.logger.Warn("could not populate archive cache", "err", err)
		} else {
			r.logger.Debug("cached archive", "path", r.cache.Path(name))
		}
	}

	return &Archive{ReadCloser: io.NopCloser(bytes.NewReader(data)), Name: name}, nil
}

func (r *Resolver) checkSum(ctx context.Context, f Fetcher, locator, name string, data []byte) error {
	published, err := f.Fetch(ctx, locator+ChecksumSuffix)
	if err != nil {
		return err
	}
	fields := strings.Fields(string(published))
	want := ""
	if len(fields) > 0 {
		want = strings.ToLower(fields[0])
	}
	sum := sha1.Sum(data) //nolint:gosec // see import
	got := hex.EncodeToString(sum[:])
	if got != want {
		return &ChecksumError{Archive: name, Want: want, Got: got}
	}
	return nil
}

// fetcherFor returns the configured fetcher, building one for the base URL
// scheme on first use.
func (r *Resolver) fetcherFor(ctx context.Context) (Fetcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fetcher != nil {
		return r.fetcher, nil
	}
	if isS3(r.baseURL) {
		f, err := NewS3Fetcher(ctx, r.s3Config)
		if err != nil {
			return nil, err
		}
		r.fetcher = f
		return f, nil
	}
	r.fetcher = NewHTTPFetcher()
	return r.fetcher, nil
}
