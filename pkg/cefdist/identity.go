// SPDX-License-Identifier: MPL-2.0

package cefdist

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cefkit/cefkit/pkg/platform"
)

const (
	// OptDebug selects the Debug build of a distribution.
	OptDebug OptLevel = "Debug"
	// OptRelease selects the Release build of a distribution.
	OptRelease OptLevel = "Release"

	// DefaultBaseURL is the public CEF build index.
	DefaultBaseURL = "https://cef-builds.spotifycdn.com/"

	// ArchiveSuffix is the suffix of every published distribution archive.
	ArchiveSuffix = ".tar.bz2"
	// SuffixGzip, SuffixZstd and SuffixLZ4 are the recompressed forms a
	// mirror may serve instead.
	SuffixGzip = ".tar.gz"
	SuffixZstd = ".tar.zst"
	SuffixLZ4  = ".tar.lz4"

	archivePrefix = "cef_binary_"
)

var (
	// ErrInvalidOptLevel is the sentinel error wrapped by InvalidOptLevelError.
	ErrInvalidOptLevel = errors.New("invalid optimization level")
	// ErrInvalidVersion is returned when a version string is empty or contains
	// a path separator.
	ErrInvalidVersion = errors.New("invalid CEF version")
	// ErrInvalidArchiveSuffix is the sentinel error wrapped by
	// InvalidArchiveSuffixError.
	ErrInvalidArchiveSuffix = errors.New("invalid archive suffix")

	// ArchiveSuffixes lists the suffixes an archive may carry, the
	// published one first.
	ArchiveSuffixes = []string{ArchiveSuffix, SuffixGzip, SuffixZstd, SuffixLZ4}
)

type (
	// OptLevel is the optimization level of a distribution. Its value doubles
	// as the name of the directory the binaries live under inside the archive.
	OptLevel string

	// InvalidOptLevelError is returned when an OptLevel value is not recognized.
	// It wraps ErrInvalidOptLevel for errors.Is() compatibility.
	InvalidOptLevelError struct {
		Value OptLevel
	}

	// InvalidArchiveSuffixError is returned for a suffix outside
	// ArchiveSuffixes.
	InvalidArchiveSuffixError struct {
		Value string
	}

	// Identity names one CEF distribution. It is a comparable value type and
	// is never mutated after construction.
	Identity struct {
		Version  string
		Platform platform.Platform
		OptLevel OptLevel
	}
)

// ParseOptLevel converts a user-supplied optimization level, case-insensitively.
func ParseOptLevel(s string) (OptLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return OptDebug, nil
	case "release":
		return OptRelease, nil
	}
	return "", &InvalidOptLevelError{Value: OptLevel(s)}
}

// IsValid returns whether the OptLevel is Debug or Release.
func (o OptLevel) IsValid() (bool, []error) {
	switch o {
	case OptDebug, OptRelease:
		return true, nil
	}
	return false, []error{&InvalidOptLevelError{Value: o}}
}

// String returns the directory name of the optimization level.
func (o OptLevel) String() string { return string(o) }

// Error implements the error interface for InvalidOptLevelError.
func (e *InvalidOptLevelError) Error() string {
	return fmt.Sprintf("invalid optimization level %q (valid: Debug, Release)", e.Value)
}

// Unwrap returns ErrInvalidOptLevel for errors.Is() compatibility.
func (e *InvalidOptLevelError) Unwrap() error { return ErrInvalidOptLevel }

// Error implements the error interface for InvalidArchiveSuffixError.
func (e *InvalidArchiveSuffixError) Error() string {
	return fmt.Sprintf("invalid archive suffix %q (valid: %s)", e.Value, strings.Join(ArchiveSuffixes, ", "))
}

// Unwrap returns ErrInvalidArchiveSuffix for errors.Is() compatibility.
func (e *InvalidArchiveSuffixError) Unwrap() error { return ErrInvalidArchiveSuffix }

// ValidateArchiveSuffix accepts the empty string, meaning ArchiveSuffix, and
// every entry of ArchiveSuffixes.
func ValidateArchiveSuffix(suffix string) error {
	if suffix == "" {
		return nil
	}
	for _, s := range ArchiveSuffixes {
		if s == suffix {
			return nil
		}
	}
	return &InvalidArchiveSuffixError{Value: suffix}
}

// NewIdentity validates its inputs and returns the resulting Identity.
// The version is caller-supplied and only checked for being usable inside a
// file name; CEF version strings are not semantic versions.
func NewIdentity(version string, p platform.Platform, opt OptLevel) (Identity, error) {
	id := Identity{Version: version, Platform: p, OptLevel: opt}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Validate reports the first problem with the identity, if any.
func (id Identity) Validate() error {
	if ok, errs := id.Platform.IsValid(); !ok {
		return errs[0]
	}
	if ok, errs := id.OptLevel.IsValid(); !ok {
		return errs[0]
	}
	if strings.TrimSpace(id.Version) == "" || strings.ContainsAny(id.Version, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, id.Version)
	}
	return nil
}

// ArchiveName returns the distribution file name, e.g.
// cef_binary_84.3.10+ga46056b+chromium-84.0.4147.105_linux64.tar.bz2.
func (id Identity) ArchiveName() string {
	return id.ArchiveNameWithSuffix(ArchiveSuffix)
}

// ArchiveNameWithSuffix returns the file name under which a mirror serving
// suffix stores the distribution. An empty suffix means ArchiveSuffix.
func (id Identity) ArchiveNameWithSuffix(suffix string) string {
	if suffix == "" {
		suffix = ArchiveSuffix
	}
	return fmt.Sprintf("%s%s_%s64%s", archivePrefix, id.Version, id.Platform.Token(), suffix)
}

// Locator joins baseURL with the percent-encoded archive name. Every byte
// outside [A-Za-z0-9-_.~] is escaped, so the '+' separators in CEF versions
// become %2B as the build index expects.
func (id Identity) Locator(baseURL string) string {
	return id.LocatorWithSuffix(baseURL, ArchiveSuffix)
}

// LocatorWithSuffix is Locator for a mirror serving suffix.
func (id Identity) LocatorWithSuffix(baseURL, suffix string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + EscapeName(id.ArchiveNameWithSuffix(suffix))
}

// String returns a short human-readable form used in log lines.
func (id Identity) String() string {
	return fmt.Sprintf("%s (%s %s)", id.Version, id.Platform.Token(), id.OptLevel)
}

// EscapeName percent-encodes a file name for use as the last URL path segment.
func EscapeName(name string) string {
	// QueryEscape only differs from full escaping on spaces, which it turns
	// into '+'; CEF archive names never contain spaces but guard anyway.
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// ParseArchiveName is the inverse of Identity.ArchiveNameWithSuffix for
// every suffix in ArchiveSuffixes. The returned Identity has no OptLevel
// because archive names do not carry one.
func ParseArchiveName(name string) (Identity, bool) {
	rest, ok := strings.CutPrefix(name, archivePrefix)
	if !ok {
		return Identity{}, false
	}
	cut := false
	for _, suffix := range ArchiveSuffixes {
		if trimmed, found := strings.CutSuffix(rest, "64"+suffix); found {
			rest, cut = trimmed, true
			break
		}
	}
	if !cut {
		return Identity{}, false
	}
	sep := strings.LastIndexByte(rest, '_')
	if sep <= 0 {
		return Identity{}, false
	}
	p, err := platform.Parse(rest[sep+1:])
	if err != nil {
		return Identity{}, false
	}
	return Identity{Version: rest[:sep], Platform: p}, true
}
