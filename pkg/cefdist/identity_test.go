// SPDX-License-Identifier: MPL-2.0

package cefdist

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/cefkit/cefkit/pkg/platform"
)

const scenarioVersion = "84.3.10+ga46056b+chromium-84.0.4147.105"

func TestArchiveName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform platform.Platform
		want     string
	}{
		{platform.PlatformLinux, "cef_binary_" + scenarioVersion + "_linux64.tar.bz2"},
		{platform.PlatformWindows, "cef_binary_" + scenarioVersion + "_windows64.tar.bz2"},
		{platform.PlatformMacOS, "cef_binary_" + scenarioVersion + "_macosx64.tar.bz2"},
	}
	for _, tt := range tests {
		id := Identity{Version: scenarioVersion, Platform: tt.platform, OptLevel: OptRelease}
		if got := id.ArchiveName(); got != tt.want {
			t.Errorf("ArchiveName(%v) = %q, want %q", tt.platform, got, tt.want)
		}
	}
}

func TestLocator(t *testing.T) {
	t.Parallel()

	id := Identity{Version: scenarioVersion, Platform: platform.PlatformLinux, OptLevel: OptRelease}
	want := "https://mirror.example/cef/cef_binary_84.3.10%2Bga46056b%2Bchromium-84.0.4147.105_linux64.tar.bz2"

	for _, base := range []string{"https://mirror.example/cef", "https://mirror.example/cef/"} {
		if got := id.Locator(base); got != want {
			t.Errorf("Locator(%q) = %q, want %q", base, got, want)
		}
	}

	if got := id.Locator(""); got != DefaultBaseURL+EscapeName(id.ArchiveName()) {
		t.Errorf("Locator(\"\") = %q, want default base URL", got)
	}
}

func TestEscapeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain.tar.bz2": "plain.tar.bz2",
		"a+b":           "a%2Bb",
		"a b":           "a%20b",
		"a/b":           "a%2Fb",
		"a~b_c-d":       "a~b_c-d",
	}
	for in, want := range tests {
		if got := EscapeName(in); got != want {
			t.Errorf("EscapeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewIdentity(t *testing.T) {
	t.Parallel()

	if _, err := NewIdentity(scenarioVersion, platform.PlatformLinux, OptRelease); err != nil {
		t.Fatalf("NewIdentity() unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		version string
		p       platform.Platform
		opt     OptLevel
		wantErr error
	}{
		{"bad platform", scenarioVersion, platform.Platform(0), OptRelease, platform.ErrPlatformUnsupported},
		{"bad opt level", scenarioVersion, platform.PlatformLinux, OptLevel("Fast"), ErrInvalidOptLevel},
		{"empty version", "", platform.PlatformLinux, OptDebug, ErrInvalidVersion},
		{"version with slash", "1.2/3", platform.PlatformLinux, OptDebug, ErrInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewIdentity(tt.version, tt.p, tt.opt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewIdentity() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOptLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]OptLevel{"debug": OptDebug, "Release": OptRelease, " RELEASE ": OptRelease} {
		got, err := ParseOptLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseOptLevel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseOptLevel("minsize"); !errors.Is(err, ErrInvalidOptLevel) {
		t.Errorf("ParseOptLevel(minsize) error = %v, want ErrInvalidOptLevel", err)
	}
}

func TestParseArchiveName(t *testing.T) {
	t.Parallel()

	id := Identity{Version: scenarioVersion, Platform: platform.PlatformMacOS}
	got, ok := ParseArchiveName(id.ArchiveName())
	if !ok {
		t.Fatalf("ParseArchiveName(%q) ok = false", id.ArchiveName())
	}
	if got != id {
		t.Errorf("ParseArchiveName() = %+v, want %+v", got, id)
	}

	for _, bad := range []string{"", "cef_binary_.tar.bz2", "other_1.0_linux64.tar.bz2", "cef_binary_1.0_beos64.tar.bz2", "cef_binary_1.0_linux64.zip"} {
		if _, ok := ParseArchiveName(bad); ok {
			t.Errorf("ParseArchiveName(%q) ok = true, want false", bad)
		}
	}
}

func TestArchiveNameWithSuffix(t *testing.T) {
	t.Parallel()

	id := Identity{Version: scenarioVersion, Platform: platform.PlatformLinux}
	for _, suffix := range ArchiveSuffixes {
		name := id.ArchiveNameWithSuffix(suffix)
		if !strings.HasSuffix(name, "_linux64"+suffix) {
			t.Errorf("ArchiveNameWithSuffix(%q) = %q", suffix, name)
		}
		got, ok := ParseArchiveName(name)
		if !ok || got != id {
			t.Errorf("ParseArchiveName(%q) = %+v, %v; want %+v", name, got, ok, id)
		}
	}
	if got := id.ArchiveNameWithSuffix(""); got != id.ArchiveName() {
		t.Errorf("ArchiveNameWithSuffix(\"\") = %q, want %q", got, id.ArchiveName())
	}

	want := "https://mirror.example/cef/" + EscapeName(id.ArchiveNameWithSuffix(SuffixZstd))
	if got := id.LocatorWithSuffix("https://mirror.example/cef", SuffixZstd); got != want {
		t.Errorf("LocatorWithSuffix() = %q, want %q", got, want)
	}
}

func TestValidateArchiveSuffix(t *testing.T) {
	t.Parallel()

	for _, ok := range append([]string{""}, ArchiveSuffixes...) {
		if err := ValidateArchiveSuffix(ok); err != nil {
			t.Errorf("ValidateArchiveSuffix(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{".zip", "tar.gz", ".tar.xz"} {
		if err := ValidateArchiveSuffix(bad); !errors.Is(err, ErrInvalidArchiveSuffix) {
			t.Errorf("ValidateArchiveSuffix(%q) = %v, want ErrInvalidArchiveSuffix", bad, err)
		}
	}
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	versions := []string{
		"84.3.10+ga46056b+chromium-84.0.4147.105",
		"3.3578.1860+g2f3f4e4+chromium-70.0.3538.110",
		"not-a-version",
		"85.0.1+gabc+chromium-85.0.4183.83",
		"84.3.10+g0000000+chromium-84.0.4147.105",
	}
	slices.SortFunc(versions, CompareVersions)

	want := []string{
		"not-a-version",
		"3.3578.1860+g2f3f4e4+chromium-70.0.3538.110",
		"84.3.10+g0000000+chromium-84.0.4147.105",
		"84.3.10+ga46056b+chromium-84.0.4147.105",
		"85.0.1+gabc+chromium-85.0.4183.83",
	}
	if !slices.Equal(versions, want) {
		t.Errorf("sorted versions = %v, want %v", versions, want)
	}
}
