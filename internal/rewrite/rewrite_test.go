// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

const top = "cef_binary_84.3.10+ga46056b+chromium-84.0.4147.105_linux64"

func linuxRelease() cefdist.Identity {
	return cefdist.Identity{
		Version:  "84.3.10+ga46056b+chromium-84.0.4147.105",
		Platform: platform.PlatformLinux,
		OptLevel: cefdist.OptRelease,
	}
}

func mustBuild(t *testing.T, id cefdist.Identity, dest Destinations) *Table {
	t.Helper()
	table, err := Build(id, dest)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return table
}

func TestBuild_LinuxScenario(t *testing.T) {
	t.Parallel()

	lib := filepath.FromSlash("/out/lib")
	inc := filepath.FromSlash("/out/include")
	table := mustBuild(t, linuxRelease(), Destinations{LibDir: lib, HeaderDir: inc})

	tests := []struct {
		entry string
		want  string
	}{
		{top + "/Release/libcef.so", filepath.Join(lib, "libcef.so")},
		{top + "/Release/swiftshader/libEGL.so", filepath.Join(lib, "swiftshader", "libEGL.so")},
		{top + "/Resources/icudtl.dat", filepath.Join(lib, "icudtl.dat")},
		{top + "/Resources/locales/en-US.pak", filepath.Join(lib, "locales", "en-US.pak")},
		{top + "/include/cef_version.h", filepath.Join(inc, "cef_version.h")},
		{top + "/Release/snapshot_blob.bin", filepath.Join(lib, "snapshot_blob.bin")},
		{top + "/Resources/cef.pak", filepath.Join(lib, "cef.pak")},
		{top + "/include/capi/cef_app_capi.h", filepath.Join(inc, "capi", "cef_app_capi.h")},
	}
	for _, tt := range tests {
		m, ok, err := table.Lookup(tt.entry)
		if err != nil || !ok {
			t.Errorf("Lookup(%q) = ok %v, err %v; want match", tt.entry, ok, err)
			continue
		}
		if m.Path != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.entry, m.Path, tt.want)
		}
	}
}

func TestBuild_DiscardsUnmatched(t *testing.T) {
	t.Parallel()

	table := mustBuild(t, linuxRelease(), Destinations{LibDir: "/out/lib", HeaderDir: "/out/include"})

	for _, entry := range []string{
		top + "/Debug/libcef.so",
		top + "/Release/libcef.dll",
		top + "/Release/nested/dir/libfoo.so",
		top + "/libcef_dll/wrapper/cef_byte_read_handler.cc",
		top + "/cmake/FindCEF.cmake",
		top + "/include/cef_version.h.in",
		top + "/README.txt",
		top,
		"Release/libcef.so",
	} {
		if _, ok, err := table.Lookup(entry); ok || err != nil {
			t.Errorf("Lookup(%q) = ok %v, err %v; want discard", entry, ok, err)
		}
	}
}

func TestBuild_RuleOrder(t *testing.T) {
	t.Parallel()

	table := mustBuild(t, linuxRelease(), Destinations{
		LibDir:        "/l",
		ResourceDir:   "/r",
		HeaderDir:     "/h",
		WrapperSrcDir: "/w",
		MacrosDir:     "/m",
	})

	var roots []string
	for _, r := range table.Rules() {
		if len(roots) == 0 || roots[len(roots)-1] != r.Root {
			roots = append(roots, r.Root)
		}
	}
	want := []string{"/l", "/r", "/h", "/w", "/m"}
	if len(roots) != len(want) {
		t.Fatalf("rule roots = %v, want %v", roots, want)
	}
	for i := range want {
		if roots[i] != want[i] {
			t.Errorf("rule roots = %v, want %v", roots, want)
			break
		}
	}

	m, ok, _ := table.Lookup(top + "/Resources/icudtl.dat")
	if !ok || m.Path != filepath.Join("/r", "icudtl.dat") {
		t.Errorf("resource with explicit ResourceDir = %+v, %v", m, ok)
	}
}

func TestBuild_Platforms(t *testing.T) {
	t.Parallel()

	win := cefdist.Identity{Version: "1", Platform: platform.PlatformWindows, OptLevel: cefdist.OptDebug}
	table := mustBuild(t, win, Destinations{LibDir: "/lib"})
	for entry, want := range map[string]string{
		"x/Debug/libcef.dll":               "/lib/libcef.dll",
		"x/Debug/libcef.lib":               "/lib/libcef.lib",
		"x/Debug/swiftshader/libGLESv2.dll": "/lib/swiftshader/libGLESv2.dll",
		"x/Resources/locales/de.pak":       "/lib/locales/de.pak",
	} {
		m, ok, err := table.Lookup(entry)
		if !ok || err != nil || m.Path != filepath.FromSlash(want) {
			t.Errorf("windows Lookup(%q) = %q (%v, %v), want %q", entry, m.Path, ok, err, want)
		}
	}
	if _, ok, _ := table.Lookup("x/Release/libcef.dll"); ok {
		t.Error("windows Debug table matched a Release entry")
	}

	mac := cefdist.Identity{Version: "1", Platform: platform.PlatformMacOS, OptLevel: cefdist.OptRelease}
	table = mustBuild(t, mac, Destinations{LibDir: "/lib"})
	entry := "x/Release/Chromium Embedded Framework.framework/Resources/en.lproj/locale.pak"
	m, ok, err := table.Lookup(entry)
	want := filepath.FromSlash("/lib/Chromium Embedded Framework.framework/Resources/en.lproj/locale.pak")
	if !ok || err != nil || m.Path != want {
		t.Errorf("macOS Lookup(%q) = %q (%v, %v), want %q", entry, m.Path, ok, err, want)
	}
	if _, ok, _ := table.Lookup("x/Resources/icudtl.dat"); ok {
		t.Error("macOS table has resource rules, want none")
	}
}

func TestBuild_InvalidIdentity(t *testing.T) {
	t.Parallel()

	_, err := Build(cefdist.Identity{Version: "1", OptLevel: cefdist.OptRelease}, Destinations{LibDir: "/l"})
	if !errors.Is(err, platform.ErrPlatformUnsupported) {
		t.Errorf("Build() error = %v, want ErrPlatformUnsupported", err)
	}

	_, err = Build(cefdist.Identity{Version: "1", Platform: platform.PlatformLinux}, Destinations{LibDir: "/l"})
	if !errors.Is(err, cefdist.ErrInvalidOptLevel) {
		t.Errorf("Build() error = %v, want ErrInvalidOptLevel", err)
	}
}

func TestTable_FirstMatchWins(t *testing.T) {
	t.Parallel()

	table := New(
		Rule{Pattern: regexp.MustCompile(`^pkg/(special/.+)$`), Template: "/first/${1}", Root: "/first"},
		Rule{Pattern: regexp.MustCompile(`^pkg/(.+)$`), Template: "/second/${1}", Root: "/second"},
		Rule{Pattern: regexp.MustCompile(`^(.+)$`), Template: "/third/${1}", Root: "/third"},
	)

	tests := map[string]string{
		"pkg/special/a.txt": "/first/special/a.txt",
		"pkg/other/b.txt":   "/second/other/b.txt",
		"loose.txt":         "/third/loose.txt",
	}
	for entry, want := range tests {
		m, ok, err := table.Lookup(entry)
		if !ok || err != nil || m.Path != filepath.FromSlash(want) {
			t.Errorf("Lookup(%q) = %q (%v, %v), want %q", entry, m.Path, ok, err, want)
		}
	}
}

func TestTable_RejectsEscapes(t *testing.T) {
	t.Parallel()

	table := mustBuild(t, linuxRelease(), Destinations{HeaderDir: "/out/include"})

	_, ok, err := table.Lookup(top + "/include/../../../etc/evil.h")
	if ok {
		t.Fatal("Lookup() matched an escaping path")
	}
	var escErr *EscapeError
	if !errors.As(err, &escErr) {
		t.Fatalf("Lookup() error = %v, want *EscapeError", err)
	}
}

func TestTable_DollarInDestination(t *testing.T) {
	t.Parallel()

	lib := filepath.FromSlash("/builds/$HOME/${1}x")
	table := mustBuild(t, linuxRelease(), Destinations{LibDir: lib})

	m, ok, err := table.Lookup(top + "/Release/libcef.so")
	if !ok || err != nil {
		t.Fatalf("Lookup() = ok %v, err %v", ok, err)
	}
	if want := filepath.Join(lib, "libcef.so"); m.Path != want {
		t.Errorf("Lookup() = %q, want %q", m.Path, want)
	}
}

func TestTable_LeadingDotSlash(t *testing.T) {
	t.Parallel()

	table := mustBuild(t, linuxRelease(), Destinations{LibDir: "/out/lib"})
	m, ok, err := table.Lookup("./" + top + "/Release/libcef.so")
	if !ok || err != nil || m.Path != filepath.FromSlash("/out/lib/libcef.so") {
		t.Errorf("Lookup(./...) = %q (%v, %v)", m.Path, ok, err)
	}
}

func TestDestinations(t *testing.T) {
	t.Parallel()

	if !(Destinations{}).IsEmpty() {
		t.Error("zero Destinations.IsEmpty() = false")
	}

	d := Destinations{HeaderDir: "/explicit"}.WithProjectDir("/proj")
	if d.HeaderDir != "/explicit" {
		t.Errorf("WithProjectDir overrode HeaderDir: %q", d.HeaderDir)
	}
	if d.WrapperSrcDir != filepath.Join("/proj", "libcef_dll") || d.MacrosDir != filepath.Join("/proj", "cmake") {
		t.Errorf("WithProjectDir() = %+v", d)
	}

	abs, err := Destinations{LibDir: "rel/lib"}.Abs()
	if err != nil {
		t.Fatalf("Abs() unexpected error: %v", err)
	}
	if !filepath.IsAbs(abs.LibDir) || abs.HeaderDir != "" {
		t.Errorf("Abs() = %+v", abs)
	}
}
