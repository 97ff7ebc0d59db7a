// SPDX-License-Identifier: MPL-2.0

package linkflags

import (
	"errors"
	"slices"
	"testing"

	"github.com/cefkit/cefkit/pkg/platform"
)

func TestFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		platform     platform.Platform
		libDir       string
		capabilities []string
		want         []string
	}{
		{
			name:     "linux",
			platform: platform.PlatformLinux,
			libDir:   "/out/lib",
			want:     []string{"-L/out/lib", "-lcef", "-lEGL", "-lGLESv2"},
		},
		{
			name:     "windows without sandbox",
			platform: platform.PlatformWindows,
			want:     []string{"-llibcef", "-lwbemuuid", "-lpropsys"},
		},
		{
			name:         "windows with sandbox",
			platform:     platform.PlatformWindows,
			capabilities: []string{CapabilitySandbox},
			want:         []string{"-lcef_sandbox", "-llibcef", "-lwbemuuid", "-lpropsys"},
		},
		{
			name:     "macos",
			platform: platform.PlatformMacOS,
			libDir:   "/out/lib",
			want:     []string{"-L/out/lib", "-lcef_dll_wrapper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			set, err := For(tt.platform, tt.libDir, tt.capabilities...)
			if err != nil {
				t.Fatalf("For() unexpected error: %v", err)
			}
			if got := set.Flags(); !slices.Equal(got, tt.want) {
				t.Errorf("Flags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFor_InvalidPlatform(t *testing.T) {
	t.Parallel()

	_, err := For(platform.Platform(0), "")
	if !errors.Is(err, platform.ErrPlatformUnsupported) {
		t.Errorf("For() error = %v, want ErrPlatformUnsupported", err)
	}
}

func TestSet_String(t *testing.T) {
	t.Parallel()

	s := Set{SearchDirs: []string{"/My Libs"}, Libraries: []string{"cef"}}
	if got, want := s.String(), "'-L/My Libs' -lcef"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLibraries_ReturnsCopy(t *testing.T) {
	t.Parallel()

	libs := Libraries(platform.PlatformLinux)
	libs[0].Name = "changed"
	if Libraries(platform.PlatformLinux)[0].Name != "cef" {
		t.Error("Libraries() exposed the shared table")
	}
}
