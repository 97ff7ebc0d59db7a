// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Platform
		wantErr bool
	}{
		{"windows", "windows", PlatformWindows, false},
		{"linux", "linux", PlatformLinux, false},
		{"macosx token", "macosx", PlatformMacOS, false},
		{"macos alias", "macOS", PlatformMacOS, false},
		{"darwin goos", "darwin", PlatformMacOS, false},
		{"surrounding space", "  Linux ", PlatformLinux, false},
		{"unknown", "freebsd", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrPlatformUnsupported) {
					t.Fatalf("Parse(%q) error = %v, want ErrPlatformUnsupported", tt.input, err)
				}
				var pe *PlatformUnsupportedError
				if !errors.As(err, &pe) || pe.Value != tt.input {
					t.Errorf("Parse(%q) error value = %v, want %q", tt.input, err, tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromGOOS(t *testing.T) {
	t.Parallel()

	for goos, want := range map[string]Platform{
		Windows: PlatformWindows,
		Linux:   PlatformLinux,
		Darwin:  PlatformMacOS,
	} {
		got, err := FromGOOS(goos)
		if err != nil {
			t.Fatalf("FromGOOS(%q) unexpected error: %v", goos, err)
		}
		if got != want {
			t.Errorf("FromGOOS(%q) = %v, want %v", goos, got, want)
		}
	}

	if _, err := FromGOOS("plan9"); !errors.Is(err, ErrPlatformUnsupported) {
		t.Errorf("FromGOOS(plan9) error = %v, want ErrPlatformUnsupported", err)
	}
}

func TestPlatformToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    Platform
		want string
	}{
		{PlatformWindows, "windows"},
		{PlatformLinux, "linux"},
		{PlatformMacOS, "macosx"},
		{Platform(0), ""},
		{Platform(42), ""},
	}
	for _, tt := range tests {
		if got := tt.p.Token(); got != tt.want {
			t.Errorf("%v.Token() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestPlatformIsValid(t *testing.T) {
	t.Parallel()

	for _, p := range All() {
		if ok, errs := p.IsValid(); !ok {
			t.Errorf("%v.IsValid() = false, errs %v", p, errs)
		}
	}

	ok, errs := Platform(0).IsValid()
	if ok {
		t.Fatal("zero Platform.IsValid() = true, want false")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrPlatformUnsupported) {
		t.Errorf("zero Platform.IsValid() errs = %v", errs)
	}
}
