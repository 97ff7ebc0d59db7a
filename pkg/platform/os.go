// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

const (
	// PlatformWindows targets 64-bit Windows distributions.
	PlatformWindows Platform = iota + 1
	// PlatformLinux targets 64-bit Linux distributions.
	PlatformLinux
	// PlatformMacOS targets 64-bit macOS distributions.
	PlatformMacOS
)

// ErrPlatformUnsupported is the sentinel error wrapped by PlatformUnsupportedError.
var ErrPlatformUnsupported = errors.New("unsupported platform")

type (
	// Platform is a target operating system for a CEF distribution.
	// The zero value is not a valid platform.
	Platform int

	// PlatformUnsupportedError is returned when a platform name or GOOS value
	// has no CEF distribution. It wraps ErrPlatformUnsupported for errors.Is().
	PlatformUnsupportedError struct {
		Value string
	}
)

// All returns every supported platform in a stable order.
func All() []Platform {
	return []Platform{PlatformWindows, PlatformLinux, PlatformMacOS}
}

// Parse converts a user-supplied platform name into a Platform.
// It accepts archive tokens ("windows", "linux", "macosx") as well as the
// GOOS spelling "darwin" and the common alias "macos", case-insensitively.
func Parse(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Windows:
		return PlatformWindows, nil
	case Linux:
		return PlatformLinux, nil
	case "macosx", "macos", Darwin:
		return PlatformMacOS, nil
	}
	return 0, &PlatformUnsupportedError{Value: name}
}

// FromGOOS maps a runtime.GOOS value to a Platform.
func FromGOOS(goos string) (Platform, error) {
	switch goos {
	case Windows:
		return PlatformWindows, nil
	case Linux:
		return PlatformLinux, nil
	case Darwin:
		return PlatformMacOS, nil
	}
	return 0, &PlatformUnsupportedError{Value: goos}
}

// Host returns the Platform of the running process.
func Host() (Platform, error) {
	return FromGOOS(runtime.GOOS)
}

// Token returns the name used for this platform in CEF archive file names.
// It returns an empty string for invalid platforms.
func (p Platform) Token() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformLinux:
		return "linux"
	case PlatformMacOS:
		return "macosx"
	}
	return ""
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformLinux:
		return "Linux"
	case PlatformMacOS:
		return "MacOS"
	}
	return fmt.Sprintf("Platform(%d)", int(p))
}

// IsValid returns whether p is one of the supported platforms.
func (p Platform) IsValid() (bool, []error) {
	if p.Token() == "" {
		return false, []error{&PlatformUnsupportedError{Value: p.String()}}
	}
	return true, nil
}

// Error implements the error interface for PlatformUnsupportedError.
func (e *PlatformUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform %q (valid: windows, linux, macosx)", e.Value)
}

// Unwrap returns ErrPlatformUnsupported for errors.Is() compatibility.
func (e *PlatformUnsupportedError) Unwrap() error { return ErrPlatformUnsupported }
