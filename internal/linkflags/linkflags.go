// SPDX-License-Identifier: MPL-2.0

// Package linkflags lists the native libraries a CEF consumer links against
// and renders them as linker flags for CGO_LDFLAGS.
package linkflags

import (
	"slices"
	"strings"

	"github.com/cefkit/cefkit/pkg/platform"
)

// CapabilitySandbox links the Windows sandbox library.
const CapabilitySandbox = "sandbox"

type (
	// Library is one link-time dependency.
	Library struct {
		Name string
		// Capability gates the library; empty means always linked.
		Capability string
	}

	// Set is the ordered link configuration for one platform.
	Set struct {
		SearchDirs []string
		Libraries  []string
	}
)

// libraries is the per-platform link order. The wbemuuid and propsys system
// libraries are required by libcef on Windows but not pulled in by it.
var libraries = map[platform.Platform][]Library{
	platform.PlatformWindows: {
		{Name: "cef_sandbox", Capability: CapabilitySandbox},
		{Name: "libcef"},
		{Name: "wbemuuid"},
		{Name: "propsys"},
	},
	platform.PlatformLinux: {
		{Name: "cef"},
		{Name: "EGL"},
		{Name: "GLESv2"},
	},
	platform.PlatformMacOS: {
		{Name: "cef_dll_wrapper"},
	},
}

// Libraries returns every library known for p, gated or not.
func Libraries(p platform.Platform) []Library {
	return slices.Clone(libraries[p])
}

// For returns the link set for p with the given capabilities enabled.
// libDir, when set, is added as a search directory.
func For(p platform.Platform, libDir string, capabilities ...string) (Set, error) {
	if ok, errs := p.IsValid(); !ok {
		return Set{}, errs[0]
	}

	var s Set
	if libDir != "" {
		s.SearchDirs = []string{libDir}
	}
	for _, lib := range libraries[p] {
		if lib.Capability != "" && !slices.Contains(capabilities, lib.Capability) {
			continue
		}
		s.Libraries = append(s.Libraries, lib.Name)
	}
	return s, nil
}

// Flags renders the set as -L and -l arguments.
func (s Set) Flags() []string {
	flags := make([]string, 0, len(s.SearchDirs)+len(s.Libraries))
	for _, d := range s.SearchDirs {
		flags = append(flags, "-L"+d)
	}
	for _, l := range s.Libraries {
		flags = append(flags, "-l"+l)
	}
	return flags
}

// String joins Flags with spaces, quoting arguments that contain spaces.
func (s Set) String() string {
	flags := s.Flags()
	for i, f := range flags {
		if strings.ContainsAny(f, " \t") {
			flags[i] = "'" + strings.ReplaceAll(f, "'", `'\''`) + "'"
		}
	}
	return strings.Join(flags, " ")
}
