// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

// capture is the placeholder substituted with the first capture group.
const capture = "${1}"

type (
	// Rule maps archive paths matching Pattern to Template, an absolute path
	// containing the ${1} placeholder (or a literal file name).
	Rule struct {
		Pattern  *regexp.Regexp
		Template string
		// Root is the destination directory the rule writes under. Rewritten
		// paths must stay inside it.
		Root string
	}

	// Destinations is the set of directories a provisioning run fills.
	// Empty fields are skipped.
	Destinations struct {
		LibDir        string
		ResourceDir   string
		HeaderDir     string
		WrapperSrcDir string
		MacrosDir     string
	}

	// Table is an ordered, immutable list of rules.
	Table struct {
		rules []Rule
	}

	// Match is the result of a successful lookup.
	Match struct {
		Path string
		Root string
	}

	// EscapeError reports a rewritten path that leaves its destination root.
	EscapeError struct {
		Entry string
		Path  string
		Root  string
	}

	// relRule is a rule before its destination directory is known.
	relRule struct {
		pattern  string
		template string
	}
)

// Error implements the error interface for EscapeError.
func (e *EscapeError) Error() string {
	return fmt.Sprintf("entry %q rewrites to %q outside of %q", e.Entry, e.Path, e.Root)
}

// IsEmpty reports whether no destination is set.
func (d Destinations) IsEmpty() bool {
	return d.LibDir == "" && d.ResourceDir == "" && d.HeaderDir == "" && d.WrapperSrcDir == "" && d.MacrosDir == ""
}

// Abs returns a copy with every set directory made absolute.
func (d Destinations) Abs() (Destinations, error) {
	var err error
	for _, p := range []*string{&d.LibDir, &d.ResourceDir, &d.HeaderDir, &d.WrapperSrcDir, &d.MacrosDir} {
		if *p == "" {
			continue
		}
		if *p, err = filepath.Abs(*p); err != nil {
			return Destinations{}, fmt.Errorf("resolving destination %q: %w", *p, err)
		}
	}
	return d, nil
}

// WithProjectDir fills HeaderDir, WrapperSrcDir and MacrosDir from a CMake
// project directory (include/, libcef_dll/, cmake/) where they are unset.
func (d Destinations) WithProjectDir(project string) Destinations {
	if project == "" {
		return d
	}
	if d.HeaderDir == "" {
		d.HeaderDir = filepath.Join(project, "include")
	}
	if d.WrapperSrcDir == "" {
		d.WrapperSrcDir = filepath.Join(project, "libcef_dll")
	}
	if d.MacrosDir == "" {
		d.MacrosDir = filepath.Join(project, "cmake")
	}
	return d
}

// libraryRules returns the binary rules for a platform. Patterns are
// anchored at both ends and skip the top-level cef_binary_* directory.
func libraryRules(p platform.Platform, opt cefdist.OptLevel) []relRule {
	o := regexp.QuoteMeta(opt.String())
	switch p {
	case platform.PlatformWindows:
		return []relRule{
			{`^[^/]+/` + o + `/([^/]+\.(lib|dll|bin))$`, capture},
			{`^[^/]+/` + o + `/(swiftshader/[^/]+\.dll)$`, capture},
		}
	case platform.PlatformLinux:
		return []relRule{
			{`^[^/]+/` + o + `/([^/]+\.(so|bin))$`, capture},
			{`^[^/]+/` + o + `/(swiftshader/[^/]+\.so)$`, capture},
		}
	case platform.PlatformMacOS:
		return []relRule{
			{`^[^/]+/` + o + `/(Chromium Embedded Framework\.framework/.+)$`, capture},
		}
	}
	return nil
}

// resourceRules returns rules for icudtl.dat and the .pak files. On macOS the
// resources ship inside the framework bundle, so there are none.
func resourceRules(p platform.Platform) []relRule {
	if p == platform.PlatformMacOS {
		return nil
	}
	return []relRule{
		{`^[^/]+/Resources/icudtl\.dat$`, "icudtl.dat"},
		{`^[^/]+/Resources/((locales/)?[^/]+\.pak)$`, capture},
	}
}

// Build returns the rule table for an identity and destination set.
// Destinations should already be absolute; see Destinations.Abs.
func Build(id cefdist.Identity, dest Destinations) (*Table, error) {
	if ok, errs := id.Platform.IsValid(); !ok {
		return nil, errs[0]
	}
	if ok, errs := id.OptLevel.IsValid(); !ok {
		return nil, errs[0]
	}

	t := &Table{}
	add := func(root string, rules []relRule) error {
		for _, r := range rules {
			re, err := regexp.Compile(r.pattern)
			if err != nil {
				return fmt.Errorf("compiling rule %q: %w", r.pattern, err)
			}
			t.rules = append(t.rules, Rule{
				Pattern:  re,
				Template: filepath.Join(escapeTemplate(root), r.template),
				Root:     root,
			})
		}
		return nil
	}

	if dest.LibDir != "" {
		if err := add(dest.LibDir, libraryRules(id.Platform, id.OptLevel)); err != nil {
			return nil, err
		}
		if dest.ResourceDir == "" {
			if err := add(dest.LibDir, resourceRules(id.Platform)); err != nil {
				return nil, err
			}
		}
	}
	if dest.ResourceDir != "" {
		if err := add(dest.ResourceDir, resourceRules(id.Platform)); err != nil {
			return nil, err
		}
	}
	if dest.HeaderDir != "" {
		if err := add(dest.HeaderDir, []relRule{{`^[^/]+/include/(.+\.h)$`, capture}}); err != nil {
			return nil, err
		}
	}
	if dest.WrapperSrcDir != "" {
		if err := add(dest.WrapperSrcDir, []relRule{{`^[^/]+/libcef_dll/(.+)$`, capture}}); err != nil {
			return nil, err
		}
	}
	if dest.MacrosDir != "" {
		if err := add(dest.MacrosDir, []relRule{{`^[^/]+/cmake/(.+)$`, capture}}); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// New builds a table from explicit rules, in the given order.
func New(rules ...Rule) *Table {
	return &Table{rules: append([]Rule(nil), rules...)}
}

// Rules returns a copy of the rules in evaluation order.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// Lookup finds the first rule matching the archive-relative path and returns
// the rewritten destination. ok is false when no rule matches. A non-nil
// error means the first matching rule produced a path outside its root.
func (t *Table) Lookup(entry string) (m Match, ok bool, err error) {
	entry = strings.TrimPrefix(filepath.ToSlash(entry), "./")
	for _, r := range t.rules {
		loc := r.Pattern.FindStringSubmatchIndex(entry)
		if loc == nil {
			continue
		}
		out := filepath.Clean(string(r.Pattern.ExpandString(nil, r.Template, entry, loc)))
		if r.Root != "" && !Within(r.Root, out) {
			return Match{}, false, &EscapeError{Entry: entry, Path: out, Root: r.Root}
		}
		return Match{Path: out, Root: r.Root}, true, nil
	}
	return Match{}, false, nil
}

// escapeTemplate doubles '$' so directory names survive template expansion.
func escapeTemplate(dir string) string {
	return strings.ReplaceAll(dir, "$", "$$")
}

// Within reports whether path is root itself or below it. Both are compared
// lexically; symlinks are not resolved.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
