// SPDX-License-Identifier: MPL-2.0

package cefdist

import (
	"strings"

	"golang.org/x/mod/semver"
)

// semverPrefix returns the "vMAJOR.MINOR.PATCH" head of a CEF version such as
// "84.3.10+ga46056b+chromium-84.0.4147.105". The remainder carries '+'
// separators that semver does not accept, so it is compared textually.
func semverPrefix(version string) (head, tail string) {
	head, tail, _ = strings.Cut(version, "+")
	return "v" + head, tail
}

// CompareVersions orders two CEF version strings. Versions whose numeric head
// is not valid semver sort before valid ones; ties on the head fall back to
// comparing the remainder as text.
func CompareVersions(a, b string) int {
	ah, at := semverPrefix(a)
	bh, bt := semverPrefix(b)
	if c := semver.Compare(ah, bh); c != 0 {
		return c
	}
	return strings.Compare(at, bt)
}
