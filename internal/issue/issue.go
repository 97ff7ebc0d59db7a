// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	ArchiveNotFoundId Id = iota + 1
	NetworkFailedId
	ChecksumMismatchId
	ArchiveCorruptId
	PlatformUnsupportedId
	InvalidOptLevelId
	ConfigLoadFailedId
	WrapperBuildFailedId
	PermissionDeniedId
)

type (
	// MarkdownMsg is the body of a catalog entry.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

const cefBuildsURL HttpLink = "https://cef-builds.spotifycdn.com/index.html"

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the full Markdown text including the link section.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the entry for the terminal with a glamour style name or
// path ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	archiveNotFoundIssue = &Issue{
		id: ArchiveNotFoundId,
		mdMsg: `
# CEF archive not found

The distribution server has no archive for the requested version and platform.

## Things you can try
- Copy the full version string from the build index, including the
  ` + "`+g<commit>+chromium-<version>`" + ` suffix
- Check that the platform is one of windows, linux or macosx
- Point ` + "`base_url`" + ` at a mirror that carries the archive`,
		extLinks: []HttpLink{cefBuildsURL},
	}

	networkFailedIssue = &Issue{
		id: NetworkFailedId,
		mdMsg: `
# Could not download the CEF archive

The request failed before a complete response arrived. Nothing is retried
automatically.

## Things you can try
- Check your network connection and proxy settings
- Run the same command again
- Download the archive by hand into the archive cache directory`,
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# Archive checksum mismatch

The downloaded archive does not match the SHA-1 published next to it. The
archive was not cached.

## Things you can try
- Run the command again; the download may have been corrupted in transit
- Verify that your mirror serves the same files as the upstream index`,
	}

	archiveCorruptIssue = &Issue{
		id: ArchiveCorruptId,
		mdMsg: `
# Archive could not be extracted

The archive is truncated or not a valid compressed tar file. Files extracted
before the failure were kept.

## Things you can try
- Remove the cached archive and fetch again:
~~~
$ cefkit cache prune --keep 0
$ cefkit fetch
~~~`,
	}

	platformUnsupportedIssue = &Issue{
		id: PlatformUnsupportedId,
		mdMsg: `
# Platform not supported

CEF distributions exist for windows, linux and macosx only.

## Things you can try
- Set ` + "`platform`" + ` (or ` + "`CEF_PLATFORM`" + `) to one of those values`,
	}

	invalidOptLevelIssue = &Issue{
		id: InvalidOptLevelId,
		mdMsg: `
# Unknown optimization level

Only Debug and Release builds are published.

## Things you can try
- Set ` + "`opt_level`" + ` (or ` + "`CEF_OPT_LEVEL`" + `) to Debug or Release`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Check the file for CUE syntax errors
- Compare it with the effective defaults:
~~~
$ cefkit config show
~~~`,
	}

	wrapperBuildFailedIssue = &Issue{
		id: WrapperBuildFailedId,
		mdMsg: `
# libcef_dll_wrapper build failed

On macOS the wrapper library is compiled from the extracted sources after
every provisioning run.

## Things you can try
- Make sure CMake and the Xcode command line tools are installed
- Run again with ` + "`--verbose`" + ` to see the build output
- Provide your own build script with ` + "`wrapper_script`",
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

A destination or cache directory is not writable.

## Things you can try
- Check the ownership of the configured directories
- Choose directories inside your build tree`,
	}

	issues = map[Id]*Issue{
		archiveNotFoundIssue.Id():     archiveNotFoundIssue,
		networkFailedIssue.Id():       networkFailedIssue,
		checksumMismatchIssue.Id():    checksumMismatchIssue,
		archiveCorruptIssue.Id():      archiveCorruptIssue,
		platformUnsupportedIssue.Id(): platformUnsupportedIssue,
		invalidOptLevelIssue.Id():     invalidOptLevelIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		wrapperBuildFailedIssue.Id():  wrapperBuildFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
