// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cefkit/cefkit/internal/buildhook"
	"github.com/cefkit/cefkit/internal/extract"
	"github.com/cefkit/cefkit/internal/issue"
	"github.com/cefkit/cefkit/internal/source"
	"github.com/cefkit/cefkit/pkg/cefdist"
	"github.com/cefkit/cefkit/pkg/platform"
)

// suggestions holds the short remediation hints printed under an error.
// The catalog entry behind each id carries the long form.
var suggestions = map[issue.Id][]string{
	issue.ArchiveNotFoundId:     {"Check the version string against the CEF build index", "Check --base-url"},
	issue.NetworkFailedId:       {"Check your network connection and run the command again"},
	issue.ChecksumMismatchId:    {"Run the command again; the download may have been corrupted"},
	issue.ArchiveCorruptId:      {"Remove the cached archive with 'cefkit cache prune --keep 0' and fetch again"},
	issue.PlatformUnsupportedId: {"Use --platform windows, linux or macosx"},
	issue.InvalidOptLevelId:     {"Use --opt-level Debug or Release"},
	issue.WrapperBuildFailedId:  {"Make sure CMake is installed", "Run with --verbose to see the build output"},
	issue.PermissionDeniedId:    {"Check the ownership of the configured directories"},
}

// classifyError maps an error to its catalog entry. Zero means none applies.
func classifyError(err error) issue.Id {
	var transportErr *source.TransportError
	var ae *issue.ActionableError
	switch {
	case errors.As(err, &transportErr):
		if transportErr.StatusCode == http.StatusNotFound {
			return issue.ArchiveNotFoundId
		}
		return issue.NetworkFailedId
	case errors.Is(err, source.ErrChecksumMismatch):
		return issue.ChecksumMismatchId
	case errors.Is(err, extract.ErrArchiveDecode):
		return issue.ArchiveCorruptId
	case errors.Is(err, platform.ErrPlatformUnsupported):
		return issue.PlatformUnsupportedId
	case errors.Is(err, cefdist.ErrInvalidOptLevel):
		return issue.InvalidOptLevelId
	case errors.Is(err, buildhook.ErrBuildHook):
		return issue.WrapperBuildFailedId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.As(err, &ae):
		return ae.IssueID
	}
	return 0
}

// actionable wraps err for display. Errors that already carry an operation
// keep it.
func actionable(err error, operation, resource string) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.IssueID == 0 {
			ae.IssueID = classifyError(ae.Cause)
		}
		return ae
	}
	id := classifyError(err)
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithSuggestions(suggestions[id]...).
		WithIssue(id).
		Wrap(err).
		Build()
}

// fail prints err with its suggestions to w and returns the ExitError the
// command should return. In verbose mode the catalog entry is rendered too.
func (app *App) fail(w io.Writer, err error, operation, resource string) error {
	ae := actionable(err, operation, resource)
	if len(ae.Suggestions) > 0 {
		fmt.Fprintln(w, WarningStyle.Render("Suggestions:"))
		for _, s := range ae.Suggestions {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
	if app.verbose && ae.IssueID != 0 {
		if entry := issue.Get(ae.IssueID); entry != nil {
			if rendered, renderErr := entry.Render("auto"); renderErr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
	return &ExitError{Code: 1, Err: ae}
}
