// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"

	"github.com/cefkit/cefkit/internal/extract"
	"github.com/cefkit/cefkit/pkg/cefdist"
)

type (
	// Provisioner places a CEF distribution into its destinations.
	Provisioner interface {
		// Provision runs the pipeline once. It is safe to call repeatedly;
		// a run whose inputs match the recorded sentinel does nothing.
		Provision(ctx context.Context) (*Result, error)
	}

	// Result contains the output of a provisioning run.
	Result struct {
		Identity cefdist.Identity

		// Skipped is true when the sentinel matched and nothing was read.
		Skipped bool

		// Cached is true when the archive came from the local cache.
		Cached bool

		// Stats counts the extracted entries. Zero when Skipped.
		Stats extract.Stats

		// Sentinel is the fingerprint of this run's inputs.
		Sentinel string

		// WrapperBuilt is true when the macOS wrapper build ran.
		WrapperBuilt bool
	}
)
