// Package adapters turns external environmental data sources into uniform
// record streams for the ingest orchestrator. Adapters normalize, subsample,
// and quality-filter; they never write to the store, and a failed adapter
// contributes an empty batch instead of an error.
//
// Vendor protocol details (Earthdata/CMR granule discovery, NetCDF decoding,
// provider HTTP endpoints) live behind the injected source interfaces; what
// is implemented here is the per-source contract: normalization, sampling
// caps, quality filters, grid fan-out, and rate limiting.
package adapters

import (
	"context"
	"time"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// Adapter is one source of observation rows. Fetch returns the normalized
// rows for the window, stamped with the run-level collection timestamp.
// Failures are logged inside the adapter and yield an empty slice.
type Adapter interface {
	Name() string
	Table() string
	Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row
}

// subsampleStride returns every k-th index so that at most max indices are
// selected from n. Deterministic, preserving spatial spread of the source
// ordering.
func subsampleStride(n, max int) []int {
	if max <= 0 || n <= max {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	stride := (n + max - 1) / max
	idx := make([]int, 0, max)
	for i := 0; i < n && len(idx) < max; i += stride {
		idx = append(idx, i)
	}
	return idx
}
