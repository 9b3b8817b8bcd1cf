package adapters

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// MetSample is one (time, lat, lon, variable) sample from a reanalysis
// granule.
type MetSample struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Variable  string
	Value     float64
	Units     string
}

// MetSource decodes reanalysis granules. One granule typically contains all
// variables over the full grid for several hours.
type MetSource interface {
	Samples(ctx context.Context, w types.Window) ([]MetSample, error)
}

// Reanalysis samples the reanalysis meteorology stream to at most
// maxPerVariable points per variable.
type Reanalysis struct {
	source         MetSource
	maxPerVariable int
	timeout        time.Duration
	logger         *zap.SugaredLogger
}

// NewReanalysis creates the reanalysis meteorology adapter.
func NewReanalysis(source MetSource, maxPerVariable int, timeout time.Duration, logger *zap.SugaredLogger) *Reanalysis {
	return &Reanalysis{
		source:         source,
		maxPerVariable: maxPerVariable,
		timeout:        timeout,
		logger:         logger.Named("reanalysis"),
	}
}

func (r *Reanalysis) Name() string  { return "reanalysis-met" }
func (r *Reanalysis) Table() string { return schema.ReanalysisMet{}.TableName() }

func (r *Reanalysis) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	samples, err := r.source.Samples(fetchCtx, w)
	if err != nil {
		r.logger.Warnw("reanalysis source unavailable", "error", err)
		return nil
	}

	// Sample per variable, keeping variable order stable.
	byVariable := make(map[string][]MetSample)
	var order []string
	for _, s := range samples {
		if !schema.MetVariables[s.Variable] {
			continue
		}
		if _, seen := byVariable[s.Variable]; !seen {
			order = append(order, s.Variable)
		}
		byVariable[s.Variable] = append(byVariable[s.Variable], s)
	}

	var rows []schema.Row
	for _, v := range order {
		group := byVariable[v]
		for _, i := range subsampleStride(len(group), r.maxPerVariable) {
			s := group[i]
			rows = append(rows, schema.ReanalysisMet{
				GranuleTime:         s.Time.UTC(),
				Latitude:            s.Latitude,
				Longitude:           s.Longitude,
				VariableName:        s.Variable,
				Value:               s.Value,
				Units:               s.Units,
				Source:              r.Name(),
				CollectionTimestamp: collectedAt,
			})
		}
	}
	r.logger.Infow("reanalysis fetch complete", "samples", len(samples), "rows", len(rows))
	return rows
}
