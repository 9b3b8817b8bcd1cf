// Package features assembles the wide model-input frame: ground readings
// pivoted to one column per pollutant, enriched with temporal encodings,
// per-station lag and rolling statistics, nearest-in-time meteorology and
// boundary-layer context, and same-day fire proximity.
//
// Rows are plain column-name-to-value maps. The column set per source table
// is known statically, so there is no data-frame machinery here, just
// explicit sweeps over time-sorted slices.
package features

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
)

// Row is one (station, timestamp) observation in wide form. A column absent
// from Values is missing, not zero; consumers decide how to fill.
type Row struct {
	Time       time.Time
	LocationID string
	City       string
	Latitude   float64
	Longitude  float64
	Values     map[string]float64
}

// Get returns the column value and whether it is present.
func (r Row) Get(col string) (float64, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// Frame is the assembled feature table. Columns lists the usable numeric
// feature columns in a stable order; identifiers and raw timestamps are not
// in it.
type Frame struct {
	Rows    []Row
	Columns []string
}

type columnSet struct {
	order []string
	seen  map[string]bool
}

func newColumnSet() *columnSet {
	return &columnSet{seen: make(map[string]bool)}
}

func (s *columnSet) add(col string) {
	if !s.seen[col] {
		s.seen[col] = true
		s.order = append(s.order, col)
	}
}

// Assembler holds the enrichment parameters.
type Assembler struct {
	AsofTolerance time.Duration
	SpatialRound  float64
	FireRadiusKM  float64
	Lags          []int
	RollingHours  int

	logger *zap.SugaredLogger
}

// New creates an Assembler with the given join and proximity parameters.
// Lag hours and the rolling window are fixed pipeline constants.
func New(asofTolerance time.Duration, spatialRound, fireRadiusKM float64, logger *zap.SugaredLogger) *Assembler {
	return &Assembler{
		AsofTolerance: asofTolerance,
		SpatialRound:  spatialRound,
		FireRadiusKM:  fireRadiusKM,
		Lags:          []int{1, 6, 24},
		RollingHours:  6,
		logger:        logger.Named("features"),
	}
}

// Assemble builds the enriched frame from the raw table slices. The result
// rows are sorted by (time, station).
func (a *Assembler) Assemble(ground []schema.GroundAirQuality, met []schema.ReanalysisMet, pblh []schema.PBLH, fires []schema.FireDetection) Frame {
	cols := newColumnSet()

	rows, pollutants := pivot(ground, cols)
	if len(rows) == 0 {
		return Frame{}
	}

	addTemporal(rows, cols)
	a.addLagsAndRolling(rows, pollutants, cols)
	a.joinMet(rows, met, cols)
	a.joinPBLH(rows, pblh, cols)
	a.addFireProximity(rows, fires, cols)

	a.logger.Infow("frame assembled",
		"rows", len(rows), "columns", len(cols.order), "pollutants", pollutants)
	return Frame{Rows: rows, Columns: cols.order}
}

// sortRows orders rows by time then station for deterministic output.
func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Time.Equal(rows[j].Time) {
			return rows[i].Time.Before(rows[j].Time)
		}
		return rows[i].LocationID < rows[j].LocationID
	})
}
