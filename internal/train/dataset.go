package train

import (
	"time"

	"github.com/atmowatch/atmowatch/internal/features"
)

// Dataset is one supervised (pollutant, horizon) matrix in strict time
// order. Rows where the current pollutant value is missing, or where no
// future value exists h hours ahead at the same station, are dropped before
// it is built.
type Dataset struct {
	X       [][]float64
	Y       []float64
	Times   []time.Time
	Columns []string
}

// buildDataset derives the supervised target by shifting the pollutant
// forward h hours within each station, then vectorizes the usable feature
// columns with missing values filled as 0.
func buildDataset(frame features.Frame, pollutant string, horizonHours int) Dataset {
	// Future value lookup per station.
	future := make(map[string]map[time.Time]float64)
	for _, r := range frame.Rows {
		if v, ok := r.Values[pollutant]; ok {
			m, ok := future[r.LocationID]
			if !ok {
				m = make(map[time.Time]float64)
				future[r.LocationID] = m
			}
			m[r.Time] = v
		}
	}

	ds := Dataset{Columns: frame.Columns}
	shift := time.Duration(horizonHours) * time.Hour
	for _, r := range frame.Rows {
		if _, ok := r.Values[pollutant]; !ok {
			continue
		}
		y, ok := future[r.LocationID][r.Time.Add(shift)]
		if !ok {
			continue
		}
		x := make([]float64, len(frame.Columns))
		for j, col := range frame.Columns {
			x[j] = r.Values[col] // absent columns fill as 0
		}
		ds.X = append(ds.X, x)
		ds.Y = append(ds.Y, y)
		ds.Times = append(ds.Times, r.Time)
	}
	return ds
}

// splitIndex returns the train/validation boundary for a time-ordered split.
// Rows [0, idx) train, rows [idx, n) validate; no shuffling, so the last
// training time is never after the first validation time.
func splitIndex(n int, fraction float64) int {
	return int(float64(n) * fraction)
}
