package features

import (
	"sort"
	"time"

	"github.com/atmowatch/atmowatch/internal/schema"
)

type pivotKey struct {
	t        time.Time
	location string
}

type pivotAccum struct {
	row    Row
	sums   map[string]float64
	counts map[string]int
}

// pivot turns the long (one row per parameter) ground table into wide rows
// with one column per canonical pollutant. Duplicate readings at the same
// (time, station, parameter) are averaged. Returns the rows sorted by
// (time, station) and the sorted list of pollutant columns present.
func pivot(ground []schema.GroundAirQuality, cols *columnSet) ([]Row, []string) {
	accums := make(map[pivotKey]*pivotAccum)
	seen := make(map[string]bool)

	for _, g := range ground {
		k := pivotKey{t: g.ObservationTime.UTC(), location: g.LocationID}
		acc, ok := accums[k]
		if !ok {
			acc = &pivotAccum{
				row: Row{
					Time:       k.t,
					LocationID: g.LocationID,
					City:       g.City,
					Latitude:   g.Latitude,
					Longitude:  g.Longitude,
					Values:     make(map[string]float64),
				},
				sums:   make(map[string]float64),
				counts: make(map[string]int),
			}
			accums[k] = acc
		}
		acc.sums[g.Parameter] += g.Value
		acc.counts[g.Parameter]++
		seen[g.Parameter] = true
	}

	pollutants := make([]string, 0, len(seen))
	for p := range seen {
		pollutants = append(pollutants, p)
	}
	sort.Strings(pollutants)
	for _, p := range pollutants {
		cols.add(p)
	}

	rows := make([]Row, 0, len(accums))
	for _, acc := range accums {
		for p, sum := range acc.sums {
			acc.row.Values[p] = sum / float64(acc.counts[p])
		}
		rows = append(rows, acc.row)
	}
	sortRows(rows)
	return rows, pollutants
}
