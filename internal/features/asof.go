package features

import (
	"math"
	"sort"
	"time"

	"github.com/atmowatch/atmowatch/internal/schema"
)

type bucketKey struct {
	lat float64
	lon float64
}

func (a *Assembler) bucket(lat, lon float64) bucketKey {
	r := a.SpatialRound
	return bucketKey{
		lat: math.Round(lat/r) * r,
		lon: math.Round(lon/r) * r,
	}
}

type timeValue struct {
	t time.Time
	v float64
}

type contextSeries map[bucketKey][]timeValue

func (s contextSeries) add(k bucketKey, t time.Time, v float64) {
	s[k] = append(s[k], timeValue{t: t.UTC(), v: v})
}

func (s contextSeries) sortAll() {
	for _, tv := range s {
		sort.Slice(tv, func(i, j int) bool { return tv[i].t.Before(tv[j].t) })
	}
}

// nearest returns the value temporally closest to t within tolerance. The
// join is one-directional: one context value per lookup, never a fan-out.
func (s contextSeries) nearest(k bucketKey, t time.Time, tolerance time.Duration) (float64, bool) {
	tv := s[k]
	if len(tv) == 0 {
		return 0, false
	}
	i := sort.Search(len(tv), func(i int) bool { return !tv[i].t.Before(t) })

	best := -1
	var bestGap time.Duration
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(tv) {
			continue
		}
		gap := t.Sub(tv[j].t)
		if gap < 0 {
			gap = -gap
		}
		if best == -1 || gap < bestGap {
			best, bestGap = j, gap
		}
	}
	if best == -1 || bestGap > tolerance {
		return 0, false
	}
	return tv[best].v, true
}

// joinMet attaches the six reanalysis meteorology variables to each station
// row by rounded-coordinate bucket and nearest time within tolerance. Beyond
// tolerance the columns stay absent.
func (a *Assembler) joinMet(rows []Row, met []schema.ReanalysisMet, cols *columnSet) {
	series := make(map[string]contextSeries)
	for _, m := range met {
		if !schema.MetVariables[m.VariableName] {
			continue
		}
		s, ok := series[m.VariableName]
		if !ok {
			s = make(contextSeries)
			series[m.VariableName] = s
		}
		s.add(a.bucket(m.Latitude, m.Longitude), m.GranuleTime, m.Value)
	}

	variables := make([]string, 0, len(series))
	for v := range series {
		variables = append(variables, v)
	}
	sort.Strings(variables)
	for _, v := range variables {
		cols.add(v)
		series[v].sortAll()
	}

	for i := range rows {
		k := a.bucket(rows[i].Latitude, rows[i].Longitude)
		for _, v := range variables {
			if val, ok := series[v].nearest(k, rows[i].Time, a.AsofTolerance); ok {
				rows[i].Values[v] = val
			}
		}
	}
}

// joinPBLH attaches the boundary-layer height the same way.
func (a *Assembler) joinPBLH(rows []Row, pblh []schema.PBLH, cols *columnSet) {
	if len(pblh) == 0 {
		return
	}
	cols.add("pbl_height_m")

	series := make(contextSeries)
	for _, p := range pblh {
		series.add(a.bucket(p.Latitude, p.Longitude), p.Timestamp, p.PBLHeightM)
	}
	series.sortAll()

	for i := range rows {
		k := a.bucket(rows[i].Latitude, rows[i].Longitude)
		if v, ok := series.nearest(k, rows[i].Time, a.AsofTolerance); ok {
			rows[i].Values["pbl_height_m"] = v
		}
	}
}
