package features

import (
	"fmt"
	"math"
	"time"
)

// addTemporal derives the calendar and cyclic encodings from each row's
// observation time.
func addTemporal(rows []Row, cols *columnSet) {
	for _, c := range []string{"hour", "day_of_week", "month", "is_weekend", "hour_sin", "hour_cos"} {
		cols.add(c)
	}
	for i := range rows {
		SetTemporal(rows[i].Values, rows[i].Time)
	}
}

// SetTemporal writes the temporal columns for time t into values. The
// forecast engine reuses this when re-deriving features for a target time.
func SetTemporal(values map[string]float64, t time.Time) {
	t = t.UTC()
	hour := float64(t.Hour())
	dow := float64(int(t.Weekday()+6) % 7) // Monday = 0
	values["hour"] = hour
	values["day_of_week"] = dow
	values["month"] = float64(t.Month())
	if dow >= 5 {
		values["is_weekend"] = 1
	} else {
		values["is_weekend"] = 0
	}
	values["hour_sin"] = math.Sin(2 * math.Pi * hour / 24)
	values["hour_cos"] = math.Cos(2 * math.Pi * hour / 24)
}

// addLagsAndRolling computes, per station and pollutant, the lagged values
// and the rolling mean/std over the trailing window. Rolling statistics use
// every reading in (t - window, t], with a single reading being its own mean
// and a zero std.
func (a *Assembler) addLagsAndRolling(rows []Row, pollutants []string, cols *columnSet) {
	for _, p := range pollutants {
		for _, lag := range a.Lags {
			cols.add(fmt.Sprintf("%s_lag_%dh", p, lag))
		}
		cols.add(fmt.Sprintf("%s_rolling_mean_%dh", p, a.RollingHours))
		cols.add(fmt.Sprintf("%s_rolling_std_%dh", p, a.RollingHours))
	}

	// rows are already time-sorted; group index order stays temporal.
	byStation := make(map[string][]int)
	for i := range rows {
		byStation[rows[i].LocationID] = append(byStation[rows[i].LocationID], i)
	}

	window := time.Duration(a.RollingHours) * time.Hour
	for _, idxs := range byStation {
		for _, p := range pollutants {
			// Exact-timestamp lookup for lags.
			at := make(map[time.Time]float64, len(idxs))
			for _, i := range idxs {
				if v, ok := rows[i].Values[p]; ok {
					at[rows[i].Time] = v
				}
			}

			lo := 0
			for n, i := range idxs {
				t := rows[i].Time
				for _, lag := range a.Lags {
					if v, ok := at[t.Add(-time.Duration(lag)*time.Hour)]; ok {
						rows[i].Values[fmt.Sprintf("%s_lag_%dh", p, lag)] = v
					}
				}

				for rows[idxs[lo]].Time.Before(t.Add(-window)) || rows[idxs[lo]].Time.Equal(t.Add(-window)) {
					lo++
				}
				var sum, sumSq float64
				count := 0
				for _, j := range idxs[lo : n+1] {
					if v, ok := rows[j].Values[p]; ok {
						sum += v
						sumSq += v * v
						count++
					}
				}
				if count == 0 {
					continue
				}
				mean := sum / float64(count)
				rows[i].Values[fmt.Sprintf("%s_rolling_mean_%dh", p, a.RollingHours)] = mean
				variance := 0.0
				if count > 1 {
					variance = (sumSq - float64(count)*mean*mean) / float64(count-1)
					if variance < 0 {
						variance = 0
					}
				}
				rows[i].Values[fmt.Sprintf("%s_rolling_std_%dh", p, a.RollingHours)] = math.Sqrt(variance)
			}
		}
	}
}
