package features

import (
	"math"

	"github.com/atmowatch/atmowatch/internal/schema"
)

const kmPerDegree = 111.0

// distanceKM is the equirectangular approximation, accurate enough at the
// sub-100 km radii the proximity features use.
func distanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat+dLon*dLon) * kmPerDegree
}

// addFireProximity counts, for each station row, the fires detected on the
// same calendar date within the configured radius, and sums their radiative
// power.
func (a *Assembler) addFireProximity(rows []Row, fires []schema.FireDetection, cols *columnSet) {
	cols.add("fire_count")
	cols.add("fire_frp_total")

	byDate := make(map[string][]schema.FireDetection)
	for _, f := range fires {
		d := f.AcqDate.UTC().Format("2006-01-02")
		byDate[d] = append(byDate[d], f)
	}

	for i := range rows {
		sameDay := byDate[rows[i].Time.UTC().Format("2006-01-02")]
		count := 0
		frp := 0.0
		for _, f := range sameDay {
			if distanceKM(rows[i].Latitude, rows[i].Longitude, f.Latitude, f.Longitude) <= a.FireRadiusKM {
				count++
				frp += f.FRP
			}
		}
		rows[i].Values["fire_count"] = float64(count)
		rows[i].Values["fire_frp_total"] = frp
	}
}

// FireImpact summarizes fires near a point over a window of days, for the
// wildfire-impact endpoint.
type FireImpact struct {
	Count    int     `json:"fire_count"`
	TotalFRP float64 `json:"total_frp"`
	MaxFRP   float64 `json:"max_frp"`
	Nearest  float64 `json:"nearest_km"`
}

// RiskLevel grades the smoke exposure qualitatively from the fire count and
// aggregate radiative power.
func (f FireImpact) RiskLevel() string {
	switch {
	case f.Count == 0:
		return "none"
	case f.Count > 20 || f.TotalFRP > 1000:
		return "high"
	case f.Count > 5 || f.TotalFRP > 200:
		return "moderate"
	default:
		return "low"
	}
}

// SummarizeFires reports fire activity within radiusKM of (lat, lon) across
// all detections, regardless of date.
func SummarizeFires(lat, lon, radiusKM float64, fires []schema.FireDetection) FireImpact {
	impact := FireImpact{Nearest: math.Inf(1)}
	for _, f := range fires {
		d := distanceKM(lat, lon, f.Latitude, f.Longitude)
		if d < impact.Nearest {
			impact.Nearest = d
		}
		if d > radiusKM {
			continue
		}
		impact.Count++
		impact.TotalFRP += f.FRP
		if f.FRP > impact.MaxFRP {
			impact.MaxFRP = f.FRP
		}
	}
	if math.IsInf(impact.Nearest, 1) {
		impact.Nearest = -1
	}
	return impact
}
