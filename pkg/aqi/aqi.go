// Package aqi maps pollutant concentrations onto the US EPA Air Quality
// Index using the piecewise-linear breakpoint tables.
//
// Each breakpoint row is closed on both ends; the gap between rows (for
// example PM2.5 12.0 vs 12.1) is closed by truncating the input to the
// table's reporting precision before lookup, which is the EPA convention.
// Concentrations above a table's last row are undefined and never
// extrapolated.
package aqi

import "math"

// Breakpoint is one row of a pollutant's AQI table.
type Breakpoint struct {
	ConcLo float64
	ConcHi float64
	AQILo  int
	AQIHi  int
}

// table couples a pollutant's breakpoints with its truncation precision.
type table struct {
	precision   float64
	breakpoints []Breakpoint
}

// EPA breakpoint tables. PM2.5 truncates to 0.1 ug/m3, PM10 to 1 ug/m3,
// O3 (8-hour) to 1 ppb, NO2 and SO2 (1-hour) to 1 ppb, CO (8-hour) to
// 0.1 ppm.
var tables = map[string]table{
	"PM25": {precision: 0.1, breakpoints: []Breakpoint{
		{0.0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 350.4, 301, 400},
		{350.5, 500.4, 401, 500},
	}},
	"PM10": {precision: 1, breakpoints: []Breakpoint{
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 504, 301, 400},
		{505, 604, 401, 500},
	}},
	"O3": {precision: 1, breakpoints: []Breakpoint{
		{0, 54, 0, 50},
		{55, 70, 51, 100},
		{71, 85, 101, 150},
		{86, 105, 151, 200},
		{106, 200, 201, 300},
	}},
	"NO2": {precision: 1, breakpoints: []Breakpoint{
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
		{1250, 1649, 301, 400},
		{1650, 2049, 401, 500},
	}},
	"SO2": {precision: 1, breakpoints: []Breakpoint{
		{0, 35, 0, 50},
		{36, 75, 51, 100},
		{76, 185, 101, 150},
		{186, 304, 151, 200},
		{305, 604, 201, 300},
		{605, 804, 301, 400},
		{805, 1004, 401, 500},
	}},
	"CO": {precision: 0.1, breakpoints: []Breakpoint{
		{0.0, 4.4, 0, 50},
		{4.5, 9.4, 51, 100},
		{9.5, 12.4, 101, 150},
		{12.5, 15.4, 151, 200},
		{15.5, 30.4, 201, 300},
		{30.5, 40.4, 301, 400},
		{40.5, 50.4, 401, 500},
	}},
}

// truncate floors c to the table's reporting precision.
func truncate(c, precision float64) float64 {
	return math.Floor(c/precision) * precision
}

// Compute returns the sub-index for one pollutant concentration. ok is false
// when the pollutant has no table or the concentration falls outside it;
// callers decide the fallback, the mapper never extrapolates.
func Compute(pollutant string, concentration float64) (int, bool) {
	t, known := tables[pollutant]
	if !known || concentration < 0 || math.IsNaN(concentration) || math.IsInf(concentration, 0) {
		return 0, false
	}
	c := truncate(concentration, t.precision)
	for _, bp := range t.breakpoints {
		if c >= bp.ConcLo && c <= bp.ConcHi {
			aqi := float64(bp.AQIHi-bp.AQILo)/(bp.ConcHi-bp.ConcLo)*(c-bp.ConcLo) + float64(bp.AQILo)
			return int(math.Round(aqi)), true
		}
	}
	return 0, false
}

// Composite returns the multi-pollutant AQI: the maximum sub-index across
// the given concentrations, and which pollutant set it. ok is false when no
// pollutant produced a defined sub-index.
func Composite(concentrations map[string]float64) (aqi int, dominant string, ok bool) {
	for pollutant, c := range concentrations {
		sub, defined := Compute(pollutant, c)
		if !defined {
			continue
		}
		if !ok || sub > aqi || (sub == aqi && pollutant < dominant) {
			aqi, dominant, ok = sub, pollutant, true
		}
	}
	return aqi, dominant, ok
}

// Category returns the AQI category name for a given AQI value
func Category(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// Color returns the standard color code for an AQI value
func Color(aqi int) string {
	switch {
	case aqi <= 50:
		return "#00e400" // Green
	case aqi <= 100:
		return "#ffff00" // Yellow
	case aqi <= 150:
		return "#ff7e00" // Orange
	case aqi <= 200:
		return "#ff0000" // Red
	case aqi <= 300:
		return "#8f3f97" // Purple
	default:
		return "#7e0023" // Maroon
	}
}
