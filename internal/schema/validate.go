package schema

import (
	"fmt"
	"math"
	"time"
)

// MetVariables is the allowed reanalysis variable set.
var MetVariables = map[string]bool{
	"T2M":  true,
	"QV2M": true,
	"U10M": true,
	"V10M": true,
	"PS":   true,
	"SLP":  true,
}

// FireConfidences is the allowed fire confidence set after source filtering.
var FireConfidences = map[string]bool{
	"low":     true,
	"nominal": true,
	"high":    true,
}

func checkCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not finite", name)
	}
	return nil
}

func checkTime(name string, t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func (r GroundAirQuality) Validate() error {
	if err := checkTime("datetime_utc", r.ObservationTime); err != nil {
		return err
	}
	if err := checkCoordinates(r.Latitude, r.Longitude); err != nil {
		return err
	}
	if r.Parameter == "" {
		return fmt.Errorf("parameter_name is required")
	}
	if r.Parameter != CanonicalParameter(r.Parameter) {
		return fmt.Errorf("parameter_name %q is not canonical", r.Parameter)
	}
	if err := checkFinite("value", r.Value); err != nil {
		return err
	}
	return nil
}

func (s SatelliteColumn) Validate() error {
	if err := checkTime("observation_datetime", s.ObservationTime); err != nil {
		return err
	}
	if err := checkCoordinates(s.Latitude, s.Longitude); err != nil {
		return err
	}
	if err := checkFinite("column_value", s.ColumnValue); err != nil {
		return err
	}
	if s.Uncertainty != nil {
		if err := checkFinite("uncertainty", *s.Uncertainty); err != nil {
			return err
		}
	}
	return nil
}

func (s SatelliteNO2) Validate() error { return s.SatelliteColumn.Validate() }

// HCHO carries a retrieval quality flag; negative flags mark failed
// retrievals and are never admitted.
func (s SatelliteHCHO) Validate() error {
	if err := s.SatelliteColumn.Validate(); err != nil {
		return err
	}
	if s.QualityFlag != nil && *s.QualityFlag < 0 {
		return fmt.Errorf("quality_flag %v below 0", *s.QualityFlag)
	}
	return nil
}

func (s SatelliteO3) Validate() error { return s.SatelliteColumn.Validate() }

func (r ReanalysisMet) Validate() error {
	if err := checkTime("granule_time", r.GranuleTime); err != nil {
		return err
	}
	if err := checkCoordinates(r.Latitude, r.Longitude); err != nil {
		return err
	}
	if !MetVariables[r.VariableName] {
		return fmt.Errorf("variable_name %q not in allowed set", r.VariableName)
	}
	if err := checkFinite("value", r.Value); err != nil {
		return err
	}
	return nil
}

func (p PBLH) Validate() error {
	if err := checkTime("timestamp", p.Timestamp); err != nil {
		return err
	}
	if err := checkCoordinates(p.Latitude, p.Longitude); err != nil {
		return err
	}
	if err := checkFinite("pbl_height_m", p.PBLHeightM); err != nil {
		return err
	}
	if p.PBLHeightM < 0 {
		return fmt.Errorf("pbl_height_m %v is negative", p.PBLHeightM)
	}
	return nil
}

func (f FireDetection) Validate() error {
	if err := checkTime("acq_date", f.AcqDate); err != nil {
		return err
	}
	if err := checkCoordinates(f.Latitude, f.Longitude); err != nil {
		return err
	}
	if err := checkFinite("frp", f.FRP); err != nil {
		return err
	}
	if !FireConfidences[f.Confidence] {
		return fmt.Errorf("confidence %q not in allowed set", f.Confidence)
	}
	if f.Satellite == "" {
		return fmt.Errorf("satellite is required")
	}
	return nil
}

func (g GriddedWeather) Validate() error {
	if err := checkTime("timestamp", g.Timestamp); err != nil {
		return err
	}
	if err := checkCoordinates(g.Latitude, g.Longitude); err != nil {
		return err
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"temperature_c", g.TemperatureC},
		{"humidity_pct", g.HumidityPct},
		{"precip_mm", g.PrecipMM},
		{"wind_kmh", g.WindKMH},
		{"pressure_hpa", g.PressureHPA},
		{"cloud_pct", g.CloudPct},
	} {
		if err := checkFinite(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}
