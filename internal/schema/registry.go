package schema

import (
	"fmt"
	"strings"
)

// TableSpec declares, for one destination table, the natural-key columns
// that implement idempotent upsert and the primary temporal column.
type TableSpec struct {
	Name       string
	TimeColumn string
	// KeyColumns is the natural-key tuple: equality across all of them
	// defines "the same observation".
	KeyColumns []string
}

// Tables is the registry of every destination table, keyed by table name.
var Tables = map[string]TableSpec{
	"air_quality_data": {
		Name:       "air_quality_data",
		TimeColumn: "datetime_utc",
		KeyColumns: []string{"datetime_utc", "latitude", "longitude", "parameter_name", "value", "sensor_id"},
	},
	"satellite_no2_data": {
		Name:       "satellite_no2_data",
		TimeColumn: "observation_datetime",
		KeyColumns: []string{"latitude", "longitude", "column_value", "observation_datetime"},
	},
	"satellite_hcho_data": {
		Name:       "satellite_hcho_data",
		TimeColumn: "observation_datetime",
		KeyColumns: []string{"latitude", "longitude", "column_value", "observation_datetime"},
	},
	"satellite_o3_data": {
		Name:       "satellite_o3_data",
		TimeColumn: "observation_datetime",
		KeyColumns: []string{"latitude", "longitude", "column_value", "observation_datetime"},
	},
	"reanalysis_met_data": {
		Name:       "reanalysis_met_data",
		TimeColumn: "granule_time",
		KeyColumns: []string{"latitude", "longitude", "variable_name", "granule_time", "value"},
	},
	"pblh_data": {
		Name:       "pblh_data",
		TimeColumn: "timestamp",
		KeyColumns: []string{"latitude", "longitude", "timestamp", "pbl_height_m"},
	},
	"fire_detection_data": {
		Name:       "fire_detection_data",
		TimeColumn: "acq_date",
		KeyColumns: []string{"latitude", "longitude", "acq_date", "acq_time", "satellite"},
	},
	"gridded_weather_data": {
		Name:       "gridded_weather_data",
		TimeColumn: "timestamp",
		KeyColumns: []string{"timestamp", "latitude", "longitude"},
	},
}

// Spec returns the table spec for a table name.
func Spec(table string) (TableSpec, error) {
	spec, ok := Tables[table]
	if !ok {
		return TableSpec{}, fmt.Errorf("unknown table %q", table)
	}
	return spec, nil
}

// CanonicalPollutants is the pollutant set tracked end to end, in canonical
// spelling.
var CanonicalPollutants = []string{"PM25", "PM10", "NO2", "O3", "CO", "SO2"}

// CanonicalParameter maps the pollutant spellings seen across providers
// (PM2.5, pm25, PM25, no2, ...) onto the canonical upper-case form without
// punctuation. Unknown parameters are upper-cased with separators stripped so
// new pollutants still collapse to a single spelling.
func CanonicalParameter(p string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(p))
	cleaned = strings.NewReplacer(".", "", "-", "", "_", "", " ", "").Replace(cleaned)
	switch cleaned {
	case "PM25":
		return "PM25"
	case "PM10":
		return "PM10"
	case "NO2", "NITROGENDIOXIDE":
		return "NO2"
	case "O3", "OZONE":
		return "O3"
	case "CO", "CARBONMONOXIDE":
		return "CO"
	case "SO2", "SULFURDIOXIDE":
		return "SO2"
	}
	return cleaned
}
