// Package schema declares the typed observation tables, their natural keys,
// and the validation rules applied before any row reaches the store.
package schema

import (
	"time"
)

// Row is implemented by every observation table type. Validate reports why a
// record must be rejected; valid records pass through unchanged — the
// validator never coerces values.
type Row interface {
	TableName() string
	Validate() error
}

// GroundAirQuality is one ground-station pollutant reading.
type GroundAirQuality struct {
	ObservationTime     time.Time `gorm:"column:datetime_utc"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	LocationID          string    `gorm:"column:location_id"`
	LocationName        string    `gorm:"column:location_name"`
	City                string    `gorm:"column:city"`
	Country             string    `gorm:"column:country"`
	Parameter           string    `gorm:"column:parameter_name"`
	Value               float64   `gorm:"column:value"`
	Units               string    `gorm:"column:units"`
	Provider            string    `gorm:"column:provider"`
	SensorID            string    `gorm:"column:sensor_id"`
	Source              string    `gorm:"column:source"`
	CollectionTimestamp time.Time `gorm:"column:collection_timestamp"`
}

func (GroundAirQuality) TableName() string { return "air_quality_data" }

// SatelliteColumn is one subsampled point from a satellite column retrieval
// granule. The three products (NO2, HCHO, O3) share the shape and live in
// separate tables.
type SatelliteColumn struct {
	ObservationTime     time.Time `gorm:"column:observation_datetime"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	ColumnValue         float64   `gorm:"column:column_value"`
	Uncertainty         *float64  `gorm:"column:uncertainty"`
	QualityFlag         *float64  `gorm:"column:quality_flag"`
	SourceFile          string    `gorm:"column:source_file"`
	Source              string    `gorm:"column:source"`
	CollectionTimestamp time.Time `gorm:"column:collection_timestamp"`
}

type SatelliteNO2 struct {
	SatelliteColumn `gorm:"embedded"`
}

func (SatelliteNO2) TableName() string { return "satellite_no2_data" }

type SatelliteHCHO struct {
	SatelliteColumn `gorm:"embedded"`
}

func (SatelliteHCHO) TableName() string { return "satellite_hcho_data" }

type SatelliteO3 struct {
	SatelliteColumn `gorm:"embedded"`
}

func (SatelliteO3) TableName() string { return "satellite_o3_data" }

// ReanalysisMet is one reanalysis meteorology sample for a single variable.
type ReanalysisMet struct {
	GranuleTime         time.Time `gorm:"column:granule_time"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	VariableName        string    `gorm:"column:variable_name"`
	Value               float64   `gorm:"column:value"`
	Units               string    `gorm:"column:units"`
	Source              string    `gorm:"column:source"`
	CollectionTimestamp time.Time `gorm:"column:collection_timestamp"`
}

func (ReanalysisMet) TableName() string { return "reanalysis_met_data" }

// PBLH is one planetary-boundary-layer height cell.
type PBLH struct {
	Timestamp           time.Time `gorm:"column:timestamp"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	PBLHeightM          float64   `gorm:"column:pbl_height_m"`
	Source              string    `gorm:"column:source"`
	CollectionTimestamp time.Time `gorm:"column:collection_timestamp"`
}

func (PBLH) TableName() string { return "pblh_data" }

// FireDetection is one active-fire detection.
type FireDetection struct {
	AcqDate             time.Time `gorm:"column:acq_date"`
	AcqTime             string    `gorm:"column:acq_time"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	FRP                 float64   `gorm:"column:frp"`
	Confidence          string    `gorm:"column:confidence"`
	Satellite           string    `gorm:"column:satellite"`
	Source              string    `gorm:"column:source"`
	CollectionTimestamp time.Time `gorm:"column:collection_timestamp"`
}

func (FireDetection) TableName() string { return "fire_detection_data" }

// GriddedWeather is one hourly weather-model cell from the fetch grid.
type GriddedWeather struct {
	Timestamp           time.Time `gorm:"column:timestamp"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	TemperatureC        float64   `gorm:"column:temperature_c"`
	HumidityPct         float64   `gorm:"column:humidity_pct"`
	PrecipMM            float64   `gorm:"column:precip_mm"`
	WindKMH             float64   `gorm:"column:wind_kmh"`
	PressureHPA         float64   `gorm:"column:pressure_hpa"`
	CloudPct            float64   `gorm:"column:cloud_pct"`
	Source              string    `gorm:"column:source"`
	CollectionTimestamp time.Time `gorm:"column:collection_timestamp"`
}

func (GriddedWeather) TableName() string { return "gridded_weather_data" }
