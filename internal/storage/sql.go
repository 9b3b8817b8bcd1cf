package storage

// DDL for the observation tables. Every table carries the composite unique
// constraint that implements idempotent ingest, plus secondary indexes on
// (latitude, longitude), the primary temporal column, and any categorical
// column the query paths filter on.

const createAirQualityTableSQL = `
CREATE TABLE IF NOT EXISTS air_quality_data (
    datetime_utc TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    location_id TEXT,
    location_name TEXT,
    city TEXT,
    country TEXT,
    parameter_name TEXT NOT NULL,
    value DOUBLE PRECISION NOT NULL,
    units TEXT,
    provider TEXT,
    sensor_id TEXT,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (datetime_utc, latitude, longitude, parameter_name, value, sensor_id)
);`

const createAirQualityIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_air_quality_latlon ON air_quality_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_air_quality_time ON air_quality_data (datetime_utc);
CREATE INDEX IF NOT EXISTS idx_air_quality_city ON air_quality_data (city);
CREATE INDEX IF NOT EXISTS idx_air_quality_parameter ON air_quality_data (parameter_name);`

const createSatelliteNO2TableSQL = `
CREATE TABLE IF NOT EXISTS satellite_no2_data (
    observation_datetime TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    column_value DOUBLE PRECISION NOT NULL,
    uncertainty DOUBLE PRECISION,
    quality_flag DOUBLE PRECISION,
    source_file TEXT,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (latitude, longitude, column_value, observation_datetime)
);`

const createSatelliteNO2IndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_satellite_no2_latlon ON satellite_no2_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_satellite_no2_time ON satellite_no2_data (observation_datetime);`

const createSatelliteHCHOTableSQL = `
CREATE TABLE IF NOT EXISTS satellite_hcho_data (
    observation_datetime TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    column_value DOUBLE PRECISION NOT NULL,
    uncertainty DOUBLE PRECISION,
    quality_flag DOUBLE PRECISION,
    source_file TEXT,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (latitude, longitude, column_value, observation_datetime)
);`

const createSatelliteHCHOIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_satellite_hcho_latlon ON satellite_hcho_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_satellite_hcho_time ON satellite_hcho_data (observation_datetime);`

const createSatelliteO3TableSQL = `
CREATE TABLE IF NOT EXISTS satellite_o3_data (
    observation_datetime TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    column_value DOUBLE PRECISION NOT NULL,
    uncertainty DOUBLE PRECISION,
    quality_flag DOUBLE PRECISION,
    source_file TEXT,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (latitude, longitude, column_value, observation_datetime)
);`

const createSatelliteO3IndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_satellite_o3_latlon ON satellite_o3_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_satellite_o3_time ON satellite_o3_data (observation_datetime);`

const createReanalysisMetTableSQL = `
CREATE TABLE IF NOT EXISTS reanalysis_met_data (
    granule_time TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    variable_name TEXT NOT NULL,
    value DOUBLE PRECISION NOT NULL,
    units TEXT,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (latitude, longitude, variable_name, granule_time, value)
);`

const createReanalysisMetIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_reanalysis_met_latlon ON reanalysis_met_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_reanalysis_met_time ON reanalysis_met_data (granule_time);
CREATE INDEX IF NOT EXISTS idx_reanalysis_met_variable ON reanalysis_met_data (variable_name);`

const createPBLHTableSQL = `
CREATE TABLE IF NOT EXISTS pblh_data (
    timestamp TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    pbl_height_m DOUBLE PRECISION NOT NULL,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (latitude, longitude, timestamp, pbl_height_m)
);`

const createPBLHIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_pblh_latlon ON pblh_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_pblh_time ON pblh_data (timestamp);`

const createFireDetectionTableSQL = `
CREATE TABLE IF NOT EXISTS fire_detection_data (
    acq_date TIMESTAMPTZ NOT NULL,
    acq_time TEXT NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    frp DOUBLE PRECISION,
    confidence TEXT,
    satellite TEXT NOT NULL,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (latitude, longitude, acq_date, acq_time, satellite)
);`

const createFireDetectionIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_fire_detection_latlon ON fire_detection_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_fire_detection_date ON fire_detection_data (acq_date);
CREATE INDEX IF NOT EXISTS idx_fire_detection_confidence ON fire_detection_data (confidence);`

const createGriddedWeatherTableSQL = `
CREATE TABLE IF NOT EXISTS gridded_weather_data (
    timestamp TIMESTAMPTZ NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    temperature_c DOUBLE PRECISION,
    humidity_pct DOUBLE PRECISION,
    precip_mm DOUBLE PRECISION,
    wind_kmh DOUBLE PRECISION,
    pressure_hpa DOUBLE PRECISION,
    cloud_pct DOUBLE PRECISION,
    source TEXT,
    collection_timestamp TIMESTAMPTZ,
    UNIQUE (timestamp, latitude, longitude)
);`

const createGriddedWeatherIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_gridded_weather_latlon ON gridded_weather_data (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_gridded_weather_time ON gridded_weather_data (timestamp);`

// migrationStatements runs in order at startup.
var migrationStatements = []string{
	createAirQualityTableSQL,
	createAirQualityIndexesSQL,
	createSatelliteNO2TableSQL,
	createSatelliteNO2IndexesSQL,
	createSatelliteHCHOTableSQL,
	createSatelliteHCHOIndexesSQL,
	createSatelliteO3TableSQL,
	createSatelliteO3IndexesSQL,
	createReanalysisMetTableSQL,
	createReanalysisMetIndexesSQL,
	createPBLHTableSQL,
	createPBLHIndexesSQL,
	createFireDetectionTableSQL,
	createFireDetectionIndexesSQL,
	createGriddedWeatherTableSQL,
	createGriddedWeatherIndexesSQL,
}
