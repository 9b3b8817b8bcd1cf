// Package config provides configuration loading for the AtmoWatch pipeline.
// Configuration can come from a YAML file or a SQLite database; both backends
// serve the same ConfigData structure.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSources() ([]SourceData, error)
	GetStorageConfig() (*StorageData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Storage  StorageData  `yaml:"storage" json:"storage"`
	HTTP     HTTPData     `yaml:"http" json:"http"`
	Ingest   IngestData   `yaml:"ingest" json:"ingest"`
	Fetch    FetchData    `yaml:"fetch" json:"fetch"`
	Features FeaturesData `yaml:"features" json:"features"`
	Train    TrainData    `yaml:"train" json:"train"`
	Forecast ForecastData `yaml:"forecast" json:"forecast"`
	Registry RegistryData `yaml:"registry" json:"registry"`
	Log      LogData      `yaml:"log" json:"log"`
	Sources  []SourceData `yaml:"sources" json:"sources"`
}

// StorageData holds the configuration for the relational store
type StorageData struct {
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty" json:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `yaml:"connection_string" json:"connection_string"`
}

// HTTPData holds the REST server listener configuration
type HTTPData struct {
	ListenAddr string `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// IngestData controls the ingest cycle
type IngestData struct {
	WindowHours int `yaml:"window_hours,omitempty" json:"window_hours,omitempty"`
	BatchSize   int `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// FetchData controls outbound source fetches
type FetchData struct {
	RateLimitPerMin        int      `yaml:"rate_limit_per_min,omitempty" json:"rate_limit_per_min,omitempty"`
	TimeoutSeconds         int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	DownloadTimeoutSeconds int      `yaml:"download_timeout_seconds,omitempty" json:"download_timeout_seconds,omitempty"`
	Grid                   GridData `yaml:"grid,omitempty" json:"grid,omitempty"`
}

// GridData describes the regular lat/lon fetch grid for gridded weather
type GridData struct {
	LatMin     float64 `yaml:"lat_min,omitempty" json:"lat_min,omitempty"`
	LatMax     float64 `yaml:"lat_max,omitempty" json:"lat_max,omitempty"`
	LonMin     float64 `yaml:"lon_min,omitempty" json:"lon_min,omitempty"`
	LonMax     float64 `yaml:"lon_max,omitempty" json:"lon_max,omitempty"`
	SpacingDeg float64 `yaml:"spacing_deg,omitempty" json:"spacing_deg,omitempty"`
}

// FeaturesData controls the feature assembler
type FeaturesData struct {
	AsofToleranceMinutes int     `yaml:"asof_tolerance_minutes,omitempty" json:"asof_tolerance_minutes,omitempty"`
	SpatialRoundDeg      float64 `yaml:"spatial_round_deg,omitempty" json:"spatial_round_deg,omitempty"`
	FireRadiusKM         float64 `yaml:"fire_radius_km,omitempty" json:"fire_radius_km,omitempty"`
}

// TrainData controls the training orchestrator
type TrainData struct {
	Horizons      []int    `yaml:"horizons,omitempty" json:"horizons,omitempty"`
	SplitFraction float64  `yaml:"split_fraction,omitempty" json:"split_fraction,omitempty"`
	MinSamples    int      `yaml:"min_samples,omitempty" json:"min_samples,omitempty"`
	LookbackDays  int      `yaml:"lookback_days,omitempty" json:"lookback_days,omitempty"`
	Pollutants    []string `yaml:"pollutants,omitempty" json:"pollutants,omitempty"`
}

// ForecastData controls the forecast engine
type ForecastData struct {
	DecayBase float64 `yaml:"decay_base,omitempty" json:"decay_base,omitempty"`
}

// RegistryData controls model-registry snapshot persistence
type RegistryData struct {
	SnapshotPath string `yaml:"snapshot_path,omitempty" json:"snapshot_path,omitempty"`
}

// LogData controls logging output
type LogData struct {
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// SourceData holds configuration for one source adapter
type SourceData struct {
	Name     string  `yaml:"name" json:"name"`
	Type     string  `yaml:"type" json:"type"`
	Enabled  bool    `yaml:"enabled" json:"enabled"`
	URL      string  `yaml:"url,omitempty" json:"url,omitempty"`
	Token    string  `yaml:"token,omitempty" json:"token,omitempty"`
	MaxSamples int   `yaml:"max_samples,omitempty" json:"max_samples,omitempty"`
	LatMin   float64 `yaml:"lat_min,omitempty" json:"lat_min,omitempty"`
	LatMax   float64 `yaml:"lat_max,omitempty" json:"lat_max,omitempty"`
	LonMin   float64 `yaml:"lon_min,omitempty" json:"lon_min,omitempty"`
	LonMax   float64 `yaml:"lon_max,omitempty" json:"lon_max,omitempty"`
}

// ApplyDefaults fills unset fields with the documented defaults.
func (c *ConfigData) ApplyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Ingest.WindowHours == 0 {
		c.Ingest.WindowHours = 72
	}
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = 10000
	}
	if c.Fetch.RateLimitPerMin == 0 {
		c.Fetch.RateLimitPerMin = 580
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.Fetch.DownloadTimeoutSeconds == 0 {
		c.Fetch.DownloadTimeoutSeconds = 120
	}
	if c.Fetch.Grid.SpacingDeg == 0 {
		c.Fetch.Grid = GridData{LatMin: 15, LatMax: 73, LonMin: -170, LonMax: -49, SpacingDeg: 2.0}
	}
	if c.Features.AsofToleranceMinutes == 0 {
		c.Features.AsofToleranceMinutes = 60
	}
	if c.Features.SpatialRoundDeg == 0 {
		c.Features.SpatialRoundDeg = 0.1
	}
	if c.Features.FireRadiusKM == 0 {
		c.Features.FireRadiusKM = 50
	}
	if len(c.Train.Horizons) == 0 {
		c.Train.Horizons = []int{1, 6, 24}
	}
	if c.Train.SplitFraction == 0 {
		c.Train.SplitFraction = 0.8
	}
	if c.Train.MinSamples == 0 {
		c.Train.MinSamples = 20
	}
	if c.Train.LookbackDays == 0 {
		c.Train.LookbackDays = 90
	}
	if c.Forecast.DecayBase == 0 {
		c.Forecast.DecayBase = 0.95
	}
}
