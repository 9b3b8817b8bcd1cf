package adapters

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/types"
	"github.com/atmowatch/atmowatch/pkg/config"
)

// Clients carries the injected upstream clients, one per source concern. A
// nil field means the corresponding source types cannot be built; the
// protocol clients themselves live with the embedder.
type Clients struct {
	GroundProviders []GroundProvider
	NO2Granules     GranuleSource
	HCHOGranules    GranuleSource
	O3Granules      GranuleSource
	Met             MetSource
	PBLH            PBLHSource
	Fires           FireSource
	PointWeather    PointWeatherSource
}

// defaultMetSamples caps the reanalysis stream per variable when the source
// config leaves max_samples unset.
const defaultMetSamples = 2000

func init() {
	RegisterFactory("ground", buildGround)
	RegisterFactory("satellite-no2", buildSatellite(NO2Product, func(c Clients) GranuleSource { return c.NO2Granules }))
	RegisterFactory("satellite-hcho", buildSatellite(HCHOProduct, func(c Clients) GranuleSource { return c.HCHOGranules }))
	RegisterFactory("satellite-o3", buildSatellite(O3Product, func(c Clients) GranuleSource { return c.O3Granules }))
	RegisterFactory("reanalysis", buildReanalysis)
	RegisterFactory("pblh", buildPBLH)
	RegisterFactory("fires", buildFires)
	RegisterFactory("grid-weather", buildGridWeather)
}

func fetchTimeout(fetch config.FetchData) time.Duration {
	return time.Duration(fetch.TimeoutSeconds) * time.Second
}

// downloadTimeout covers the bulk granule sources, which move whole files
// rather than API pages.
func downloadTimeout(fetch config.FetchData) time.Duration {
	return time.Duration(fetch.DownloadTimeoutSeconds) * time.Second
}

// sourceBounds uses the per-source box when configured, the continental
// default otherwise.
func sourceBounds(src config.SourceData) types.Bounds {
	if src.LatMin == 0 && src.LatMax == 0 && src.LonMin == 0 && src.LonMax == 0 {
		return types.NorthAmerica
	}
	return types.Bounds{LatMin: src.LatMin, LatMax: src.LatMax, LonMin: src.LonMin, LonMax: src.LonMax}
}

func missingClient(src config.SourceData) error {
	return fmt.Errorf("source %q (type %q) has no installed upstream client", src.Name, src.Type)
}

func buildGround(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
	if len(clients.GroundProviders) == 0 {
		return nil, missingClient(src)
	}
	return NewGroundStations(clients.GroundProviders, sourceBounds(src), fetchTimeout(fetch), logger), nil
}

func buildSatellite(product func() SatelliteProduct, pick func(Clients) GranuleSource) Factory {
	return func(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
		source := pick(clients)
		if source == nil {
			return nil, missingClient(src)
		}
		p := product()
		if src.MaxSamples > 0 {
			p.MaxSamples = src.MaxSamples
		}
		return NewSatellite(p, source, downloadTimeout(fetch), logger), nil
	}
}

func buildReanalysis(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
	if clients.Met == nil {
		return nil, missingClient(src)
	}
	maxSamples := src.MaxSamples
	if maxSamples <= 0 {
		maxSamples = defaultMetSamples
	}
	return NewReanalysis(clients.Met, maxSamples, downloadTimeout(fetch), logger), nil
}

func buildPBLH(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
	if clients.PBLH == nil {
		return nil, missingClient(src)
	}
	return NewBoundaryLayer(clients.PBLH, sourceBounds(src), downloadTimeout(fetch), logger), nil
}

func buildFires(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
	if clients.Fires == nil {
		return nil, missingClient(src)
	}
	return NewFires(clients.Fires, fetchTimeout(fetch), logger), nil
}

func buildGridWeather(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
	if clients.PointWeather == nil {
		return nil, missingClient(src)
	}
	return NewGridWeather(clients.PointWeather, fetch.Grid, fetch.RateLimitPerMin, fetchTimeout(fetch), logger), nil
}
