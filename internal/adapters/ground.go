package adapters

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// GroundReading is one raw station reading as delivered by a provider
// client. Value is a pointer because providers frequently omit it; readings
// without a numeric value are dropped here, before validation.
type GroundReading struct {
	Time         time.Time
	Latitude     float64
	Longitude    float64
	LocationID   string
	LocationName string
	City         string
	Country      string
	Parameter    string
	Value        *float64
	Units        string
	SensorID     string
}

// GroundProvider is a single upstream station network (WAQI, OpenAQ, EPA
// AQS, ...). Implementations live with the caller.
type GroundProvider interface {
	ProviderName() string
	FetchCurrent(ctx context.Context, b types.Bounds) ([]GroundReading, error)
}

// GroundStations unions several providers into one record stream, one row
// per (station, parameter, timestamp).
type GroundStations struct {
	providers []GroundProvider
	bounds    types.Bounds
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// NewGroundStations creates the multi-provider ground-station adapter.
func NewGroundStations(providers []GroundProvider, bounds types.Bounds, timeout time.Duration, logger *zap.SugaredLogger) *GroundStations {
	return &GroundStations{
		providers: providers,
		bounds:    bounds,
		timeout:   timeout,
		logger:    logger.Named("ground"),
	}
}

func (g *GroundStations) Name() string  { return "ground-stations" }
func (g *GroundStations) Table() string { return schema.GroundAirQuality{}.TableName() }

func (g *GroundStations) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	var rows []schema.Row
	for _, p := range g.providers {
		fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
		readings, err := p.FetchCurrent(fetchCtx, g.bounds)
		cancel()
		if err != nil {
			g.logger.Warnw("provider unavailable, continuing without it",
				"provider", p.ProviderName(), "error", err)
			continue
		}

		dropped := 0
		for _, r := range readings {
			if r.Value == nil {
				dropped++
				continue
			}
			if !w.Contains(r.Time) {
				dropped++
				continue
			}
			rows = append(rows, schema.GroundAirQuality{
				ObservationTime:     r.Time.UTC(),
				Latitude:            r.Latitude,
				Longitude:           r.Longitude,
				LocationID:          r.LocationID,
				LocationName:        r.LocationName,
				City:                r.City,
				Country:             r.Country,
				Parameter:           schema.CanonicalParameter(r.Parameter),
				Value:               *r.Value,
				Units:               r.Units,
				Provider:            p.ProviderName(),
				SensorID:            r.SensorID,
				Source:              g.Name(),
				CollectionTimestamp: collectedAt,
			})
		}
		g.logger.Infow("provider fetch complete",
			"provider", p.ProviderName(), "readings", len(readings), "dropped", dropped)
	}
	return rows
}
