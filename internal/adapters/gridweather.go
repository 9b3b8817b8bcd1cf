package adapters

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
	"github.com/atmowatch/atmowatch/pkg/config"
)

// WeatherHour is one hourly weather-model value set for a single grid point.
type WeatherHour struct {
	Time         time.Time
	TemperatureC float64
	HumidityPct  float64
	PrecipMM     float64
	WindKMH      float64
	PressureHPA  float64
	CloudPct     float64
}

// PointWeatherSource returns hourly weather for a single coordinate.
// Implementations speak the weather-model HTTP API one point at a time.
type PointWeatherSource interface {
	Hourly(ctx context.Context, lat, lon float64, w types.Window) ([]WeatherHour, error)
}

// gridWorkers is how many grid points are fetched concurrently. The shared
// limiter, not the worker count, bounds the request rate.
const gridWorkers = 10

// GridWeather sweeps a regular lat/lon grid, fetching hourly weather for
// every point through a shared rate limiter.
type GridWeather struct {
	source  PointWeatherSource
	grid    config.GridData
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewGridWeather creates the gridded weather adapter. ratePerMin is the
// upstream request budget shared across all workers.
func NewGridWeather(source PointWeatherSource, grid config.GridData, ratePerMin int, timeout time.Duration, logger *zap.SugaredLogger) *GridWeather {
	return &GridWeather{
		source:  source,
		grid:    grid,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerMin)/60.0), ratePerMin),
		timeout: timeout,
		logger:  logger.Named("gridweather"),
	}
}

func (g *GridWeather) Name() string  { return "grid-weather" }
func (g *GridWeather) Table() string { return schema.GriddedWeather{}.TableName() }

// gridPoints enumerates the grid south to north, west to east, endpoints
// included.
func (g *GridWeather) gridPoints() [][2]float64 {
	var points [][2]float64
	for lat := g.grid.LatMin; lat <= g.grid.LatMax; lat += g.grid.SpacingDeg {
		for lon := g.grid.LonMin; lon <= g.grid.LonMax; lon += g.grid.SpacingDeg {
			points = append(points, [2]float64{lat, lon})
		}
	}
	return points
}

func (g *GridWeather) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	points := g.gridPoints()

	var (
		mu     sync.Mutex
		rows   []schema.Row
		failed int
	)

	work := make(chan [2]float64)
	var wg sync.WaitGroup
	for i := 0; i < gridWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pt := range work {
				if err := g.limiter.Wait(ctx); err != nil {
					return
				}
				fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
				hours, err := g.source.Hourly(fetchCtx, pt[0], pt[1], w)
				cancel()
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				var batch []schema.Row
				for _, h := range hours {
					if !w.Contains(h.Time) {
						continue
					}
					batch = append(batch, schema.GriddedWeather{
						Timestamp:           h.Time.UTC(),
						Latitude:            pt[0],
						Longitude:           pt[1],
						TemperatureC:        h.TemperatureC,
						HumidityPct:         h.HumidityPct,
						PrecipMM:            h.PrecipMM,
						WindKMH:             h.WindKMH,
						PressureHPA:         h.PressureHPA,
						CloudPct:            h.CloudPct,
						Source:              g.Name(),
						CollectionTimestamp: collectedAt,
					})
				}
				mu.Lock()
				rows = append(rows, batch...)
				mu.Unlock()
			}
		}()
	}

	for _, pt := range points {
		select {
		case work <- pt:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(work)
	wg.Wait()

	g.logger.Infow("grid sweep complete",
		"points", len(points), "failed_points", failed, "rows", len(rows))
	return rows
}
