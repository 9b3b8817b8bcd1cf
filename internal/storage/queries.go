package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// GroundObservations returns ground readings for a city (substring match,
// case-insensitive) inside the window, in ascending time order. An empty
// city returns all stations.
func (e *Engine) GroundObservations(ctx context.Context, city string, w types.Window) ([]schema.GroundAirQuality, error) {
	var obs []schema.GroundAirQuality
	q := e.db.WithContext(ctx).
		Where("datetime_utc >= ? AND datetime_utc < ?", w.Start, w.End)
	if city != "" {
		q = q.Where("city ILIKE ?", "%"+city+"%")
	}
	err := q.Order("datetime_utc, location_id, parameter_name").Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("querying ground observations: %w", err)
	}
	return obs, nil
}

// LatestCityObservations returns the most recent ground readings for a city,
// newest first, capped at limit.
func (e *Engine) LatestCityObservations(ctx context.Context, city string, since time.Time, limit int) ([]schema.GroundAirQuality, error) {
	var obs []schema.GroundAirQuality
	err := e.db.WithContext(ctx).
		Where("city ILIKE ? AND datetime_utc >= ?", "%"+city+"%", since).
		Order("datetime_utc DESC").
		Limit(limit).
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("querying latest observations for %s: %w", city, err)
	}
	return obs, nil
}

// MetObservations returns reanalysis meteorology inside a bounding box and
// window, time-ascending.
func (e *Engine) MetObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.ReanalysisMet, error) {
	var obs []schema.ReanalysisMet
	err := e.db.WithContext(ctx).
		Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", b.LatMin, b.LatMax, b.LonMin, b.LonMax).
		Where("granule_time >= ? AND granule_time < ?", w.Start, w.End).
		Order("granule_time, latitude, longitude").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("querying reanalysis met: %w", err)
	}
	return obs, nil
}

// PBLHObservations returns boundary-layer heights inside a bounding box and
// window, time-ascending.
func (e *Engine) PBLHObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.PBLH, error) {
	var obs []schema.PBLH
	err := e.db.WithContext(ctx).
		Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", b.LatMin, b.LatMax, b.LonMin, b.LonMax).
		Where("timestamp >= ? AND timestamp < ?", w.Start, w.End).
		Order("timestamp, latitude, longitude").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("querying PBLH: %w", err)
	}
	return obs, nil
}

// FireDetections returns fire detections whose acquisition date falls inside
// the window.
func (e *Engine) FireDetections(ctx context.Context, w types.Window) ([]schema.FireDetection, error) {
	var obs []schema.FireDetection
	err := e.db.WithContext(ctx).
		Where("acq_date >= ? AND acq_date < ?", w.Start, w.End).
		Order("acq_date").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("querying fire detections: %w", err)
	}
	return obs, nil
}

// Cities returns the distinct cities with ground data, busiest first.
func (e *Engine) Cities(ctx context.Context, limit int) ([]CityCount, error) {
	var cities []CityCount
	err := e.db.WithContext(ctx).
		Table("air_quality_data").
		Select("city, COUNT(*) as record_count").
		Where("city IS NOT NULL AND city != ''").
		Group("city").
		Order("record_count DESC").
		Limit(limit).
		Find(&cities).Error
	if err != nil {
		return nil, fmt.Errorf("querying cities: %w", err)
	}
	return cities, nil
}

// PollutantHistory returns the time series of one canonical pollutant for a
// city since the given time, ascending.
func (e *Engine) PollutantHistory(ctx context.Context, city, parameter string, since time.Time) ([]schema.GroundAirQuality, error) {
	var obs []schema.GroundAirQuality
	err := e.db.WithContext(ctx).
		Where("city ILIKE ? AND parameter_name = ? AND datetime_utc >= ?",
			"%"+city+"%", schema.CanonicalParameter(parameter), since).
		Order("datetime_utc").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s history for %s: %w", parameter, city, err)
	}
	return obs, nil
}
