// Package storage implements the idempotent persistence engine for the
// observation tables and the read queries the feature assembler and the REST
// layer depend on.
package storage

import (
	"context"
	"time"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// CityCount is one row of the distinct-cities listing.
type CityCount struct {
	City        string `gorm:"column:city" json:"city"`
	RecordCount int64  `gorm:"column:record_count" json:"record_count"`
}

// Store is the persistence contract consumed by the ingest manager, the
// feature assembler, and the forecast engine.
type Store interface {
	// Upsert validates and persists a batch of rows, all belonging to the
	// same table. Duplicates by natural key are skipped, invalid rows are
	// counted and dropped, and the returned triple is exact.
	Upsert(ctx context.Context, rows []schema.Row) (types.UpsertCounts, error)

	GroundObservations(ctx context.Context, city string, w types.Window) ([]schema.GroundAirQuality, error)
	LatestCityObservations(ctx context.Context, city string, since time.Time, limit int) ([]schema.GroundAirQuality, error)
	MetObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.ReanalysisMet, error)
	PBLHObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.PBLH, error)
	FireDetections(ctx context.Context, w types.Window) ([]schema.FireDetection, error)
	Cities(ctx context.Context, limit int) ([]CityCount, error)
	PollutantHistory(ctx context.Context, city, parameter string, since time.Time) ([]schema.GroundAirQuality, error)
}
