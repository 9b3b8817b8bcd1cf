package adapters

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// PBLHCell is one boundary-layer height grid cell from a reanalysis granule.
type PBLHCell struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	HeightM   float64
}

// PBLHSource decodes boundary-layer height granules.
type PBLHSource interface {
	Cells(ctx context.Context, w types.Window) ([]PBLHCell, error)
}

// BoundaryLayer adapts the PBLH stream, keeping only cells inside the
// configured bounding box.
type BoundaryLayer struct {
	source  PBLHSource
	bounds  types.Bounds
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewBoundaryLayer creates the boundary-layer height adapter.
func NewBoundaryLayer(source PBLHSource, bounds types.Bounds, timeout time.Duration, logger *zap.SugaredLogger) *BoundaryLayer {
	return &BoundaryLayer{
		source:  source,
		bounds:  bounds,
		timeout: timeout,
		logger:  logger.Named("pblh"),
	}
}

func (b *BoundaryLayer) Name() string  { return "boundary-layer" }
func (b *BoundaryLayer) Table() string { return schema.PBLH{}.TableName() }

func (b *BoundaryLayer) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	fetchCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cells, err := b.source.Cells(fetchCtx, w)
	if err != nil {
		b.logger.Warnw("pblh source unavailable", "error", err)
		return nil
	}

	var rows []schema.Row
	for _, c := range cells {
		if !b.bounds.Contains(c.Latitude, c.Longitude) {
			continue
		}
		rows = append(rows, schema.PBLH{
			Timestamp:           c.Time.UTC(),
			Latitude:            c.Latitude,
			Longitude:           c.Longitude,
			PBLHeightM:          c.HeightM,
			Source:              b.Name(),
			CollectionTimestamp: collectedAt,
		})
	}
	b.logger.Infow("pblh fetch complete", "cells", len(cells), "rows", len(rows))
	return rows
}
