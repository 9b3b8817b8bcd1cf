package adapters

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// FireRecord is one active-fire detection as delivered by the FIRMS client.
type FireRecord struct {
	AcqDate    time.Time
	AcqTime    string
	Latitude   float64
	Longitude  float64
	FRP        float64
	Confidence string
	Satellite  string
}

// FireSource lists active-fire detections for a window. Implementations
// speak the FIRMS area CSV API.
type FireSource interface {
	Detections(ctx context.Context, w types.Window) ([]FireRecord, error)
}

// Fires adapts the active-fire stream. Low-confidence detections are dropped
// here rather than in validation so they never count as invalid records.
type Fires struct {
	source  FireSource
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewFires creates the active-fire adapter.
func NewFires(source FireSource, timeout time.Duration, logger *zap.SugaredLogger) *Fires {
	return &Fires{
		source:  source,
		timeout: timeout,
		logger:  logger.Named("fires"),
	}
}

func (f *Fires) Name() string  { return "active-fires" }
func (f *Fires) Table() string { return schema.FireDetection{}.TableName() }

func (f *Fires) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	detections, err := f.source.Detections(fetchCtx, w)
	if err != nil {
		f.logger.Warnw("fire source unavailable", "error", err)
		return nil
	}

	var rows []schema.Row
	lowConfidence := 0
	for _, d := range detections {
		if d.Confidence != "nominal" && d.Confidence != "high" {
			lowConfidence++
			continue
		}
		rows = append(rows, schema.FireDetection{
			AcqDate:             d.AcqDate.UTC(),
			AcqTime:             d.AcqTime,
			Latitude:            d.Latitude,
			Longitude:           d.Longitude,
			FRP:                 d.FRP,
			Confidence:          d.Confidence,
			Satellite:           d.Satellite,
			Source:              f.Name(),
			CollectionTimestamp: collectedAt,
		})
	}
	f.logger.Infow("fire fetch complete",
		"detections", len(detections), "low_confidence", lowConfidence, "rows", len(rows))
	return rows
}
