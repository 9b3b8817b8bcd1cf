package adapters

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// GranulePoint is one retrieval pixel from a satellite granule.
type GranulePoint struct {
	Latitude    float64
	Longitude   float64
	Value       float64
	QualityFlag *float64
	Uncertainty *float64
}

// Granule is one decoded satellite file: its midpoint time and the pixels it
// contains.
type Granule struct {
	MidTime    time.Time
	SourceFile string
	Points     []GranulePoint
}

// GranuleSource finds and decodes the granules intersecting a window. The
// CMR discovery and NetCDF decoding live with the caller.
type GranuleSource interface {
	Granules(ctx context.Context, w types.Window) ([]Granule, error)
}

// SatelliteProduct describes one column product: its destination table, the
// per-granule sampling cap, and the product-specific quality filter.
type SatelliteProduct struct {
	Product    string
	MaxSamples int
	// Admit is the source-specific quality filter; nil admits everything.
	Admit func(GranulePoint) bool
	// Wrap places a SatelliteColumn into the product's table type.
	Wrap func(schema.SatelliteColumn) schema.Row
}

// NO2Product is the tropospheric NO2 column product (10 000 samples per L2
// granule, no quality flag in the stream).
func NO2Product() SatelliteProduct {
	return SatelliteProduct{
		Product:    "NO2",
		MaxSamples: 10000,
		Wrap:       func(c schema.SatelliteColumn) schema.Row { return schema.SatelliteNO2{SatelliteColumn: c} },
	}
}

// HCHOProduct is the total HCHO column product; retrievals with a negative
// quality flag are rejected at the source.
func HCHOProduct() SatelliteProduct {
	return SatelliteProduct{
		Product:    "HCHO",
		MaxSamples: 5000,
		Admit: func(p GranulePoint) bool {
			return p.QualityFlag == nil || *p.QualityFlag >= 0
		},
		Wrap: func(c schema.SatelliteColumn) schema.Row { return schema.SatelliteHCHO{SatelliteColumn: c} },
	}
}

// O3Product is the total ozone column product.
func O3Product() SatelliteProduct {
	return SatelliteProduct{
		Product:    "O3",
		MaxSamples: 5000,
		Wrap:       func(c schema.SatelliteColumn) schema.Row { return schema.SatelliteO3{SatelliteColumn: c} },
	}
}

// Satellite adapts one column product's granule stream.
type Satellite struct {
	product SatelliteProduct
	source  GranuleSource
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewSatellite creates a satellite column adapter for one product.
func NewSatellite(product SatelliteProduct, source GranuleSource, timeout time.Duration, logger *zap.SugaredLogger) *Satellite {
	return &Satellite{
		product: product,
		source:  source,
		timeout: timeout,
		logger:  logger.Named("satellite").With("product", product.Product),
	}
}

func (s *Satellite) Name() string { return "satellite-" + s.product.Product }

func (s *Satellite) Table() string {
	return s.product.Wrap(schema.SatelliteColumn{}).TableName()
}

func (s *Satellite) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	granules, err := s.source.Granules(fetchCtx, w)
	if err != nil {
		s.logger.Warnw("granule source unavailable", "error", err)
		return nil
	}

	var rows []schema.Row
	for _, g := range granules {
		admitted := g.Points
		if s.product.Admit != nil {
			admitted = admitted[:0:0]
			for _, p := range g.Points {
				if s.product.Admit(p) {
					admitted = append(admitted, p)
				}
			}
		}

		for _, i := range subsampleStride(len(admitted), s.product.MaxSamples) {
			p := admitted[i]
			rows = append(rows, s.product.Wrap(schema.SatelliteColumn{
				ObservationTime:     g.MidTime.UTC(),
				Latitude:            p.Latitude,
				Longitude:           p.Longitude,
				ColumnValue:         p.Value,
				Uncertainty:         p.Uncertainty,
				QualityFlag:         p.QualityFlag,
				SourceFile:          g.SourceFile,
				Source:              s.Name(),
				CollectionTimestamp: collectedAt,
			}))
		}
	}
	s.logger.Infow("granule fetch complete", "granules", len(granules), "rows", len(rows))
	return rows
}
