// Package forecast serves predictions from the trained ensembles: it
// reconstructs the training feature vector from the latest observations,
// runs all three regressors, and reports the ensemble mean with its spread
// as the uncertainty band.
package forecast

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/atmowatch/atmowatch/internal/features"
	"github.com/atmowatch/atmowatch/internal/registry"
	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// featureLookbackHours covers the deepest lag (24 h) plus enough history for
// the rolling statistics to stabilize.
const featureLookbackHours = 72

// Observations is the slice of the store the engine reads.
type Observations interface {
	GroundObservations(ctx context.Context, city string, w types.Window) ([]schema.GroundAirQuality, error)
	LatestCityObservations(ctx context.Context, city string, since time.Time, limit int) ([]schema.GroundAirQuality, error)
	MetObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.ReanalysisMet, error)
	PBLHObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.PBLH, error)
	FireDetections(ctx context.Context, w types.Window) ([]schema.FireDetection, error)
}

// Prediction is one ensemble forecast for a (city, pollutant, horizon).
type Prediction struct {
	Pollutant       string     `json:"pollutant"`
	HorizonHours    int        `json:"horizon_h"`
	UsedHorizon     int        `json:"used_horizon_h"`
	DecayMultiplier float64    `json:"decay_multiplier"`
	Mean            float64    `json:"mean"`
	Std             float64    `json:"std"`
	Min             float64    `json:"min"`
	Max             float64    `json:"max"`
	CI95            [2]float64 `json:"ci95"`
	Agreement       float64    `json:"model_agreement"`
}

// Engine produces forecasts from the registry and the store.
type Engine struct {
	store     Observations
	assembler *features.Assembler
	registry  *registry.Registry
	decayBase float64
	logger    *zap.SugaredLogger
}

// New creates a forecast engine. decayBase attenuates predictions made
// beyond the trained horizon.
func New(store Observations, assembler *features.Assembler, reg *registry.Registry, decayBase float64, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		store:     store,
		assembler: assembler,
		registry:  reg,
		decayBase: decayBase,
		logger:    logger.Named("forecast"),
	}
}

// resolveEntry finds the model for the requested horizon, falling back to
// the largest trained horizon at or below the target.
func (e *Engine) resolveEntry(pollutant string, targetHours int) (*registry.Entry, error) {
	if entry := e.registry.Get(pollutant, targetHours); entry != nil {
		return entry, nil
	}
	horizons := e.registry.Horizons(pollutant)
	sort.Sort(sort.Reverse(sort.IntSlice(horizons)))
	for _, h := range horizons {
		if h <= targetHours {
			return e.registry.Get(pollutant, h), nil
		}
	}
	return nil, types.NewFailure(types.KindModelMissing,
		"no trained model for %s at or below horizon %dh", pollutant, targetHours)
}

// decay is the persistence-decay multiplier applied when serving a target
// horizon from a shorter-horizon model.
func (e *Engine) decay(targetHours, usedHours int) float64 {
	if targetHours == usedHours {
		return 1
	}
	return math.Pow(e.decayBase, float64(targetHours-usedHours)/float64(usedHours))
}

// featureVector rebuilds one model input row for the city: the most recent
// observation row carrying the target pollutant, with temporal columns
// re-derived for the target time and everything else in training column
// order, absent columns as 0.
func (e *Engine) featureVector(ctx context.Context, city, pollutant string, entry *registry.Entry, targetTime time.Time) ([]float64, error) {
	w := types.NewWindow(time.Now().UTC(), featureLookbackHours)
	ground, err := e.store.GroundObservations(ctx, city, w)
	if err != nil {
		return nil, types.NewFailure(types.KindPersistenceError, "loading observations for %s: %v", city, err)
	}
	met, err := e.store.MetObservations(ctx, types.NorthAmerica, w)
	if err != nil {
		return nil, types.NewFailure(types.KindPersistenceError, "loading meteorology: %v", err)
	}
	pblh, err := e.store.PBLHObservations(ctx, types.NorthAmerica, w)
	if err != nil {
		return nil, types.NewFailure(types.KindPersistenceError, "loading boundary-layer heights: %v", err)
	}
	fires, err := e.store.FireDetections(ctx, w)
	if err != nil {
		return nil, types.NewFailure(types.KindPersistenceError, "loading fire detections: %v", err)
	}

	frame := e.assembler.Assemble(ground, met, pblh, fires)

	// Newest row that actually has the target pollutant; without a recent
	// value the forecast would be untethered, so this is a hard failure
	// rather than a silent zero-fill.
	var row *features.Row
	for i := len(frame.Rows) - 1; i >= 0; i-- {
		if _, ok := frame.Rows[i].Values[pollutant]; ok {
			row = &frame.Rows[i]
			break
		}
	}
	if row == nil {
		return nil, types.NewFailure(types.KindFeatureMismatch,
			"no recent %s observation for %s within %dh", pollutant, city, featureLookbackHours)
	}

	values := make(map[string]float64, len(row.Values))
	for k, v := range row.Values {
		values[k] = v
	}
	features.SetTemporal(values, targetTime)

	x := make([]float64, len(entry.FeatureNames))
	for j, col := range entry.FeatureNames {
		x[j] = values[col]
	}
	return x, nil
}

// Ensemble forecasts one pollutant for a city at the target horizon.
func (e *Engine) Ensemble(ctx context.Context, city, pollutant string, targetHours int) (*Prediction, error) {
	pollutant = schema.CanonicalParameter(pollutant)
	entry, err := e.resolveEntry(pollutant, targetHours)
	if err != nil {
		return nil, err
	}

	targetTime := time.Now().UTC().Add(time.Duration(targetHours) * time.Hour)
	x, err := e.featureVector(ctx, city, pollutant, entry, targetTime)
	if err != nil {
		return nil, err
	}

	mult := e.decay(targetHours, entry.HorizonHours)
	preds := make([]float64, 0, 3)
	for _, m := range entry.Regressors() {
		preds = append(preds, m.Predict(x)*mult)
	}
	return summarize(pollutant, targetHours, entry.HorizonHours, mult, preds), nil
}

// summarize computes the ensemble statistics over the member predictions.
func summarize(pollutant string, targetHours, usedHours int, mult float64, preds []float64) *Prediction {
	mean := stat.Mean(preds, nil)
	std := stat.PopStdDev(preds, nil)

	// A non-positive mean reads as full disagreement: relative spread is
	// meaningless there.
	agreement := 0.0
	if mean > 0 {
		agreement = 1 - std/mean
		if agreement < 0 {
			agreement = 0
		}
	}

	p := &Prediction{
		Pollutant:       pollutant,
		HorizonHours:    targetHours,
		UsedHorizon:     usedHours,
		DecayMultiplier: mult,
		Mean:            mean,
		Std:             std,
		Min:             preds[0],
		Max:             preds[0],
		CI95:            [2]float64{mean - 1.96*std, mean + 1.96*std},
		Agreement:       agreement,
	}
	for _, v := range preds {
		if v < p.Min {
			p.Min = v
		}
		if v > p.Max {
			p.Max = v
		}
	}
	return p
}
