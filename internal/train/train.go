// Package train runs the supervised training loop: one model entry per
// (pollutant, horizon), fit on the assembled feature frame with a strict
// time-ordered split.
package train

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/features"
	"github.com/atmowatch/atmowatch/internal/ml"
	"github.com/atmowatch/atmowatch/internal/registry"
	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// Observations is the slice of the store the trainer reads.
type Observations interface {
	GroundObservations(ctx context.Context, city string, w types.Window) ([]schema.GroundAirQuality, error)
	MetObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.ReanalysisMet, error)
	PBLHObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.PBLH, error)
	FireDetections(ctx context.Context, w types.Window) ([]schema.FireDetection, error)
}

// Request selects what to train. Zero values fall back to the configured
// defaults.
type Request struct {
	Days       int      `json:"days,omitempty"`
	Pollutants []string `json:"pollutants,omitempty"`
	Horizons   []int    `json:"horizons,omitempty"`
}

// Trained describes one successfully trained key.
type Trained struct {
	Pollutant    string                      `json:"pollutant"`
	HorizonHours int                         `json:"horizon_hours"`
	BestModel    string                      `json:"best_model"`
	Metrics      map[string]registry.Metrics `json:"metrics"`
	TrainRows    int                         `json:"train_rows"`
	ValRows      int                         `json:"val_rows"`
}

// Skip describes one key that was not trained and why.
type Skip struct {
	Pollutant    string            `json:"pollutant"`
	HorizonHours int               `json:"horizon_hours"`
	Reason       types.FailureKind `json:"reason"`
	Count        int               `json:"count"`
}

// Report is the outcome of one training run.
type Report struct {
	Trained []Trained `json:"trained"`
	Skipped []Skip    `json:"skipped"`
}

// Config are the trainer defaults.
type Config struct {
	Horizons      []int
	SplitFraction float64
	MinSamples    int
	LookbackDays  int
	Pollutants    []string
	SnapshotPath  string
}

// Trainer orchestrates training runs against the store and registry.
type Trainer struct {
	store     Observations
	assembler *features.Assembler
	registry  *registry.Registry
	cfg       Config
	logger    *zap.SugaredLogger
}

// New creates a Trainer.
func New(store Observations, assembler *features.Assembler, reg *registry.Registry, cfg Config, logger *zap.SugaredLogger) *Trainer {
	return &Trainer{
		store:     store,
		assembler: assembler,
		registry:  reg,
		cfg:       cfg,
		logger:    logger.Named("train"),
	}
}

// Run executes one training cycle. Keys train concurrently; the report
// collects every outcome. Training is CPU-bound, so callers must keep it off
// the request path.
func (t *Trainer) Run(ctx context.Context, req Request) (*Report, error) {
	days := req.Days
	if days <= 0 {
		days = t.cfg.LookbackDays
	}
	pollutants := req.Pollutants
	if len(pollutants) == 0 {
		pollutants = t.cfg.Pollutants
	}
	if len(pollutants) == 0 {
		pollutants = schema.CanonicalPollutants
	}
	// Canonicalize on a copy; the request and config slices stay untouched.
	pollutants = append([]string(nil), pollutants...)
	for i, p := range pollutants {
		pollutants[i] = schema.CanonicalParameter(p)
	}
	horizons := req.Horizons
	if len(horizons) == 0 {
		horizons = t.cfg.Horizons
	}

	w := types.NewWindow(time.Now().UTC(), days*24)
	frame, err := t.assembleFrame(ctx, w)
	if err != nil {
		return nil, err
	}

	report := &Report{Trained: []Trained{}, Skipped: []Skip{}}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range pollutants {
		for _, h := range horizons {
			wg.Add(1)
			go func(pollutant string, horizon int) {
				defer wg.Done()
				trained, skip := t.trainOne(frame, pollutant, horizon)
				mu.Lock()
				defer mu.Unlock()
				if trained != nil {
					report.Trained = append(report.Trained, *trained)
				} else {
					report.Skipped = append(report.Skipped, *skip)
				}
			}(p, h)
		}
	}
	wg.Wait()

	if t.cfg.SnapshotPath != "" && len(report.Trained) > 0 {
		if err := t.registry.Save(t.cfg.SnapshotPath); err != nil {
			t.logger.Warnw("registry snapshot failed", "path", t.cfg.SnapshotPath, "error", err)
		}
	}
	t.logger.Infow("training run complete",
		"trained", len(report.Trained), "skipped", len(report.Skipped), "lookback_days", days)
	return report, nil
}

func (t *Trainer) assembleFrame(ctx context.Context, w types.Window) (features.Frame, error) {
	ground, err := t.store.GroundObservations(ctx, "", w)
	if err != nil {
		return features.Frame{}, fmt.Errorf("loading ground observations: %w", err)
	}
	met, err := t.store.MetObservations(ctx, types.NorthAmerica, w)
	if err != nil {
		return features.Frame{}, fmt.Errorf("loading meteorology: %w", err)
	}
	pblh, err := t.store.PBLHObservations(ctx, types.NorthAmerica, w)
	if err != nil {
		return features.Frame{}, fmt.Errorf("loading boundary-layer heights: %w", err)
	}
	fires, err := t.store.FireDetections(ctx, w)
	if err != nil {
		return features.Frame{}, fmt.Errorf("loading fire detections: %w", err)
	}
	return t.assembler.Assemble(ground, met, pblh, fires), nil
}

// trainOne fits the three regressors for one key and stores the entry.
func (t *Trainer) trainOne(frame features.Frame, pollutant string, horizon int) (*Trained, *Skip) {
	ds := buildDataset(frame, pollutant, horizon)
	n := len(ds.X)
	cut := splitIndex(n, t.cfg.SplitFraction)
	if cut < t.cfg.MinSamples {
		t.logger.Infow("skipping key, not enough training rows",
			"pollutant", pollutant, "horizon_hours", horizon, "rows", n)
		return nil, &Skip{
			Pollutant:    pollutant,
			HorizonHours: horizon,
			Reason:       types.KindInsufficientData,
			Count:        n,
		}
	}

	trainX, trainY := ds.X[:cut], ds.Y[:cut]
	valX, valY := ds.X[cut:], ds.Y[cut:]

	forest := ml.FitForest(trainX, trainY, ml.DefaultForestConfig())
	boosted := ml.FitBoosted(trainX, trainY, ml.DefaultBoostConfig())
	leafwise := ml.FitBoosted(trainX, trainY, ml.DefaultLeafwiseConfig())

	models := map[string]ml.Regressor{
		"forest":   forest,
		"boosted":  boosted,
		"leafwise": leafwise,
	}
	metrics := make(map[string]registry.Metrics, len(models))
	best := ""
	for _, name := range []string{"forest", "boosted", "leafwise"} {
		pred := make([]float64, len(valX))
		for i, x := range valX {
			pred[i] = models[name].Predict(x)
		}
		m := registry.Metrics{RMSE: ml.RMSE(pred, valY), MAE: ml.MAE(pred, valY)}
		metrics[name] = m
		if best == "" || m.RMSE < metrics[best].RMSE {
			best = name
		}
	}

	importance := make(map[string]float64, len(ds.Columns))
	for j, v := range models[best].Importances() {
		importance[ds.Columns[j]] = v
	}

	entry := &registry.Entry{
		Pollutant:    pollutant,
		HorizonHours: horizon,
		FeatureNames: ds.Columns,
		Forest:       forest,
		Boosted:      boosted,
		Leafwise:     leafwise,
		Scaler:       ml.FitScaler(trainX),
		Metrics:      metrics,
		BestModel:    best,
		Importance:   importance,
		TrainRows:    cut,
		ValRows:      n - cut,
		TrainedAt:    time.Now().UTC(),
	}
	t.registry.Put(entry)

	t.logger.Infow("key trained",
		"pollutant", pollutant, "horizon_hours", horizon,
		"best", best, "rmse", metrics[best].RMSE, "train_rows", cut, "val_rows", n-cut)
	return &Trained{
		Pollutant:    pollutant,
		HorizonHours: horizon,
		BestModel:    best,
		Metrics:      metrics,
		TrainRows:    cut,
		ValRows:      n - cut,
	}, nil
}
