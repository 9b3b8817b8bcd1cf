package train

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/features"
	"github.com/atmowatch/atmowatch/internal/registry"
	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

type fakeStore struct {
	ground []schema.GroundAirQuality
}

func (f *fakeStore) GroundObservations(ctx context.Context, city string, w types.Window) ([]schema.GroundAirQuality, error) {
	return f.ground, nil
}
func (f *fakeStore) MetObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.ReanalysisMet, error) {
	return nil, nil
}
func (f *fakeStore) PBLHObservations(ctx context.Context, b types.Bounds, w types.Window) ([]schema.PBLH, error) {
	return nil, nil
}
func (f *fakeStore) FireDetections(ctx context.Context, w types.Window) ([]schema.FireDetection, error) {
	return nil, nil
}

func hourlyGround(n int, station string, value func(h int) float64) []schema.GroundAirQuality {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]schema.GroundAirQuality, 0, n)
	for h := 0; h < n; h++ {
		out = append(out, schema.GroundAirQuality{
			ObservationTime: start.Add(time.Duration(h) * time.Hour),
			Latitude:        40, Longitude: -74,
			LocationID: station, City: "Testville",
			Parameter: "PM25", Value: value(h),
		})
	}
	return out
}

func testTrainer(store Observations, cfg Config) (*Trainer, *registry.Registry) {
	logger := zap.NewNop().Sugar()
	assembler := features.New(time.Hour, 0.1, 50, logger)
	reg := registry.New()
	return New(store, assembler, reg, cfg, logger), reg
}

func testConfig() Config {
	return Config{
		Horizons:      []int{24},
		SplitFraction: 0.8,
		MinSamples:    20,
		LookbackDays:  90,
	}
}

func TestDatasetTargetShift(t *testing.T) {
	logger := zap.NewNop().Sugar()
	assembler := features.New(time.Hour, 0.1, 50, logger)
	frame := assembler.Assemble(hourlyGround(48, "s1", func(h int) float64 { return float64(h) }), nil, nil, nil)

	ds := buildDataset(frame, "PM25", 24)
	// Hours 0..23 have a +24h partner; 24..47 do not.
	if len(ds.X) != 24 {
		t.Fatalf("dataset has %d rows, want 24", len(ds.X))
	}
	// y is the value 24 hours later: h + 24.
	for i, y := range ds.Y {
		if y != float64(i+24) {
			t.Errorf("row %d: y = %v, want %v", i, y, i+24)
		}
	}
}

func TestSplitIsStrictlyTemporal(t *testing.T) {
	logger := zap.NewNop().Sugar()
	assembler := features.New(time.Hour, 0.1, 50, logger)
	frame := assembler.Assemble(hourlyGround(200, "s1", func(h int) float64 { return float64(h % 7) }), nil, nil, nil)

	ds := buildDataset(frame, "PM25", 24)
	cut := splitIndex(len(ds.X), 0.8)
	if cut == 0 || cut == len(ds.X) {
		t.Fatalf("degenerate split %d of %d", cut, len(ds.X))
	}
	if !ds.Times[cut-1].Before(ds.Times[cut]) {
		t.Errorf("last train time %v not strictly before first validation time %v",
			ds.Times[cut-1], ds.Times[cut])
	}
}

func TestRunSkipsBelowMinSamples(t *testing.T) {
	// 39 hourly readings leave 15 rows with a 24h target.
	store := &fakeStore{ground: hourlyGround(39, "s1", func(h int) float64 { return float64(h) })}
	trainer, reg := testTrainer(store, testConfig())

	report, err := trainer.Run(context.Background(), Request{Pollutants: []string{"PM25"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Trained) != 0 {
		t.Fatalf("trained %d keys, want 0", len(report.Trained))
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped %d keys, want 1", len(report.Skipped))
	}
	skip := report.Skipped[0]
	if skip.Pollutant != "PM25" || skip.HorizonHours != 24 {
		t.Errorf("skip key = (%s, %d), want (PM25, 24)", skip.Pollutant, skip.HorizonHours)
	}
	if skip.Reason != types.KindInsufficientData {
		t.Errorf("skip reason = %s, want InsufficientData", skip.Reason)
	}
	if skip.Count != 15 {
		t.Errorf("skip count = %d, want 15", skip.Count)
	}
	if reg.Len() != 0 {
		t.Errorf("registry has %d entries after a skipped run, want 0", reg.Len())
	}
}

func TestRunTrainsAndRegisters(t *testing.T) {
	store := &fakeStore{ground: hourlyGround(240, "s1", func(h int) float64 {
		return 10 + 5*float64(h%24)/24
	})}
	trainer, reg := testTrainer(store, testConfig())

	report, err := trainer.Run(context.Background(), Request{Pollutants: []string{"PM25"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Trained) != 1 {
		t.Fatalf("trained %d keys, want 1 (skipped: %+v)", len(report.Trained), report.Skipped)
	}
	trained := report.Trained[0]
	if trained.BestModel == "" {
		t.Error("no best model recorded")
	}
	if len(trained.Metrics) != 3 {
		t.Errorf("metrics for %d models, want 3", len(trained.Metrics))
	}
	bestRMSE := trained.Metrics[trained.BestModel].RMSE
	for name, m := range trained.Metrics {
		if m.RMSE < bestRMSE {
			t.Errorf("model %s has RMSE %v below best %v", name, m.RMSE, bestRMSE)
		}
	}

	entry := reg.Get("PM25", 24)
	if entry == nil {
		t.Fatal("registry has no entry for (PM25, 24)")
	}
	if len(entry.FeatureNames) == 0 {
		t.Error("entry has no feature names")
	}
	if entry.Scaler == nil {
		t.Error("entry has no fitted scaler")
	}
	if entry.Forest == nil || entry.Boosted == nil || entry.Leafwise == nil {
		t.Error("entry is missing ensemble members")
	}
	var sum float64
	for _, v := range entry.Importance {
		sum += v
	}
	if sum == 0 {
		t.Error("importance vector is all zero")
	}
	if entry.TrainRows != trained.TrainRows || entry.ValRows != trained.ValRows {
		t.Error("entry row counts disagree with report")
	}
}

func TestRunCanonicalizesPollutants(t *testing.T) {
	store := &fakeStore{ground: hourlyGround(240, "s1", func(h int) float64 { return float64(h % 5) })}
	trainer, reg := testTrainer(store, testConfig())

	requested := []string{"pm2.5"}
	if _, err := trainer.Run(context.Background(), Request{Pollutants: requested}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reg.Get("PM25", 24) == nil {
		t.Error("request pollutant pm2.5 should train canonical PM25")
	}
	if requested[0] != "pm2.5" {
		t.Errorf("caller's pollutant slice was rewritten to %q", requested[0])
	}
}
