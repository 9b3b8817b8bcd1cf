package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/features"
	"github.com/atmowatch/atmowatch/internal/ml"
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
func (f *fakeStore) LatestCityObservations(ctx context.Context, city string, since time.Time, limit int) ([]schema.GroundAirQuality, error) {
	out := make([]schema.GroundAirQuality, len(f.ground))
	copy(out, f.ground)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
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

// constant regressors let the ensemble math be checked exactly.
func constantEntry(pollutant string, horizon int, a, b, c float64) *registry.Entry {
	leaf := func(v float64) *ml.Tree {
		return &ml.Tree{Nodes: []ml.Node{{IsLeaf: true, Value: v}}}
	}
	return &registry.Entry{
		Pollutant:    pollutant,
		HorizonHours: horizon,
		FeatureNames: []string{pollutant, "hour"},
		Forest:       &ml.Forest{Trees: []*ml.Tree{leaf(a)}},
		Boosted:      &ml.Boosted{Base: b},
		Leafwise:     &ml.Boosted{Base: c},
		Scaler:       &ml.Scaler{Mean: []float64{0, 0}, Std: []float64{1, 1}},
	}
}

func recentGround(pollutant string) []schema.GroundAirQuality {
	return []schema.GroundAirQuality{{
		ObservationTime: time.Now().UTC().Add(-time.Hour),
		Latitude:        40, Longitude: -74,
		LocationID: "s1", City: "Testville",
		Parameter: pollutant, Value: 12.5, Units: "ug/m3",
	}}
}

func testEngine(store Observations, reg *registry.Registry) *Engine {
	logger := zap.NewNop().Sugar()
	return New(store, features.New(time.Hour, 0.1, 50, logger), reg, 0.95, logger)
}

func failureKind(t *testing.T, err error) types.FailureKind {
	t.Helper()
	var f *types.Failure
	if !errors.As(err, &f) {
		t.Fatalf("error %v is not a structured failure", err)
	}
	return f.Kind
}

func TestEnsembleAgreementPerfect(t *testing.T) {
	reg := registry.New()
	reg.Put(constantEntry("PM25", 24, 10, 10, 10))
	engine := testEngine(&fakeStore{ground: recentGround("PM25")}, reg)

	p, err := engine.Ensemble(context.Background(), "Testville", "PM25", 24)
	if err != nil {
		t.Fatalf("Ensemble: %v", err)
	}
	if p.Mean != 10 || p.Std != 0 {
		t.Errorf("mean/std = %v/%v, want 10/0", p.Mean, p.Std)
	}
	if p.Agreement != 1 {
		t.Errorf("agreement = %v, want 1", p.Agreement)
	}
	if p.CI95 != [2]float64{10, 10} {
		t.Errorf("ci95 = %v, want [10, 10]", p.CI95)
	}
}

func TestEnsembleSpread(t *testing.T) {
	reg := registry.New()
	reg.Put(constantEntry("PM25", 24, 8, 10, 14))
	engine := testEngine(&fakeStore{ground: recentGround("PM25")}, reg)

	p, err := engine.Ensemble(context.Background(), "Testville", "PM25", 24)
	if err != nil {
		t.Fatalf("Ensemble: %v", err)
	}
	wantMean := 32.0 / 3.0
	wantStd := math.Sqrt((math.Pow(8-wantMean, 2) + math.Pow(10-wantMean, 2) + math.Pow(14-wantMean, 2)) / 3)
	if math.Abs(p.Mean-wantMean) > 1e-9 {
		t.Errorf("mean = %v, want %v", p.Mean, wantMean)
	}
	if math.Abs(p.Std-wantStd) > 1e-9 {
		t.Errorf("std = %v, want %v", p.Std, wantStd)
	}
	wantAgreement := 1 - wantStd/wantMean
	if math.Abs(p.Agreement-wantAgreement) > 1e-9 {
		t.Errorf("agreement = %v, want %v", p.Agreement, wantAgreement)
	}
	if p.Min != 8 || p.Max != 14 {
		t.Errorf("min/max = %v/%v, want 8/14", p.Min, p.Max)
	}
}

func TestEnsembleAgreementNonPositiveMean(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c float64
	}{
		{"all negative", -5, -5, -5},
		{"zero mean", -10, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			reg.Put(constantEntry("PM25", 24, tt.a, tt.b, tt.c))
			engine := testEngine(&fakeStore{ground: recentGround("PM25")}, reg)

			p, err := engine.Ensemble(context.Background(), "Testville", "PM25", 24)
			if err != nil {
				t.Fatalf("Ensemble: %v", err)
			}
			if p.Agreement != 0 {
				t.Errorf("agreement = %v, want 0 for non-positive mean", p.Agreement)
			}
		})
	}
}

func TestHorizonFallbackAndDecay(t *testing.T) {
	reg := registry.New()
	for _, h := range []int{1, 6, 24} {
		reg.Put(constantEntry("PM25", h, 20, 20, 20))
	}
	engine := testEngine(&fakeStore{ground: recentGround("PM25")}, reg)

	tests := []struct {
		target    int
		wantUsed  int
		wantDecay float64
	}{
		{24, 24, 1},
		{6, 6, 1},
		{48, 24, 0.95},
		{72, 24, math.Pow(0.95, 2)},
		{12, 6, 0.95},
	}
	for _, tt := range tests {
		p, err := engine.Ensemble(context.Background(), "Testville", "PM25", tt.target)
		if err != nil {
			t.Fatalf("Ensemble(h=%d): %v", tt.target, err)
		}
		if p.UsedHorizon != tt.wantUsed {
			t.Errorf("h=%d: used horizon %d, want %d", tt.target, p.UsedHorizon, tt.wantUsed)
		}
		if math.Abs(p.DecayMultiplier-tt.wantDecay) > 1e-12 {
			t.Errorf("h=%d: decay %v, want %v", tt.target, p.DecayMultiplier, tt.wantDecay)
		}
		if math.Abs(p.Mean-20*tt.wantDecay) > 1e-9 {
			t.Errorf("h=%d: mean %v, want %v", tt.target, p.Mean, 20*tt.wantDecay)
		}
	}
}

func TestEnsembleModelMissing(t *testing.T) {
	engine := testEngine(&fakeStore{ground: recentGround("PM25")}, registry.New())
	_, err := engine.Ensemble(context.Background(), "Testville", "PM25", 24)
	if err == nil {
		t.Fatal("expected a failure with an empty registry")
	}
	if kind := failureKind(t, err); kind != types.KindModelMissing {
		t.Errorf("failure kind = %s, want ModelMissing", kind)
	}
}

func TestEnsembleFeatureMismatch(t *testing.T) {
	reg := registry.New()
	reg.Put(constantEntry("PM25", 24, 10, 10, 10))
	// Only PM10 observed recently: the PM25 forecast must fail instead of
	// silently zero-filling the target pollutant.
	engine := testEngine(&fakeStore{ground: recentGround("PM10")}, reg)

	_, err := engine.Ensemble(context.Background(), "Testville", "PM25", 24)
	if err == nil {
		t.Fatal("expected a failure when the target pollutant has no recent value")
	}
	if kind := failureKind(t, err); kind != types.KindFeatureMismatch {
		t.Errorf("failure kind = %s, want FeatureMismatch", kind)
	}
}

func TestCurrentConditions(t *testing.T) {
	reg := registry.New()
	store := &fakeStore{ground: []schema.GroundAirQuality{
		{
			ObservationTime: time.Now().UTC().Add(-2 * time.Hour),
			Latitude:        40, Longitude: -74, LocationID: "s1", City: "Testville",
			Parameter: "PM25", Value: 12.0,
		},
		{
			ObservationTime: time.Now().UTC().Add(-time.Hour),
			Latitude:        40, Longitude: -74, LocationID: "s1", City: "Testville",
			Parameter: "PM10", Value: 155,
		},
	}}
	engine := testEngine(store, reg)

	cond, err := engine.CurrentConditions(context.Background(), "Testville")
	if err != nil {
		t.Fatalf("CurrentConditions: %v", err)
	}
	// PM25 12.0 -> 50, PM10 155 -> 101; PM10 dominates.
	if cond.AQI != 101 || cond.DominantPollutant != "PM10" {
		t.Errorf("AQI = %d dominant %s, want 101 PM10", cond.AQI, cond.DominantPollutant)
	}
	if cond.Category != "Unhealthy for Sensitive Groups" {
		t.Errorf("category = %q", cond.Category)
	}
}

func TestCurrentConditionsNoData(t *testing.T) {
	engine := testEngine(&fakeStore{}, registry.New())
	_, err := engine.CurrentConditions(context.Background(), "Nowhere")
	if err == nil {
		t.Fatal("expected a failure with no observations")
	}
	if kind := failureKind(t, err); kind != types.KindInsufficientData {
		t.Errorf("failure kind = %s, want InsufficientData", kind)
	}
}

func TestDayForecast(t *testing.T) {
	reg := registry.New()
	reg.Put(constantEntry("PM25", 24, 30, 30, 30))
	engine := testEngine(&fakeStore{ground: recentGround("PM25")}, reg)

	days, err := engine.DayForecast(context.Background(), "Testville", 2)
	if err != nil {
		t.Fatalf("DayForecast: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	// Day 1 is undecayed: PM2.5 30 -> AQI 89 Moderate.
	if days[0].AQI != 89 || days[0].Category != "Moderate" {
		t.Errorf("day 1 = %d %q, want 89 Moderate", days[0].AQI, days[0].Category)
	}
	// Day 2 runs the 24h model decayed by 0.95.
	if len(days[1].Pollutants) != 1 {
		t.Fatalf("day 2 has %d pollutants, want 1", len(days[1].Pollutants))
	}
	if got := days[1].Pollutants[0].Value; math.Abs(got-30*0.95) > 1e-9 {
		t.Errorf("day 2 PM25 = %v, want %v", got, 30*0.95)
	}
}
