package registry

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/atmowatch/atmowatch/internal/ml"
)

func testEntry(pollutant string, horizon int, rmse float64) *Entry {
	return &Entry{
		Pollutant:    pollutant,
		HorizonHours: horizon,
		FeatureNames: []string{pollutant, "hour"},
		Forest:       &ml.Forest{Trees: []*ml.Tree{{Nodes: []ml.Node{{IsLeaf: true, Value: 10}}}}},
		Boosted:      &ml.Boosted{Base: 10, LearningRate: 0.1},
		Leafwise:     &ml.Boosted{Base: 10, LearningRate: 0.1},
		Scaler:       &ml.Scaler{Mean: []float64{0, 0}, Std: []float64{1, 1}},
		Metrics:      map[string]Metrics{"forest": {RMSE: rmse, MAE: rmse * 0.8}},
		BestModel:    "forest",
		Importance:   map[string]float64{pollutant: 0.9, "hour": 0.1},
		TrainRows:    80,
		ValRows:      20,
		TrainedAt:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPutReplacesAtomically(t *testing.T) {
	r := New()
	r.Put(testEntry("PM25", 24, 5.0))
	r.Put(testEntry("PM25", 24, 3.0))

	if r.Len() != 1 {
		t.Fatalf("registry has %d entries, want 1", r.Len())
	}
	got := r.Get("PM25", 24)
	if got.Metrics["forest"].RMSE != 3.0 {
		t.Errorf("Get returned the old entry (RMSE %v)", got.Metrics["forest"].RMSE)
	}
}

func TestGetExactKeyOnly(t *testing.T) {
	r := New()
	r.Put(testEntry("PM25", 24, 5.0))
	if r.Get("PM25", 6) != nil {
		t.Error("Get(PM25, 6) should be nil; only 24 is trained")
	}
	if r.Get("PM10", 24) != nil {
		t.Error("Get(PM10, 24) should be nil")
	}
}

func TestHorizonsAndPollutants(t *testing.T) {
	r := New()
	r.Put(testEntry("PM25", 1, 1))
	r.Put(testEntry("PM25", 24, 1))
	r.Put(testEntry("NO2", 6, 1))

	hs := r.Horizons("PM25")
	if len(hs) != 2 {
		t.Errorf("Horizons(PM25) = %v, want 2 entries", hs)
	}
	ps := r.Pollutants()
	if len(ps) != 2 || ps[0] != "NO2" || ps[1] != "PM25" {
		t.Errorf("Pollutants() = %v, want [NO2 PM25]", ps)
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Put(testEntry("PM25", 24, float64(j)))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if e := r.Get("PM25", 24); e != nil && e.Pollutant != "PM25" {
					t.Error("reader observed a partial entry")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.msgpack")

	r := New()
	r.Put(testEntry("PM25", 24, 4.2))
	r.Put(testEntry("NO2", 6, 2.1))
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	hydrated := New()
	if err := hydrated.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hydrated.Len() != 2 {
		t.Fatalf("hydrated registry has %d entries, want 2", hydrated.Len())
	}
	e := hydrated.Get("PM25", 24)
	if e == nil {
		t.Fatal("hydrated registry missing (PM25, 24)")
	}
	if e.BestModel != "forest" || e.Metrics["forest"].RMSE != 4.2 {
		t.Errorf("entry round-trip mismatch: %+v", e)
	}
	if len(e.FeatureNames) != 2 || e.FeatureNames[0] != "PM25" {
		t.Errorf("feature names round-trip mismatch: %v", e.FeatureNames)
	}
	// The hydrated models must still predict.
	if got := e.Forest.Predict([]float64{1, 2}); got != 10 {
		t.Errorf("hydrated forest predicts %v, want 10", got)
	}
	if got := e.Boosted.Predict([]float64{1, 2}); got != 10 {
		t.Errorf("hydrated booster predicts %v, want 10", got)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	r := New()
	if err := r.Load(filepath.Join(t.TempDir(), "absent.msgpack")); err != nil {
		t.Errorf("Load of a missing snapshot should be a no-op, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("registry should stay empty, has %d entries", r.Len())
	}
}
