package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
	"github.com/atmowatch/atmowatch/pkg/config"
)

var testLogger = zap.NewNop().Sugar()

func testWindow() types.Window {
	end := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	return types.NewWindow(end, 72)
}

func TestSubsampleStride(t *testing.T) {
	tests := []struct {
		name    string
		n, max  int
		wantLen int
	}{
		{"under cap", 5, 10, 5},
		{"at cap", 10, 10, 10},
		{"double", 20, 10, 10},
		{"uneven", 25, 10, 9},
		{"no cap", 7, 0, 7},
		{"empty", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := subsampleStride(tt.n, tt.max)
			if len(idx) != tt.wantLen {
				t.Fatalf("subsampleStride(%d, %d) returned %d indices, want %d",
					tt.n, tt.max, len(idx), tt.wantLen)
			}
			if tt.max > 0 && len(idx) > tt.max {
				t.Errorf("returned %d indices, cap is %d", len(idx), tt.max)
			}
			for i := 1; i < len(idx); i++ {
				if idx[i] <= idx[i-1] {
					t.Errorf("indices not strictly increasing: %v", idx)
				}
			}
			// Deterministic.
			again := subsampleStride(tt.n, tt.max)
			for i := range idx {
				if idx[i] != again[i] {
					t.Errorf("subsampling is not deterministic")
				}
			}
		})
	}
}

type fakeGroundProvider struct {
	name     string
	readings []GroundReading
	err      error
}

func (p *fakeGroundProvider) ProviderName() string { return p.name }
func (p *fakeGroundProvider) FetchCurrent(ctx context.Context, b types.Bounds) ([]GroundReading, error) {
	return p.readings, p.err
}

func TestGroundStationsFetch(t *testing.T) {
	w := testWindow()
	value := 12.5
	good := GroundReading{
		Time: w.End.Add(-time.Hour), Latitude: 40, Longitude: -74,
		LocationID: "s1", City: "Testville", Parameter: "pm2.5", Value: &value, Units: "ug/m3",
	}
	noValue := good
	noValue.Value = nil
	tooOld := good
	tooOld.Time = w.Start.Add(-time.Hour)

	ok := &fakeGroundProvider{name: "provider-a", readings: []GroundReading{good, noValue, tooOld}}
	down := &fakeGroundProvider{name: "provider-b", err: errors.New("timeout")}

	adapter := NewGroundStations([]GroundProvider{ok, down}, types.NorthAmerica, time.Second, testLogger)
	rows := adapter.Fetch(context.Background(), w, time.Now().UTC())

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (nil value and stale readings dropped, failed provider empty)", len(rows))
	}
	row := rows[0].(schema.GroundAirQuality)
	if row.Parameter != "PM25" {
		t.Errorf("parameter = %q, want canonical PM25", row.Parameter)
	}
	if row.Provider != "provider-a" || row.Source != adapter.Name() {
		t.Errorf("provenance = %q/%q", row.Provider, row.Source)
	}
}

type fakeGranuleSource struct {
	granules []Granule
	err      error
}

func (s *fakeGranuleSource) Granules(ctx context.Context, w types.Window) ([]Granule, error) {
	return s.granules, s.err
}

func TestSatelliteHCHOQualityFilter(t *testing.T) {
	w := testWindow()
	bad := -1.0
	fine := 0.7
	source := &fakeGranuleSource{granules: []Granule{{
		MidTime:    w.End.Add(-2 * time.Hour),
		SourceFile: "granule-001.nc",
		Points: []GranulePoint{
			{Latitude: 40, Longitude: -74, Value: 1e15, QualityFlag: &fine},
			{Latitude: 41, Longitude: -75, Value: 2e15, QualityFlag: &bad},
			{Latitude: 42, Longitude: -76, Value: 3e15},
		},
	}}}

	adapter := NewSatellite(HCHOProduct(), source, time.Second, testLogger)
	rows := adapter.Fetch(context.Background(), w, time.Now().UTC())

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (negative quality flag rejected)", len(rows))
	}
	for _, r := range rows {
		col := r.(schema.SatelliteHCHO)
		if col.QualityFlag != nil && *col.QualityFlag < 0 {
			t.Error("negative quality flag leaked through the filter")
		}
		if col.SourceFile != "granule-001.nc" {
			t.Errorf("source file = %q", col.SourceFile)
		}
	}
}

func TestSatelliteSubsamplingCap(t *testing.T) {
	w := testWindow()
	points := make([]GranulePoint, 25000)
	for i := range points {
		points[i] = GranulePoint{Latitude: 40, Longitude: -74, Value: float64(i)}
	}
	source := &fakeGranuleSource{granules: []Granule{{MidTime: w.End.Add(-time.Hour), Points: points}}}

	adapter := NewSatellite(NO2Product(), source, time.Second, testLogger)
	rows := adapter.Fetch(context.Background(), w, time.Now().UTC())
	if len(rows) > 10000 {
		t.Errorf("got %d rows, per-granule cap is 10000", len(rows))
	}
}

func TestSatelliteSourceFailureYieldsEmpty(t *testing.T) {
	source := &fakeGranuleSource{err: errors.New("CMR unavailable")}
	adapter := NewSatellite(O3Product(), source, time.Second, testLogger)
	if rows := adapter.Fetch(context.Background(), testWindow(), time.Now().UTC()); rows != nil {
		t.Errorf("failed source should contribute nothing, got %d rows", len(rows))
	}
}

type fakeFireSource struct {
	detections []FireRecord
}

func (s *fakeFireSource) Detections(ctx context.Context, w types.Window) ([]FireRecord, error) {
	return s.detections, nil
}

func TestFiresConfidenceFilter(t *testing.T) {
	w := testWindow()
	day := w.End.Add(-24 * time.Hour)
	source := &fakeFireSource{detections: []FireRecord{
		{AcqDate: day, AcqTime: "0110", Latitude: 40, Longitude: -74, FRP: 10, Confidence: "high", Satellite: "N"},
		{AcqDate: day, AcqTime: "0110", Latitude: 41, Longitude: -74, FRP: 10, Confidence: "nominal", Satellite: "N"},
		{AcqDate: day, AcqTime: "0110", Latitude: 42, Longitude: -74, FRP: 10, Confidence: "low", Satellite: "N"},
	}}

	adapter := NewFires(source, time.Second, testLogger)
	rows := adapter.Fetch(context.Background(), w, time.Now().UTC())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (low confidence dropped)", len(rows))
	}
}

type fakeMetSource struct {
	samples []MetSample
}

func (s *fakeMetSource) Samples(ctx context.Context, w types.Window) ([]MetSample, error) {
	return s.samples, nil
}

func TestReanalysisPerVariableCap(t *testing.T) {
	w := testWindow()
	var samples []MetSample
	for i := 0; i < 300; i++ {
		samples = append(samples,
			MetSample{Time: w.End.Add(-time.Hour), Latitude: 40, Longitude: -74, Variable: "T2M", Value: 290, Units: "K"},
			MetSample{Time: w.End.Add(-time.Hour), Latitude: 40, Longitude: -74, Variable: "PS", Value: 101000, Units: "Pa"},
		)
	}
	// Variables outside the allow list never reach the store.
	samples = append(samples, MetSample{Time: w.End.Add(-time.Hour), Latitude: 40, Longitude: -74, Variable: "SNOW", Value: 1})

	adapter := NewReanalysis(&fakeMetSource{samples: samples}, 100, time.Second, testLogger)
	rows := adapter.Fetch(context.Background(), w, time.Now().UTC())

	perVariable := make(map[string]int)
	for _, r := range rows {
		perVariable[r.(schema.ReanalysisMet).VariableName]++
	}
	if perVariable["SNOW"] != 0 {
		t.Error("disallowed variable leaked through")
	}
	for _, v := range []string{"T2M", "PS"} {
		if perVariable[v] == 0 || perVariable[v] > 100 {
			t.Errorf("%s: %d rows, want between 1 and 100", v, perVariable[v])
		}
	}
}

type fakePBLHSource struct {
	cells []PBLHCell
}

func (s *fakePBLHSource) Cells(ctx context.Context, w types.Window) ([]PBLHCell, error) {
	return s.cells, nil
}

func TestBoundaryLayerBoundsFilter(t *testing.T) {
	w := testWindow()
	source := &fakePBLHSource{cells: []PBLHCell{
		{Time: w.End.Add(-time.Hour), Latitude: 40, Longitude: -74, HeightM: 800},  // inside
		{Time: w.End.Add(-time.Hour), Latitude: 10, Longitude: -74, HeightM: 900},  // south of box
		{Time: w.End.Add(-time.Hour), Latitude: 40, Longitude: 120, HeightM: 1000}, // wrong hemisphere
	}}

	adapter := NewBoundaryLayer(source, types.NorthAmerica, time.Second, testLogger)
	rows := adapter.Fetch(context.Background(), w, time.Now().UTC())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (out-of-box cells dropped)", len(rows))
	}
	if got := rows[0].(schema.PBLH).PBLHeightM; got != 800 {
		t.Errorf("kept height %v, want 800", got)
	}
}

type fakePointWeather struct{}

func (s *fakePointWeather) Hourly(ctx context.Context, lat, lon float64, w types.Window) ([]WeatherHour, error) {
	return []WeatherHour{{
		Time: w.End.Add(-time.Hour), TemperatureC: 20, HumidityPct: 60,
		PrecipMM: 0, WindKMH: 12, PressureHPA: 1013, CloudPct: 30,
	}}, nil
}

func TestGridWeatherSweep(t *testing.T) {
	grid := config.GridData{LatMin: 40, LatMax: 44, LonMin: -80, LonMax: -76, SpacingDeg: 2}
	adapter := NewGridWeather(&fakePointWeather{}, grid, 6000, time.Second, testLogger)

	points := adapter.gridPoints()
	if len(points) != 9 {
		t.Fatalf("3x3 grid produced %d points, want 9", len(points))
	}
	if points[0] != [2]float64{40, -80} || points[len(points)-1] != [2]float64{44, -76} {
		t.Errorf("grid corners = %v and %v", points[0], points[len(points)-1])
	}

	rows := adapter.Fetch(context.Background(), testWindow(), time.Now().UTC())
	if len(rows) != 9 {
		t.Fatalf("got %d rows, want one per grid point", len(rows))
	}
	seen := make(map[[2]float64]bool)
	for _, r := range rows {
		gw := r.(schema.GriddedWeather)
		seen[[2]float64{gw.Latitude, gw.Longitude}] = true
	}
	if len(seen) != 9 {
		t.Errorf("rows cover %d distinct points, want 9", len(seen))
	}
}
