package managers

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/adapters"
	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/storage"
	"github.com/atmowatch/atmowatch/internal/types"
)

type fakeAdapter struct {
	name  string
	table string
	rows  []schema.Row
}

func (a *fakeAdapter) Name() string  { return a.name }
func (a *fakeAdapter) Table() string { return a.table }
func (a *fakeAdapter) Fetch(ctx context.Context, w types.Window, collectedAt time.Time) []schema.Row {
	return a.rows
}

// fakeStore scripts the Upsert outcome per table name.
type fakeStore struct {
	counts   map[string]types.UpsertCounts
	failures map[string]error
	batches  map[string]int
}

func (f *fakeStore) Upsert(ctx context.Context, rows []schema.Row) (types.UpsertCounts, error) {
	table := rows[0].TableName()
	if f.batches == nil {
		f.batches = make(map[string]int)
	}
	f.batches[table]++
	if err := f.failures[table]; err != nil {
		return types.UpsertCounts{}, err
	}
	return f.counts[table], nil
}

func (f *fakeStore) GroundObservations(ctx context.Context, city string, w types.Window) ([]schema.GroundAirQuality, error) {
	return nil, nil
}
func (f *fakeStore) LatestCityObservations(ctx context.Context, city string, since time.Time, limit int) ([]schema.GroundAirQuality, error) {
	return nil, nil
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
func (f *fakeStore) Cities(ctx context.Context, limit int) ([]storage.CityCount, error) {
	return nil, nil
}
func (f *fakeStore) PollutantHistory(ctx context.Context, city, parameter string, since time.Time) ([]schema.GroundAirQuality, error) {
	return nil, nil
}

var _ storage.Store = (*fakeStore)(nil)

func groundRow() schema.Row {
	return schema.GroundAirQuality{
		ObservationTime: time.Now().UTC().Add(-time.Hour),
		Latitude:        40, Longitude: -74,
		LocationID: "s1", Parameter: "PM25", Value: 10,
	}
}

func fireRow() schema.Row {
	return schema.FireDetection{
		AcqDate: time.Now().UTC(), AcqTime: "0110",
		Latitude: 40, Longitude: -74, FRP: 10,
		Confidence: "high", Satellite: "N",
	}
}

func testManager(store storage.Store, adapterList ...adapters.Adapter) *IngestManager {
	return NewIngestManager(adapterList, store, 72, zap.NewNop().Sugar())
}

func TestRunAggregatesCounts(t *testing.T) {
	ground := schema.GroundAirQuality{}.TableName()
	fires := schema.FireDetection{}.TableName()
	store := &fakeStore{counts: map[string]types.UpsertCounts{
		ground: {Inserted: 7, DuplicateSkipped: 2, InvalidSkipped: 1},
		fires:  {Inserted: 3},
	}}
	m := testManager(store,
		&fakeAdapter{name: "ground-stations", table: ground, rows: []schema.Row{groundRow()}},
		&fakeAdapter{name: "active-fires", table: fires, rows: []schema.Row{fireRow()}},
	)

	report := m.Run(context.Background(), IngestRequest{})
	if report.CollectionID == "" {
		t.Error("report has no collection id")
	}
	if len(report.PerSource) != 2 {
		t.Fatalf("report covers %d sources, want 2", len(report.PerSource))
	}
	if got := report.PerSource["ground-stations"].Counts.Inserted; got != 7 {
		t.Errorf("ground inserted = %d, want 7", got)
	}
	want := types.UpsertCounts{Inserted: 10, DuplicateSkipped: 2, InvalidSkipped: 1}
	if report.Totals != want {
		t.Errorf("totals = %+v, want %+v", report.Totals, want)
	}
}

func TestRunDefaultWindow(t *testing.T) {
	m := testManager(&fakeStore{})
	before := time.Now().UTC()
	report := m.Run(context.Background(), IngestRequest{})

	if got := report.WindowEnd.Sub(report.WindowStart); got != 72*time.Hour {
		t.Errorf("default window length = %v, want 72h", got)
	}
	if report.WindowEnd.Before(before) {
		t.Errorf("window end %v predates the run", report.WindowEnd)
	}
}

func TestRunExplicitWindow(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	m := testManager(&fakeStore{})

	report := m.Run(context.Background(), IngestRequest{WindowStart: start, WindowEnd: end})
	if !report.WindowStart.Equal(start) || !report.WindowEnd.Equal(end) {
		t.Errorf("window = [%v, %v), want [%v, %v)",
			report.WindowStart, report.WindowEnd, start, end)
	}
}

func TestRunSourceFilter(t *testing.T) {
	ground := schema.GroundAirQuality{}.TableName()
	fires := schema.FireDetection{}.TableName()
	store := &fakeStore{counts: map[string]types.UpsertCounts{
		ground: {Inserted: 1},
		fires:  {Inserted: 1},
	}}
	m := testManager(store,
		&fakeAdapter{name: "ground-stations", table: ground, rows: []schema.Row{groundRow()}},
		&fakeAdapter{name: "active-fires", table: fires, rows: []schema.Row{fireRow()}},
	)

	report := m.Run(context.Background(), IngestRequest{Sources: []string{"active-fires"}})
	if len(report.PerSource) != 1 {
		t.Fatalf("report covers %d sources, want 1", len(report.PerSource))
	}
	if _, ok := report.PerSource["active-fires"]; !ok {
		t.Error("selected source missing from the report")
	}
	if store.batches[ground] != 0 {
		t.Error("unselected source was still persisted")
	}
}

func TestRunFailedSourceDoesNotBlockOthers(t *testing.T) {
	ground := schema.GroundAirQuality{}.TableName()
	fires := schema.FireDetection{}.TableName()
	store := &fakeStore{
		counts:   map[string]types.UpsertCounts{ground: {Inserted: 5}},
		failures: map[string]error{fires: types.NewFailure(types.KindPersistenceError, "connection reset")},
	}
	m := testManager(store,
		&fakeAdapter{name: "ground-stations", table: ground, rows: []schema.Row{groundRow()}},
		&fakeAdapter{name: "active-fires", table: fires, rows: []schema.Row{fireRow()}},
	)

	report := m.Run(context.Background(), IngestRequest{})
	fireResult := report.PerSource["active-fires"]
	if fireResult.Failure == nil || fireResult.Failure.Kind != types.KindPersistenceError {
		t.Errorf("failed source result = %+v, want a persistence failure", fireResult)
	}
	if got := report.PerSource["ground-stations"].Counts.Inserted; got != 5 {
		t.Errorf("healthy source inserted = %d, want 5", got)
	}
	if report.Totals.Inserted != 5 {
		t.Errorf("totals inserted = %d, want 5", report.Totals.Inserted)
	}
}

func TestRunEmptyFetchSkipsPersistence(t *testing.T) {
	ground := schema.GroundAirQuality{}.TableName()
	store := &fakeStore{}
	m := testManager(store, &fakeAdapter{name: "ground-stations", table: ground})

	report := m.Run(context.Background(), IngestRequest{})
	result, ok := report.PerSource["ground-stations"]
	if !ok {
		t.Fatal("empty source missing from the report")
	}
	if result.Counts != (types.UpsertCounts{}) || result.Failure != nil {
		t.Errorf("empty source result = %+v, want zero counts and no failure", result)
	}
	if store.batches[ground] != 0 {
		t.Error("empty batch reached the store")
	}
}
