// Package registry holds the trained model entries, keyed by
// (pollutant, horizon). Entries are replaced atomically per key; readers get
// either the old entry or the new one, never a partial. Snapshots persist
// the whole registry as a msgpack blob so models survive process restarts.
package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/atmowatch/atmowatch/internal/ml"
)

// Metrics are one model's validation scores.
type Metrics struct {
	RMSE float64 `msgpack:"rmse" json:"rmse"`
	MAE  float64 `msgpack:"mae" json:"mae"`
}

// Entry is everything stored for one trained (pollutant, horizon) key.
type Entry struct {
	Pollutant    string             `msgpack:"pollutant" json:"pollutant"`
	HorizonHours int                `msgpack:"horizon_hours" json:"horizon_hours"`
	FeatureNames []string           `msgpack:"feature_names" json:"feature_names"`
	Forest       *ml.Forest         `msgpack:"forest" json:"-"`
	Boosted      *ml.Boosted        `msgpack:"boosted" json:"-"`
	Leafwise     *ml.Boosted        `msgpack:"leafwise" json:"-"`
	Scaler       *ml.Scaler         `msgpack:"scaler" json:"-"`
	Metrics      map[string]Metrics `msgpack:"metrics" json:"metrics"`
	BestModel    string             `msgpack:"best_model" json:"best_model"`
	Importance   map[string]float64 `msgpack:"importance" json:"importance"`
	TrainRows    int                `msgpack:"train_rows" json:"train_rows"`
	ValRows      int                `msgpack:"val_rows" json:"val_rows"`
	TrainedAt    time.Time          `msgpack:"trained_at" json:"trained_at"`
}

// Regressors returns the three ensemble members in a fixed order.
func (e *Entry) Regressors() []ml.Regressor {
	return []ml.Regressor{e.Forest, e.Boosted, e.Leafwise}
}

type key struct {
	pollutant string
	horizon   int
}

// Registry is the in-process model store.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]*Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[key]*Entry)}
}

// Put replaces the entry for (pollutant, horizon).
func (r *Registry) Put(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key{pollutant: e.Pollutant, horizon: e.HorizonHours}] = e
}

// Get returns the entry for the exact key, or nil.
func (r *Registry) Get(pollutant string, horizonHours int) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[key{pollutant: pollutant, horizon: horizonHours}]
}

// Horizons returns the trained horizons for a pollutant, unordered.
func (r *Registry) Horizons(pollutant string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hs []int
	for k := range r.entries {
		if k.pollutant == pollutant {
			hs = append(hs, k.horizon)
		}
	}
	return hs
}

// Pollutants returns the distinct pollutants with at least one trained
// model, sorted.
func (r *Registry) Pollutants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for k := range r.entries {
		if !seen[k.pollutant] {
			seen[k.pollutant] = true
			out = append(out, k.pollutant)
		}
	}
	sort.Strings(out)
	return out
}

// Entries returns a snapshot of all entries.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Len reports the number of trained keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Save writes the registry to path as a msgpack snapshot, via a temp file
// and rename so a crash never leaves a truncated snapshot.
func (r *Registry) Save(path string) error {
	r.mu.RLock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	blob, err := msgpack.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding registry snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("writing registry snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing registry snapshot: %w", err)
	}
	return nil
}

// Load hydrates the registry from a snapshot written by Save. A missing file
// is not an error; the registry just starts empty.
func (r *Registry) Load(path string) error {
	blob, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading registry snapshot: %w", err)
	}
	var entries []*Entry
	if err := msgpack.Unmarshal(blob, &entries); err != nil {
		return fmt.Errorf("decoding registry snapshot: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[key{pollutant: e.Pollutant, horizon: e.HorizonHours}] = e
	}
	return nil
}
