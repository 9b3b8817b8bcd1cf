package ml

import "math/rand"

// ForestConfig are the bagged-forest hyperparameters.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64
}

// DefaultForestConfig matches the tuned production settings.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 20, MinSplit: 10, MinLeaf: 5, Seed: 42}
}

// Forest is a bagged ensemble of regression trees, each fit on a bootstrap
// resample of the training rows.
type Forest struct {
	Trees      []*Tree   `msgpack:"trees"`
	Importance []float64 `msgpack:"importance"`
}

// FitForest trains a forest on X (rows of features) and y.
func FitForest(X [][]float64, y []float64, cfg ForestConfig) *Forest {
	rng := rand.New(rand.NewSource(cfg.Seed))
	nFeatures := len(X[0])
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}

	f := &Forest{Importance: make([]float64, nFeatures)}
	p := treeParams{maxDepth: cfg.MaxDepth, minSplit: cfg.MinSplit, minLeaf: cfg.MinLeaf}
	for i := 0; i < cfg.Trees; i++ {
		idx := bootstrapRows(len(X), rng)
		f.Trees = append(f.Trees, growDepthWise(X, y, idx, features, p, f.Importance))
	}
	return f
}

// Predict averages the per-tree predictions.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

func (f *Forest) Importances() []float64 {
	return normalize(f.Importance)
}
