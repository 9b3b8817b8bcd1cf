package ml

import "math/rand"

// BoostConfig are the gradient-boosting hyperparameters. MaxLeaves 0 grows
// each round's tree depth-wise to MaxDepth; a positive MaxLeaves grows
// leaf-wise, which produces deeper, narrower trees and a usefully different
// error profile.
type BoostConfig struct {
	Rounds       int
	MaxDepth     int
	MaxLeaves    int
	LearningRate float64
	Subsample    float64
	Colsample    float64
	MinSplit     int
	MinLeaf      int
	Seed         int64
}

// DefaultBoostConfig is the depth-wise booster: 100 rounds of depth-6 trees.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		Rounds:       100,
		MaxDepth:     6,
		LearningRate: 0.1,
		Subsample:    0.8,
		Colsample:    0.8,
		MinSplit:     2,
		MinLeaf:      1,
		Seed:         42,
	}
}

// DefaultLeafwiseConfig is the leaf-wise booster: 100 rounds of 31-leaf
// trees.
func DefaultLeafwiseConfig() BoostConfig {
	return BoostConfig{
		Rounds:       100,
		MaxLeaves:    31,
		LearningRate: 0.1,
		Subsample:    0.8,
		Colsample:    1.0,
		MinSplit:     2,
		MinLeaf:      1,
		Seed:         42,
	}
}

// Boosted is a gradient-boosted ensemble fit on squared error: each round's
// tree fits the residuals of the running prediction.
type Boosted struct {
	Base         float64   `msgpack:"base"`
	LearningRate float64   `msgpack:"lr"`
	Trees        []*Tree   `msgpack:"trees"`
	Importance   []float64 `msgpack:"importance"`
}

// FitBoosted trains a boosted ensemble on X and y.
func FitBoosted(X [][]float64, y []float64, cfg BoostConfig) *Boosted {
	rng := rand.New(rand.NewSource(cfg.Seed))
	n := len(X)
	nFeatures := len(X[0])

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	b := &Boosted{
		Base:         base,
		LearningRate: cfg.LearningRate,
		Importance:   make([]float64, nFeatures),
	}

	current := make([]float64, n)
	for i := range current {
		current[i] = base
	}
	residual := make([]float64, n)
	p := treeParams{
		maxDepth:  cfg.MaxDepth,
		maxLeaves: cfg.MaxLeaves,
		minSplit:  cfg.MinSplit,
		minLeaf:   cfg.MinLeaf,
	}

	for round := 0; round < cfg.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		idx := sampleRows(n, cfg.Subsample, rng)
		features := sampleFeatures(nFeatures, cfg.Colsample, rng)

		var t *Tree
		if cfg.MaxLeaves > 0 {
			t = growLeafWise(X, residual, idx, features, p, b.Importance)
		} else {
			t = growDepthWise(X, residual, idx, features, p, b.Importance)
		}
		b.Trees = append(b.Trees, t)

		for i := range current {
			current[i] += cfg.LearningRate * t.Predict(X[i])
		}
	}
	return b
}

// Predict sums the base value and the shrunken per-round corrections.
func (b *Boosted) Predict(x []float64) float64 {
	out := b.Base
	for _, t := range b.Trees {
		out += b.LearningRate * t.Predict(x)
	}
	return out
}

func (b *Boosted) Importances() []float64 {
	return normalize(b.Importance)
}
