// Package ml implements the three tree-ensemble regressors the forecaster
// trains: a bagged forest, a depth-wise gradient-boosted ensemble, and a
// leaf-wise gradient-boosted ensemble. All model state lives in exported
// fields so trained models serialize cleanly.
//
// Fitting is deterministic for a given seed. The ensembles deliberately
// differ in how they grow trees so their validation errors decorrelate; the
// forecast engine uses the spread of the three predictions as its
// uncertainty band.
package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Regressor is a trained model.
type Regressor interface {
	Predict(x []float64) float64
	// Importances returns the normalized per-feature importance vector
	// (impurity-decrease based), length nFeatures.
	Importances() []float64
}

// RMSE is the root mean squared error of predictions against truth.
func RMSE(pred, truth []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	d := make([]float64, len(pred))
	floats.SubTo(d, pred, truth)
	floats.Mul(d, d)
	return math.Sqrt(stat.Mean(d, nil))
}

// MAE is the mean absolute error of predictions against truth.
func MAE(pred, truth []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	d := make([]float64, len(pred))
	floats.SubTo(d, pred, truth)
	for i := range d {
		d[i] = math.Abs(d[i])
	}
	return stat.Mean(d, nil)
}

// normalize scales a non-negative vector to sum to 1. An all-zero vector is
// returned unchanged.
func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}
