package ml

import "gonum.org/v1/gonum/stat"

// Scaler standardizes features to zero mean and unit variance. The tree
// models ignore it, but it is fit and stored alongside every model so a
// future scale-sensitive regressor can join the ensemble without a contract
// change.
type Scaler struct {
	Mean []float64 `msgpack:"mean"`
	Std  []float64 `msgpack:"std"`
}

// FitScaler computes per-column mean and standard deviation. Constant
// columns get a std of 1 so Transform leaves them at zero.
func FitScaler(X [][]float64) *Scaler {
	if len(X) == 0 {
		return &Scaler{}
	}
	nFeatures := len(X[0])
	s := &Scaler{
		Mean: make([]float64, nFeatures),
		Std:  make([]float64, nFeatures),
	}
	col := make([]float64, len(X))
	for j := 0; j < nFeatures; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.PopStdDev(col, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s
}

// Transform standardizes one feature vector.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}
