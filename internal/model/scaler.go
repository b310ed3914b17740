package model

import (
	"math"

	"github.com/zcredlabs/zscore/internal/features"
)

// Scaler standardizes features to zero mean and unit variance. It is
// fitted on the training split only so held-out evaluation never leaks
// test statistics.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-feature means and standard deviations over X.
// Zero-variance features scale by one so Transform stays finite.
func FitScaler(X []features.Vector) *Scaler {
	mean := make([]float64, features.Count)
	scale := make([]float64, features.Count)

	if len(X) == 0 {
		for i := range scale {
			scale[i] = 1
		}
		return &Scaler{Mean: mean, Scale: scale}
	}

	n := float64(len(X))
	for _, v := range X {
		for i, x := range v {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= n
	}

	for _, v := range X {
		for i, x := range v {
			d := x - mean[i]
			scale[i] += d * d
		}
	}
	for i := range scale {
		scale[i] = math.Sqrt(scale[i] / n)
		if scale[i] == 0 {
			scale[i] = 1
		}
	}

	return &Scaler{Mean: mean, Scale: scale}
}

// Transform standardizes a single vector.
func (s *Scaler) Transform(v features.Vector) features.Vector {
	var out features.Vector
	for i := range v {
		out[i] = (v[i] - s.Mean[i]) / s.Scale[i]
	}
	return out
}

// TransformAll standardizes a matrix.
func (s *Scaler) TransformAll(X []features.Vector) []features.Vector {
	out := make([]features.Vector, len(X))
	for i, v := range X {
		out[i] = s.Transform(v)
	}
	return out
}
