package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zcredlabs/zscore/internal/features"
)

// separableData builds a linearly separable set on a single feature.
func separableData(n int) ([]features.Vector, []int) {
	X := make([]features.Vector, 0, 2*n)
	y := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		var good, bad features.Vector
		good[features.IdxOverallTrustScore] = 0.9
		bad[features.IdxOverallTrustScore] = 0.1
		X = append(X, good, bad)
		y = append(y, 1, 0)
	}
	return X, y
}

func TestTrainLogisticSeparatesClasses(t *testing.T) {
	X, y := separableData(40)

	m := TrainLogistic(X, y, LogisticConfig{Iterations: 500, LearningRate: 0.5})

	require.Len(t, m.Weights, features.Count)
	assert.Greater(t, m.Weights[features.IdxOverallTrustScore], 0.0)

	var good, bad features.Vector
	good[features.IdxOverallTrustScore] = 0.9
	bad[features.IdxOverallTrustScore] = 0.1

	assert.Greater(t, m.Score(good), 0.7)
	assert.Less(t, m.Score(bad), 0.3)
	assert.Equal(t, 1, m.Predict(good))
	assert.Equal(t, 0, m.Predict(bad))
}

func TestTrainLogisticEmptyInput(t *testing.T) {
	m := TrainLogistic(nil, nil, DefaultLogisticConfig())

	var v features.Vector
	assert.InDelta(t, 0.5, m.Score(v), 1e-12)
}

func TestSigmoidNumericallyStable(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		want float64
	}{
		{"zero", 0, 0.5},
		{"large positive", 1000, 1.0},
		{"large negative", -1000, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sigmoid(tt.z)
			require.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
