package model

import (
	"math"

	"github.com/zcredlabs/zscore/internal/features"
)

// LogisticConfig controls gradient-descent training of the linear model.
type LogisticConfig struct {
	Iterations   int
	LearningRate float64
	L2           float64
}

// DefaultLogisticConfig mirrors the settings the risk models were tuned
// with in production.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		Iterations:   1000,
		LearningRate: 0.1,
		L2:           1e-4,
	}
}

// LogisticModel is a binary logistic regression over standardized
// features. Score returns the repayment probability in (0, 1).
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainLogistic fits a logistic regression with full-batch gradient
// descent. X must already be standardized; y holds 0/1 labels.
func TrainLogistic(X []features.Vector, y []int, cfg LogisticConfig) *LogisticModel {
	m := &LogisticModel{Weights: make([]float64, features.Count)}
	if len(X) == 0 {
		return m
	}

	n := float64(len(X))
	grad := make([]float64, features.Count)

	for iter := 0; iter < cfg.Iterations; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		var biasGrad float64

		for i, v := range X {
			err := m.Score(v) - float64(y[i])
			for j, x := range v {
				grad[j] += err * x
			}
			biasGrad += err
		}

		for j := range m.Weights {
			g := grad[j]/n + cfg.L2*m.Weights[j]
			m.Weights[j] -= cfg.LearningRate * g
		}
		m.Bias -= cfg.LearningRate * biasGrad / n
	}

	return m
}

// Score returns the predicted repayment probability for v.
func (m *LogisticModel) Score(v features.Vector) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		z += w * v[i]
	}
	return sigmoid(z)
}

// Predict returns 1 when the repayment probability is at least 0.5.
func (m *LogisticModel) Predict(v features.Vector) int {
	if m.Score(v) >= 0.5 {
		return 1
	}
	return 0
}

// sigmoid is the numerically stable logistic function.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
