package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zcredlabs/zscore/internal/features"
)

func TestTrainEnsembleFitsSeparableData(t *testing.T) {
	X, y := separableData(40)

	cfg := EnsembleConfig{NumTrees: 10, MaxDepth: 3, LearningRate: 0.3, Lambda: 1, MinChildWeight: 1}
	m := TrainEnsemble(X, y, cfg)

	require.Len(t, m.Trees, 10)

	var good, bad features.Vector
	good[features.IdxOverallTrustScore] = 0.9
	bad[features.IdxOverallTrustScore] = 0.1

	assert.Greater(t, m.Score(good), 0.8)
	assert.Less(t, m.Score(bad), 0.2)
	assert.Equal(t, 1, m.Predict(good))
	assert.Equal(t, 0, m.Predict(bad))
}

func TestTrainEnsembleDepthZeroYieldsLeaves(t *testing.T) {
	X, y := separableData(10)

	cfg := EnsembleConfig{NumTrees: 1, MaxDepth: 0, LearningRate: 0.1, Lambda: 1, MinChildWeight: 1}
	m := TrainEnsemble(X, y, cfg)

	require.Len(t, m.Trees, 1)
	assert.True(t, m.Trees[0].Leaf)
	// Balanced labels make the root gradient sum zero, so the stump
	// predicts the base rate.
	assert.InDelta(t, 0.5, m.Score(features.Vector{}), 1e-9)
}

func TestTrainEnsembleEmptyInput(t *testing.T) {
	m := TrainEnsemble(nil, nil, DefaultEnsembleConfig())
	assert.InDelta(t, 0.5, m.Score(features.Vector{}), 1e-12)
}

func TestTrainEnsembleMonotoneInTrust(t *testing.T) {
	X, y := Synthesize(400, 7)

	cfg := DefaultEnsembleConfig()
	cfg.NumTrees = 40
	cfg.MaxDepth = 5
	require.Equal(t, 1, cfg.Monotone[features.IdxOverallTrustScore])

	m := TrainEnsemble(X, y, cfg)

	// Sweep the constrained feature on fixed base vectors drawn from
	// the cohort itself; the margin must never decrease.
	for _, base := range []features.Vector{X[0], X[17], X[233]} {
		prev := math.Inf(-1)
		for trust := 0.0; trust <= 1.0+1e-9; trust += 0.01 {
			v := base
			v[features.IdxOverallTrustScore] = trust
			margin := m.Margin(v)
			assert.GreaterOrEqualf(t, margin, prev, "margin dropped at trust %.2f", trust)
			prev = margin
		}
	}
}

func TestTreeRoutingUsesStrictLess(t *testing.T) {
	tree := &TreeNode{
		Feature:   features.IdxIncome,
		Threshold: 0.5,
		Left:      &TreeNode{Leaf: true, Value: -1},
		Right:     &TreeNode{Leaf: true, Value: 2},
	}
	m := &EnsembleModel{Trees: []*TreeNode{tree}, LearningRate: 1}

	var below, at, above features.Vector
	below[features.IdxIncome] = 0.3
	at[features.IdxIncome] = 0.5
	above[features.IdxIncome] = 0.7

	assert.InDelta(t, -1.0, m.Margin(below), 1e-12)
	assert.InDelta(t, 2.0, m.Margin(at), 1e-12)
	assert.InDelta(t, 2.0, m.Margin(above), 1e-12)
}

func TestBuildTreeHonorsMinChildWeight(t *testing.T) {
	// Two samples per class: each child of any split would carry a
	// hessian of 0.25 at p=0.5, below a min child weight of 1.
	X, y := separableData(2)

	cfg := EnsembleConfig{NumTrees: 1, MaxDepth: 3, LearningRate: 0.1, Lambda: 1, MinChildWeight: 1}
	m := TrainEnsemble(X, y, cfg)

	require.Len(t, m.Trees, 1)
	assert.True(t, m.Trees[0].Leaf)
}
