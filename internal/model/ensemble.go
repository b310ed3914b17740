package model

import (
	"math"
	"sort"

	"github.com/zcredlabs/zscore/internal/features"
)

// EnsembleConfig controls gradient-boosted tree training.
type EnsembleConfig struct {
	NumTrees       int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64
	MinChildWeight float64

	// Monotone maps a feature index to a required margin direction:
	// +1 means the margin may never decrease as the feature grows,
	// -1 never increase. Unlisted features split freely.
	Monotone map[int]int
}

// DefaultEnsembleConfig matches the boosted setup the risk scorer
// shipped with. The overall trust score is constrained so a higher
// trust never lowers the predicted repayment probability.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		NumTrees:       100,
		MaxDepth:       6,
		LearningRate:   0.1,
		Lambda:         1.0,
		MinChildWeight: 1.0,
		Monotone:       map[int]int{features.IdxOverallTrustScore: 1},
	}
}

// TreeNode is a single node in a regression tree. Internal nodes route
// on Feature < Threshold; leaves carry an additive margin value.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

// EnsembleModel is a gradient-boosted tree ensemble trained on the
// logistic loss. Trees predict margins; Score squashes the summed
// margin through the sigmoid.
type EnsembleModel struct {
	Trees        []*TreeNode `json:"trees"`
	LearningRate float64     `json:"learning_rate"`
	BaseScore    float64     `json:"base_score"`
}

// TrainEnsemble fits cfg.NumTrees regression trees on second-order
// gradient statistics of the logistic loss. X is raw (unscaled)
// feature vectors; y holds 0/1 labels.
func TrainEnsemble(X []features.Vector, y []int, cfg EnsembleConfig) *EnsembleModel {
	m := &EnsembleModel{LearningRate: cfg.LearningRate}
	if len(X) == 0 {
		return m
	}

	n := len(X)
	margins := make([]float64, n)
	for i := range margins {
		margins[i] = m.BaseScore
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	for t := 0; t < cfg.NumTrees; t++ {
		for i := range X {
			p := sigmoid(margins[i])
			grad[i] = p - float64(y[i])
			hess[i] = p * (1 - p)
		}

		tree := buildTree(X, grad, hess, idx, 0, cfg, math.Inf(-1), math.Inf(1))
		m.Trees = append(m.Trees, tree)

		for i := range X {
			margins[i] += cfg.LearningRate * evalTree(tree, X[i])
		}
	}

	return m
}

// buildTree grows one regression tree greedily. Each node picks the
// feature/threshold split maximizing the structure-score gain; nodes
// that cannot improve become leaves worth -G/(H+lambda), clamped to
// the [lo, hi] value bounds inherited from monotone splits above.
//
// Monotone constraints follow the usual boosted-tree technique: a
// split on a constrained feature is rejected when its child weights
// would run against the required direction, and the surviving split
// caps the low side's values (and floors the high side's) at the
// midpoint of the two child weights, so every leaf under it stays on
// the right side regardless of later splits.
func buildTree(X []features.Vector, grad, hess []float64, idx []int, depth int, cfg EnsembleConfig, lo, hi float64) *TreeNode {
	var sumG, sumH float64
	for _, i := range idx {
		sumG += grad[i]
		sumH += hess[i]
	}

	leaf := &TreeNode{Leaf: true, Value: clampWeight(-sumG/(sumH+cfg.Lambda), lo, hi)}
	if depth >= cfg.MaxDepth || len(idx) < 2 {
		return leaf
	}

	parentScore := sumG * sumG / (sumH + cfg.Lambda)

	var (
		bestGain      float64
		bestFeature   = -1
		bestThreshold float64
		bestMid       float64
	)

	sorted := make([]int, len(idx))
	for f := 0; f < features.Count; f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][f] < X[sorted[b]][f]
		})

		dir := cfg.Monotone[f]

		var gl, hl float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			gl += grad[i]
			hl += hess[i]

			left, right := X[i][f], X[sorted[k+1]][f]
			if left == right {
				continue
			}

			gr := sumG - gl
			hr := sumH - hl
			if hl < cfg.MinChildWeight || hr < cfg.MinChildWeight {
				continue
			}

			wl := -gl / (hl + cfg.Lambda)
			wr := -gr / (hr + cfg.Lambda)
			if dir != 0 && float64(dir)*(wr-wl) < 0 {
				continue
			}

			gain := 0.5 * (gl*gl/(hl+cfg.Lambda) + gr*gr/(hr+cfg.Lambda) - parentScore)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (left + right) / 2
				bestMid = (wl + wr) / 2
			}
		}
	}

	if bestFeature < 0 || bestGain <= 1e-7 {
		return leaf
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][bestFeature] < bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return leaf
	}

	leftLo, leftHi := lo, hi
	rightLo, rightHi := lo, hi
	switch cfg.Monotone[bestFeature] {
	case 1:
		leftHi = math.Min(leftHi, bestMid)
		rightLo = math.Max(rightLo, bestMid)
	case -1:
		leftLo = math.Max(leftLo, bestMid)
		rightHi = math.Min(rightHi, bestMid)
	}

	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      buildTree(X, grad, hess, leftIdx, depth+1, cfg, leftLo, leftHi),
		Right:     buildTree(X, grad, hess, rightIdx, depth+1, cfg, rightLo, rightHi),
	}
}

func clampWeight(w, lo, hi float64) float64 {
	return math.Min(math.Max(w, lo), hi)
}

// evalTree walks v down to a leaf margin.
func evalTree(node *TreeNode, v features.Vector) float64 {
	for !node.Leaf {
		if v[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Margin returns the raw additive margin for v.
func (m *EnsembleModel) Margin(v features.Vector) float64 {
	margin := m.BaseScore
	for _, tree := range m.Trees {
		margin += m.LearningRate * evalTree(tree, v)
	}
	return margin
}

// Score returns the predicted repayment probability for v.
func (m *EnsembleModel) Score(v features.Vector) float64 {
	return sigmoid(m.Margin(v))
}

// Predict returns 1 when the repayment probability is at least 0.5.
func (m *EnsembleModel) Predict(v features.Vector) int {
	if m.Score(v) >= 0.5 {
		return 1
	}
	return 0
}
