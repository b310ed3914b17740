package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/zcredlabs/zscore/internal/features"
)

// BinaryMetrics summarizes classifier quality on held-out data.
type BinaryMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	AUCROC    float64 `json:"auc_roc"`
}

// EvaluateBinary computes accuracy, precision, recall, F1 and ROC-AUC
// for probability scores against 0/1 labels. Undefined ratios (empty
// denominators) report as zero rather than NaN.
func EvaluateBinary(scores []float64, y []int) BinaryMetrics {
	var m BinaryMetrics
	if len(scores) == 0 || len(scores) != len(y) {
		return m
	}

	var tp, fp, tn, fn float64
	for i, s := range scores {
		pred := 0
		if s >= 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}

	m.Accuracy = (tp + tn) / float64(len(scores))
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.AUCROC = rankAUC(scores, y)

	return m
}

// rankAUC computes ROC-AUC by the Mann-Whitney rank statistic with
// average ranks for tied scores. Single-class labels yield the
// uninformative 0.5.
func rankAUC(scores []float64, y []int) float64 {
	var nPos, nNeg float64
	for _, label := range y {
		if label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, len(scores))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			j++
		}
		// 1-based average rank across the tie group.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var sumPos float64
	for i, label := range y {
		if label == 1 {
			sumPos += ranks[i]
		}
	}

	return (sumPos - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// StratifiedSplit shuffles and splits X/y into train and test sets,
// preserving the label ratio. Every class with at least two members
// lands in both splits.
func StratifiedSplit(X []features.Vector, y []int, testFraction float64, seed int64) (trainX, testX []features.Vector, trainY, testY []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	labels := make([]int, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	for _, label := range labels {
		members := byClass[label]
		rng.Shuffle(len(members), func(a, b int) {
			members[a], members[b] = members[b], members[a]
		})

		nTest := int(math.Round(testFraction * float64(len(members))))
		if nTest < 1 && len(members) > 1 {
			nTest = 1
		}
		if nTest >= len(members) {
			nTest = len(members) - 1
		}

		for k, i := range members {
			if k < nTest {
				testX = append(testX, X[i])
				testY = append(testY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}
	}

	rng.Shuffle(len(trainX), func(a, b int) {
		trainX[a], trainX[b] = trainX[b], trainX[a]
		trainY[a], trainY[b] = trainY[b], trainY[a]
	})

	return trainX, testX, trainY, testY
}
