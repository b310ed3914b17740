package explain

import (
	"math"
	"sort"

	apperrors "github.com/zcredlabs/zscore/internal/errors"
	"github.com/zcredlabs/zscore/internal/features"
)

// defaultNumSamples is the coalition count per feature for the
// Shapley approximation.
const defaultNumSamples = 100

// Scorer produces a repayment probability for a feature vector.
type Scorer interface {
	Score(features.Vector) float64
}

// Explainer estimates per-feature attributions by sampling feature
// coalitions against a background distribution. The coalition pattern
// is fixed, so the same model and input always yield the same
// attributions.
type Explainer struct {
	model      Scorer
	baseline   features.Vector
	baseValue  float64
	numSamples int
}

// New builds an explainer from the model and its training background.
// The baseline vector is the per-feature mean of the background; the
// base value is the mean model output over it.
func New(model Scorer, background []features.Vector) (*Explainer, error) {
	if model == nil {
		return nil, apperrors.NewModelError("explainer requires a scoring model", nil)
	}
	if len(background) == 0 {
		return nil, apperrors.NewModelError("explainer requires background data", nil)
	}

	e := &Explainer{model: model, numSamples: defaultNumSamples}

	n := float64(len(background))
	for _, v := range background {
		for i, x := range v {
			e.baseline[i] += x
		}
		e.baseValue += model.Score(v)
	}
	for i := range e.baseline {
		e.baseline[i] /= n
	}
	e.baseValue /= n

	return e, nil
}

// Restore rebuilds an explainer from persisted baseline statistics,
// skipping the background pass.
func Restore(model Scorer, baseline features.Vector, baseValue float64) (*Explainer, error) {
	if model == nil {
		return nil, apperrors.NewModelError("explainer requires a scoring model", nil)
	}
	return &Explainer{
		model:      model,
		baseline:   baseline,
		baseValue:  baseValue,
		numSamples: defaultNumSamples,
	}, nil
}

// BaseValue is the mean model output over the background distribution.
func (e *Explainer) BaseValue() float64 {
	return e.baseValue
}

// Baseline is the per-feature background mean used for absent
// coalition members.
func (e *Explainer) Baseline() features.Vector {
	return e.baseline
}

// Attribute returns one attribution per feature, normalized so their
// sum equals the model output for v minus the base value.
func (e *Explainer) Attribute(v features.Vector) []float64 {
	attr, _ := e.attribute(v)
	return attr
}

func (e *Explainer) attribute(v features.Vector) ([]float64, bool) {
	prediction := e.model.Score(v)
	attr := make([]float64, features.Count)

	for i := 0; i < features.Count; i++ {
		var sum float64
		for s := 0; s < e.numSamples; s++ {
			coalition := e.baseline
			includeTarget := s%2 == 0

			if includeTarget {
				coalition[i] = v[i]
			}
			for j := 0; j < features.Count; j++ {
				if j == i {
					continue
				}
				if (s+j)%3 == 0 {
					coalition[j] = v[j]
				}
			}

			delta := e.model.Score(coalition) - e.baseValue
			if includeTarget {
				sum += delta
			} else {
				sum -= delta
			}
		}
		attr[i] = sum / float64(e.numSamples)
	}

	// Rescale so the additive identity holds exactly. When the raw
	// attributions cancel out, spread the remaining gap evenly instead.
	target := prediction - e.baseValue
	var sumAttr float64
	for _, a := range attr {
		sumAttr += a
	}

	if math.Abs(sumAttr) > 1e-6 {
		scale := target / sumAttr
		for i := range attr {
			attr[i] *= scale
		}
		return attr, true
	}

	residual := (target - sumAttr) / float64(len(attr))
	for i := range attr {
		attr[i] += residual
	}
	return attr, false
}

// Explain runs attribution for v and assembles the full payload:
// per-feature contributions with importance ranks and the top three
// drivers in each direction.
func (e *Explainer) Explain(v features.Vector) *Explanation {
	attr, normalized := e.attribute(v)
	names := features.Names()

	quality := "high"
	if !normalized {
		quality = "low"
	}

	expl := &Explanation{
		ShapValues:           attr,
		BaseValue:            e.baseValue,
		FeatureNames:         names,
		FeatureValues:        v.Slice(),
		FeatureContributions: make(map[string]*Contribution, features.Count),
		ExplanationQuality:   quality,
	}

	order := make([]int, features.Count)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(attr[order[a]]) > math.Abs(attr[order[b]])
	})

	for rank, i := range order {
		kind := "negative"
		if attr[i] > 0 {
			kind = "positive"
		}
		expl.FeatureContributions[names[i]] = &Contribution{
			ShapValue:             attr[i],
			FeatureValue:          v[i],
			ContributionType:      kind,
			AbsContribution:       math.Abs(attr[i]),
			FeatureImportanceRank: rank + 1,
		}
	}

	top := &TopContributors{
		Positive: make([]Contributor, 0, 3),
		Negative: make([]Contributor, 0, 3),
	}
	limit := 10
	if limit > len(order) {
		limit = len(order)
	}
	for _, i := range order[:limit] {
		switch {
		case attr[i] > 0 && len(top.Positive) < 3:
			top.Positive = append(top.Positive, Contributor{
				Feature:     names[i],
				Impact:      attr[i],
				Description: Describe(names[i]),
			})
		case attr[i] <= 0 && len(top.Negative) < 3:
			top.Negative = append(top.Negative, Contributor{
				Feature:     names[i],
				Impact:      math.Abs(attr[i]),
				Description: Describe(names[i]),
			})
		}
	}
	expl.TopContributors = top

	return expl
}
