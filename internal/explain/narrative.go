package explain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// WaterfallStep is one bar of the score waterfall: the base value,
// a signed feature delta, or the closing total.
type WaterfallStep struct {
	Label      string  `json:"label"`
	Delta      float64 `json:"delta"`
	Cumulative float64 `json:"cumulative"`
	Kind       string  `json:"kind"`
}

// Narrative is the plain-language rendering of an explanation.
type Narrative struct {
	Helped      []string `json:"helped"`
	Lowered     []string `json:"lowered"`
	Suggestions []string `json:"suggestions"`
}

// Waterfall lays out the base score, the ten strongest feature deltas
// and the running total for chart rendering.
func Waterfall(expl *Explanation) []WaterfallStep {
	if expl == nil || len(expl.ShapValues) == 0 {
		return nil
	}

	order := attributionOrder(expl)
	limit := 10
	if limit > len(order) {
		limit = len(order)
	}

	steps := make([]WaterfallStep, 0, limit+2)
	running := expl.BaseValue
	steps = append(steps, WaterfallStep{
		Label:      "Base Score",
		Delta:      expl.BaseValue,
		Cumulative: running,
		Kind:       "base",
	})

	for _, i := range order[:limit] {
		delta := expl.ShapValues[i]
		running += delta
		kind := "increase"
		if delta < 0 {
			kind = "decrease"
		}
		steps = append(steps, WaterfallStep{
			Label:      fmt.Sprintf("%s (%.2f)", HumanizeFeature(expl.FeatureNames[i]), expl.FeatureValues[i]),
			Delta:      delta,
			Cumulative: running,
			Kind:       kind,
		})
	}

	steps = append(steps, WaterfallStep{
		Label:      "Final Score",
		Cumulative: running,
		Kind:       "total",
	})

	return steps
}

// Summarize renders the five strongest drivers as applicant-facing
// sentences and derives improvement suggestions from the negative ones.
func Summarize(expl *Explanation) *Narrative {
	n := &Narrative{
		Helped:      []string{},
		Lowered:     []string{},
		Suggestions: []string{},
	}
	if expl == nil || len(expl.ShapValues) == 0 {
		return n
	}

	order := attributionOrder(expl)
	limit := 5
	if limit > len(order) {
		limit = len(order)
	}

	var negatives []int
	for _, i := range order[:limit] {
		name := expl.FeatureNames[i]
		value := expl.FeatureValues[i]
		switch {
		case expl.ShapValues[i] > 0:
			n.Helped = append(n.Helped, featureSentence(name, value, true))
		case expl.ShapValues[i] < 0:
			n.Lowered = append(n.Lowered, featureSentence(name, value, false))
			negatives = append(negatives, i)
		}
	}

	if len(negatives) == 0 {
		n.Suggestions = append(n.Suggestions, "Continue your current positive financial behaviors!")
		return n
	}

	if len(negatives) > 3 {
		negatives = negatives[:3]
	}
	seen := map[string]bool{}
	for _, i := range negatives {
		s := improvementSuggestion(expl.FeatureNames[i])
		if s != "" && !seen[s] {
			seen[s] = true
			n.Suggestions = append(n.Suggestions, s)
		}
	}
	if len(n.Suggestions) == 0 {
		n.Suggestions = append(n.Suggestions,
			"Continue your current positive financial behaviors!",
			"Consider applying for a small loan to build payment history")
	}

	return n
}

// attributionOrder returns feature indices sorted by attribution
// magnitude, strongest first.
func attributionOrder(expl *Explanation) []int {
	order := make([]int, len(expl.ShapValues))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(expl.ShapValues[order[a]]) > math.Abs(expl.ShapValues[order[b]])
	})
	return order
}

var humanNames = map[string]string{
	"age_normalized":       "Age",
	"income_normalized":    "Monthly Income",
	"behavioral_score":     "Payment Behavior",
	"social_score":         "Community Trust",
	"digital_score":        "Digital Presence",
	"overall_trust_score":  "Overall Trust Level",
	"z_credits_normalized": "Reward Credits",
}

// HumanizeFeature converts an internal feature name to display form.
func HumanizeFeature(name string) string {
	if h, ok := humanNames[name]; ok {
		return h
	}
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// featureSentence phrases one driver for the applicant. Values arrive
// normalized, so the income sentence denormalizes back to rupees.
func featureSentence(name string, value float64, positive bool) string {
	switch {
	case name == "income_normalized":
		verb := "strengthens"
		if !positive {
			verb = "weakens"
		}
		return fmt.Sprintf("Your income of ₹%s %s your credit profile", formatAmount(value*100000), verb)
	case strings.Contains(name, "score"):
		verb := "demonstrates strong performance"
		if !positive {
			verb = "has room for improvement"
		}
		return fmt.Sprintf("Your %.1f%% score in this area %s", value*100, verb)
	case positive:
		return "This factor positively contributes to your assessment"
	default:
		return "This factor negatively impacts your assessment"
	}
}

func improvementSuggestion(name string) string {
	switch {
	case name == "income_normalized":
		return "Consider documenting additional income sources or part-time work"
	case strings.Contains(name, "behavioral"):
		return "Maintain consistent payment patterns and avoid late payments"
	case strings.Contains(name, "social"):
		return "Engage more with community financial programs and peer networks"
	case strings.Contains(name, "digital"):
		return "Increase your digital financial activity and maintain regular transactions"
	}
	return ""
}

// formatAmount renders a rounded amount with thousands separators.
func formatAmount(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var b strings.Builder
		pre := len(s) % 3
		if pre > 0 {
			b.WriteString(s[:pre])
		}
		for i := pre; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}

	if neg {
		return "-" + s
	}
	return s
}
