package trust

// CreditEligibleThreshold is the trust percentage at which an applicant
// qualifies for credit products.
const CreditEligibleThreshold = 70.0

var levelDescriptions = map[int]string{
	1: "Building Trust",
	2: "Growing Foundation",
	3: "Steady Progress",
	4: "Strong Credit",
	5: "Credit Elite",
}

// LevelInfo describes where a trust percentage sits on the five-level
// progression ladder.
type LevelInfo struct {
	TrustPercentage  float64 `json:"trust_percentage"`
	Level            int     `json:"level"`
	LevelDescription string  `json:"level_description"`
	NextMilestone    float64 `json:"next_milestone"`
	CreditEligible   bool    `json:"credit_eligible"`
	LevelUpAvailable bool    `json:"level_up_available"`
}

// Level maps a trust percentage to a level between 1 and 5, one level per
// 20 points.
func Level(trustPercentage float64) int {
	level := int(trustPercentage/20) + 1
	if level > 5 {
		level = 5
	}
	if level < 1 {
		level = 1
	}
	return level
}

// LevelDescription returns the display name for a level.
func LevelDescription(level int) string {
	if desc, ok := levelDescriptions[level]; ok {
		return desc
	}
	return "Unknown Level"
}

// NextMilestone returns the points still needed to reach the next level,
// or 0 at the top level.
func NextMilestone(trustPercentage float64, currentLevel int) float64 {
	if currentLevel >= 5 {
		return 0
	}
	remaining := float64(currentLevel*20) - trustPercentage
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DescribeLevel assembles the full progression view for a trust percentage.
func DescribeLevel(trustPercentage float64) LevelInfo {
	level := Level(trustPercentage)
	return LevelInfo{
		TrustPercentage:  trustPercentage,
		Level:            level,
		LevelDescription: LevelDescription(level),
		NextMilestone:    NextMilestone(trustPercentage, level),
		CreditEligible:   trustPercentage >= CreditEligibleThreshold,
		LevelUpAvailable: trustPercentage >= float64(level*20),
	}
}
