package risk

import "math"

const HygieneVersion = "v1"

const (
	LabelClean    = "Clean"
	LabelHealthy  = "Healthy"
	LabelAtRisk   = "At Risk"
	LabelCritical = "Critical"

	HealthyMin = 70
	AtRiskMin  = 40
)

var multipliers = map[Category]float64{
	Dangerous: 60,
	Risky:     25,
	Safe:      5,
}

const normalizer = 100.0

type Summary struct {
	Total     int
	Dangerous int
	Risky     int
	Safe      int
}

func Summarize(assessments []Assessment) Summary {
	s := Summary{Total: len(assessments)}
	for _, a := range assessments {
		switch a.Category {
		case Dangerous:
			s.Dangerous++
		case Risky:
			s.Risky++
		default:
			s.Safe++
		}
	}
	return s
}

// Hygiene is 100 minus a penalty of sum(score * multiplier) / 100, capped
// at 100. One dangerous approval at 61 already costs 36.6 points.
func Hygiene(assessments []Assessment) (int, string) {
	if len(assessments) == 0 {
		return 100, LabelClean
	}
	penalty := 0.0
	for _, a := range assessments {
		penalty += float64(a.Score) * multipliers[a.Category] / normalizer
	}
	penalty = math.Min(100, penalty)
	score := clamp(int(math.Floor(100-penalty)), 0, 100)
	return score, HygieneLabel(score)
}

func HygieneLabel(score int) string {
	switch {
	case score >= HealthyMin:
		return LabelHealthy
	case score >= AtRiskMin:
		return LabelAtRisk
	default:
		return LabelCritical
	}
}
