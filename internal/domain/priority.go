package domain

// Priority is the severity tier derived from the damage percentage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ClassifyPriority maps a damage percentage onto a severity tier.
// Boundary values fall into the lower tier: a reading of exactly 15.0 is
// low and exactly 30.0 is medium. The strict comparisons are load-bearing
// for compatibility with existing tickets and must not be relaxed.
func ClassifyPriority(percentageDamage float64) Priority {
	switch {
	case percentageDamage > 30.0:
		return PriorityHigh
	case percentageDamage > 15.0:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
