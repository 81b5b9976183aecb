package app

// RuleCount exposes the size of a model's rule table to tests.
func RuleCount(m AdjustmentModel) int { return len(m.rules) }
