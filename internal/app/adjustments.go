package app

import (
	"valomaison/internal/domain"
)

// Rule is one entry of the adjustment table. The set of rule shapes is closed:
// PresenceRule, EnumRule and ThresholdRule.
type Rule interface {
	Factor() domain.Factor
	// Eval returns the fraction for c, or false when the rule does not apply.
	Eval(c domain.PropertyCriteria) (float64, bool)
	sealed()
}

// Gate restricts a rule to the criteria it accepts.
type Gate func(domain.PropertyCriteria) bool

func (g Gate) allows(c domain.PropertyCriteria) bool { return g == nil || g(c) }

// PresenceRule applies Present when Has reports true. When ScoreAbsent is set
// the rule also applies Absent when Has reports false.
type PresenceRule struct {
	Name        domain.Factor
	Has         func(domain.PropertyCriteria) bool
	Present     float64
	Absent      float64
	ScoreAbsent bool
	When        Gate
}

func (r PresenceRule) Factor() domain.Factor { return r.Name }
func (PresenceRule) sealed()                 {}

func (r PresenceRule) Eval(c domain.PropertyCriteria) (float64, bool) {
	if !r.When.allows(c) {
		return 0, false
	}
	if r.Has(c) {
		return r.Present, true
	}
	if r.ScoreAbsent {
		return r.Absent, true
	}
	return 0, false
}

// EnumRule maps a category to a fraction. Unknown or empty categories do not
// apply.
type EnumRule struct {
	Name   domain.Factor
	Pick   func(domain.PropertyCriteria) string
	Values map[string]float64
	When   Gate
}

func (r EnumRule) Factor() domain.Factor { return r.Name }
func (EnumRule) sealed()                 {}

func (r EnumRule) Eval(c domain.PropertyCriteria) (float64, bool) {
	if !r.When.allows(c) {
		return 0, false
	}
	v, ok := r.Values[r.Pick(c)]
	return v, ok
}

// Step is one row of a ThresholdRule: values >= AtLeast get Value.
type Step struct {
	AtLeast int
	Value   float64
}

// ThresholdRule picks the last step whose AtLeast does not exceed the value.
// When Override reports true, OverrideValue supersedes the step table.
type ThresholdRule struct {
	Name          domain.Factor
	Value         func(domain.PropertyCriteria) (int, bool)
	Steps         []Step
	Override      func(domain.PropertyCriteria) bool
	OverrideValue float64
	When          Gate
}

func (r ThresholdRule) Factor() domain.Factor { return r.Name }
func (ThresholdRule) sealed()                 {}

func (r ThresholdRule) Eval(c domain.PropertyCriteria) (float64, bool) {
	if !r.When.allows(c) {
		return 0, false
	}
	v, ok := r.Value(c)
	if !ok {
		return 0, false
	}
	if r.Override != nil && r.Override(c) {
		return r.OverrideValue, true
	}
	out, found := 0.0, false
	for _, s := range r.Steps {
		if v < s.AtLeast {
			break
		}
		out, found = s.Value, true
	}
	return out, found
}

// AdjustmentModel evaluates an ordered rule table.
type AdjustmentModel struct {
	rules []Rule
}

func NewAdjustmentModel(rules ...Rule) AdjustmentModel {
	return AdjustmentModel{rules: rules}
}

// Adjustments returns the fraction of every rule that applies to c.
func (m AdjustmentModel) Adjustments(c domain.PropertyCriteria) domain.AdjustmentSet {
	out := domain.AdjustmentSet{}
	for _, r := range m.rules {
		if v, ok := r.Eval(c); ok {
			out[r.Factor()] = v
		}
	}
	return out
}

