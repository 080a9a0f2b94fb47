package recurring

import (
	"sort"
	"time"

	"bilancio/internal/calendar"
	"bilancio/internal/core"
)

// Resolver evaluates rules against months. It never writes overrides.
type Resolver struct {
	overrides OverrideLookup
}

// NewResolver creates a resolver reading overrides from lookup. A nil lookup
// means "no overrides".
func NewResolver(lookup OverrideLookup) *Resolver {
	return &Resolver{overrides: lookup}
}

// IsActiveInMonth reports whether the rule's occurrence for the month lies
// inside its active window. The occurrence date is built literally from
// DayOfMonth, so day 31 in April is checked as May 1st.
func (r *Resolver) IsActiveInMonth(rule core.RecurringRule, year int, month time.Month) bool {
	occurrence := calendar.OccurrenceDate(year, month, rule.DayOfMonth)
	var end time.Time
	if e, ok := rule.EffectiveEnd(); ok {
		end = e.Time
	}
	return calendar.Within(occurrence, rule.StartDate.Time, end)
}

// EffectiveAmount returns the override amount for the month when one exists,
// otherwise the rule's default. Activity is the caller's concern.
func (r *Resolver) EffectiveAmount(rule core.RecurringRule, year int, month time.Month) core.Money {
	amount, _ := r.effectiveAmount(rule, year, month)
	return amount
}

func (r *Resolver) effectiveAmount(rule core.RecurringRule, year int, month time.Month) (core.Money, bool) {
	if r.overrides == nil {
		return rule.DefaultAmount, false
	}
	key := core.OverrideKey{RuleID: rule.ID, Kind: rule.Kind, Year: year, Month: month}
	if o, ok := r.overrides.Lookup(key); ok {
		return o.Amount, true
	}
	return rule.DefaultAmount, false
}

// Resolve returns one occurrence for every rule active in the month, ordered
// by occurrence date then description.
func (r *Resolver) Resolve(rules []core.RecurringRule, year int, month time.Month) []core.RecurringOccurrence {
	out := make([]core.RecurringOccurrence, 0, len(rules))
	for _, rule := range rules {
		if !r.IsActiveInMonth(rule, year, month) {
			continue
		}
		amount, overridden := r.effectiveAmount(rule, year, month)
		out = append(out, core.RecurringOccurrence{
			RuleID:      rule.ID,
			Description: rule.Description,
			Kind:        rule.Kind,
			CategoryID:  rule.CategoryID,
			Date:        core.DateOf(calendar.OccurrenceDate(year, month, rule.DayOfMonth)),
			Amount:      amount,
			Overridden:  overridden,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].Description < out[j].Description
	})
	return out
}
