package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func rent() core.RecurringRule {
	return core.RecurringRule{
		ID:            "rule-rent",
		Description:   "Rent",
		DefaultAmount: core.Cents(50000),
		DayOfMonth:    10,
		StartDate:     core.NewDate(2025, time.March, 10),
		Kind:          core.KindExpense,
		Lifecycle:     core.ActiveLifecycle(),
	}
}

func TestIsActiveInMonth_StartBoundary(t *testing.T) {
	r := NewResolver(nil)
	rule := rent()

	assert.False(t, r.IsActiveInMonth(rule, 2025, time.February))
	assert.True(t, r.IsActiveInMonth(rule, 2025, time.March))
	assert.True(t, r.IsActiveInMonth(rule, 2026, time.January))
}

func TestIsActiveInMonth_StartAfterOccurrence(t *testing.T) {
	r := NewResolver(nil)
	rule := rent()
	rule.StartDate = core.NewDate(2025, time.March, 11)

	assert.False(t, r.IsActiveInMonth(rule, 2025, time.March))
	assert.True(t, r.IsActiveInMonth(rule, 2025, time.April))
}

func TestIsActiveInMonth_EndInclusive(t *testing.T) {
	r := NewResolver(nil)
	rule := rent()
	rule.DayOfMonth = 15
	rule.StartDate = core.NewDate(2025, time.January, 1)
	rule.EndDate = core.NewDate(2025, time.June, 15)

	assert.True(t, r.IsActiveInMonth(rule, 2025, time.June))
	assert.False(t, r.IsActiveInMonth(rule, 2025, time.July))
}

func TestIsActiveInMonth_ArchivedStopsWindow(t *testing.T) {
	r := NewResolver(nil)
	rule := rent()
	rule.Lifecycle = core.ArchivedLifecycle(core.NewDate(2025, time.May, 20))

	assert.True(t, r.IsActiveInMonth(rule, 2025, time.May))
	assert.False(t, r.IsActiveInMonth(rule, 2025, time.June))

	// archive day after the explicit end keeps the explicit end
	rule.EndDate = core.NewDate(2025, time.April, 30)
	assert.False(t, r.IsActiveInMonth(rule, 2025, time.May))
}

func TestIsActiveInMonth_DayRollover(t *testing.T) {
	r := NewResolver(nil)
	rule := rent()
	rule.DayOfMonth = 31
	rule.StartDate = core.NewDate(2025, time.January, 1)
	rule.EndDate = core.NewDate(2025, time.April, 30)

	// April 31st is May 1st, past the end date
	assert.False(t, r.IsActiveInMonth(rule, 2025, time.April))
	assert.True(t, r.IsActiveInMonth(rule, 2025, time.March))
}

func TestEffectiveAmount_OverridePrecedence(t *testing.T) {
	rule := rent()
	idx := NewOverrideIndex([]core.MonthlyOverride{
		{ID: "o1", RuleID: rule.ID, Kind: rule.Kind, Year: 2025, Month: time.April, Amount: core.Cents(65000)},
		// same rule, other kind: never matches
		{ID: "o2", RuleID: rule.ID, Kind: core.KindIncome, Year: 2025, Month: time.May, Amount: core.Cents(1)},
	})
	r := NewResolver(idx)

	assert.Equal(t, core.Cents(50000), r.EffectiveAmount(rule, 2025, time.March))
	assert.Equal(t, core.Cents(65000), r.EffectiveAmount(rule, 2025, time.April))
	assert.Equal(t, core.Cents(50000), r.EffectiveAmount(rule, 2025, time.May))
	assert.Equal(t, core.Cents(50000), r.EffectiveAmount(rule, 2026, time.April))
}

func TestEffectiveAmount_ZeroOverride(t *testing.T) {
	rule := rent()
	r := NewResolver(NewOverrideIndex([]core.MonthlyOverride{
		{RuleID: rule.ID, Kind: rule.Kind, Year: 2025, Month: time.August, Amount: core.Cents(0)},
	}))
	assert.True(t, r.EffectiveAmount(rule, 2025, time.August).IsZero())
}

func TestResolve(t *testing.T) {
	salary := core.RecurringRule{
		ID:            "rule-salary",
		Description:   "Salary",
		DefaultAmount: core.Cents(200000),
		DayOfMonth:    1,
		StartDate:     core.NewDate(2024, time.January, 1),
		Kind:          core.KindIncome,
	}
	gym := rent()
	gym.ID = "rule-gym"
	gym.Description = "Gym"
	gym.DayOfMonth = 31
	gym.StartDate = core.NewDate(2024, time.January, 1)
	future := rent()
	future.ID = "rule-future"
	future.StartDate = core.NewDate(2030, time.January, 1)

	r := NewResolver(NewOverrideIndex([]core.MonthlyOverride{
		{RuleID: "rule-salary", Kind: core.KindIncome, Year: 2025, Month: time.April, Amount: core.Cents(210000)},
	}))
	got := r.Resolve([]core.RecurringRule{gym, future, salary}, 2025, time.April)

	require.Len(t, got, 2)
	assert.Equal(t, "rule-salary", got[0].RuleID)
	assert.True(t, got[0].Overridden)
	assert.Equal(t, core.Cents(210000), got[0].Amount)
	assert.Equal(t, "2025-04-01", got[0].Date.String())

	assert.Equal(t, "rule-gym", got[1].RuleID)
	assert.False(t, got[1].Overridden)
	assert.Equal(t, "2025-05-01", got[1].Date.String())
}

func TestOverrideIndex(t *testing.T) {
	key := core.OverrideKey{RuleID: "r", Kind: core.KindExpense, Year: 2025, Month: time.April}
	idx := NewOverrideIndex([]core.MonthlyOverride{
		{ID: "a", RuleID: "r", Kind: core.KindExpense, Year: 2025, Month: time.April, Amount: core.Cents(1)},
		{ID: "b", RuleID: "r", Kind: core.KindExpense, Year: 2025, Month: time.April, Amount: core.Cents(2)},
		{ID: "c", RuleID: "r", Kind: core.KindExpense, Year: 2025, Month: time.May, Amount: core.Cents(3)},
	})

	o, ok := idx.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, "b", o.ID)
	_, ok = idx.Lookup(core.OverrideKey{RuleID: "r", Kind: core.KindExpense, Year: 2025, Month: time.May})
	assert.True(t, ok)
	_, ok = idx.Lookup(core.OverrideKey{RuleID: "r", Kind: core.KindIncome, Year: 2025, Month: time.April})
	assert.False(t, ok)

	var nilIdx *OverrideIndex
	_, ok = nilIdx.Lookup(key)
	assert.False(t, ok)
}
