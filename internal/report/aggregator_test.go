package report

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/storage/memory"
)

type fixture struct {
	store  *memory.Store
	casa   core.Category
	salary core.RecurringRule
	rent   core.RecurringRule
	gym    core.RecurringRule
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	casa, err := s.CreateCategory(ctx, core.Category{Name: "Casa", Kind: core.KindExpense})
	require.NoError(t, err)

	salary, err := s.CreateRule(ctx, core.RecurringRule{
		Description: "Salary", DefaultAmount: core.Cents(200000), DayOfMonth: 27,
		StartDate: core.NewDate(2025, time.January, 1), Kind: core.KindIncome,
	})
	require.NoError(t, err)
	rent, err := s.CreateRule(ctx, core.RecurringRule{
		Description: "Rent", DefaultAmount: core.Cents(50000), DayOfMonth: 10,
		StartDate: core.NewDate(2025, time.March, 10), Kind: core.KindExpense, CategoryID: casa.ID,
	})
	require.NoError(t, err)
	gym, err := s.CreateRule(ctx, core.RecurringRule{
		Description: "Gym", DefaultAmount: core.Cents(4000), DayOfMonth: 31,
		StartDate: core.NewDate(2025, time.January, 1), EndDate: core.NewDate(2025, time.June, 30), Kind: core.KindExpense,
	})
	require.NoError(t, err)

	_, err = s.UpsertOverride(ctx, core.OverrideKey{RuleID: rent.ID, Kind: rent.Kind, Year: 2025, Month: time.April}, core.Cents(65000))
	require.NoError(t, err)

	_, err = s.CreateTransaction(ctx, core.Transaction{
		Kind: core.KindExpense, Description: "Groceries", Amount: core.Cents(8000),
		Date: core.NewDate(2025, time.April, 3), CategoryID: casa.ID,
	})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, core.Transaction{
		Kind: core.KindIncome, Description: "Refund", Amount: core.Cents(1500),
		Date: core.NewDate(2025, time.April, 20),
	})
	require.NoError(t, err)

	return fixture{store: s, casa: casa, salary: salary, rent: rent, gym: gym}
}

func TestMonthSummary(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, nil)

	s, err := agg.MonthSummary(context.Background(), 2025, time.April)
	require.NoError(t, err)

	assert.Equal(t, core.Cents(200000), s.FixedIncome)
	// rent override 650 + gym 40 (April 31st is May 1st, still before June 30)
	assert.Equal(t, core.Cents(69000), s.FixedExpense)
	assert.Equal(t, core.Cents(1500), s.VariableIncome)
	assert.Equal(t, core.Cents(8000), s.VariableExpense)
	assert.Equal(t, core.Cents(201500-77000), s.Balance())
	require.Len(t, s.Recurring, 3)

	require.Len(t, s.ByCategory, 3)
	assert.Equal(t, "Casa", s.ByCategory[0].Name)
	assert.Equal(t, core.Cents(73000), s.ByCategory[0].Amount)
	assert.Equal(t, UncategorizedName, s.ByCategory[1].Name)
	assert.Equal(t, core.KindExpense, s.ByCategory[1].Kind)
	assert.Equal(t, core.KindIncome, s.ByCategory[2].Kind)
	assert.Equal(t, core.Cents(201500), s.ByCategory[2].Amount)
}

func TestMonthSummary_InactiveRulesExcluded(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, nil)

	feb, err := agg.MonthSummary(context.Background(), 2025, time.February)
	require.NoError(t, err)
	// rent starts in March; gym Feb 31st is Mar 3rd
	assert.Equal(t, core.Cents(4000), feb.FixedExpense)

	jul, err := agg.MonthSummary(context.Background(), 2025, time.July)
	require.NoError(t, err)
	assert.Equal(t, core.Cents(50000), jul.FixedExpense)
}

func TestMonthSummary_InvalidMonth(t *testing.T) {
	agg := NewAggregator(memory.New(), nil)
	_, err := agg.MonthSummary(context.Background(), 2025, 13)
	assert.True(t, core.IsValidationError(err))
	_, err = agg.Calendar(context.Background(), 2025, 0)
	assert.True(t, core.IsValidationError(err))
}

func TestMonthSummary_CachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	agg := NewAggregator(f.store, cache.NewLRUCache[core.MonthSummary](24, time.Hour))

	first, err := agg.MonthSummary(ctx, 2025, time.April)
	require.NoError(t, err)

	_, err = f.store.CreateTransaction(ctx, core.Transaction{
		Kind: core.KindExpense, Description: "Dinner", Amount: core.Cents(3000), Date: core.NewDate(2025, time.April, 12),
	})
	require.NoError(t, err)

	cached, err := agg.MonthSummary(ctx, 2025, time.April)
	require.NoError(t, err)
	assert.Equal(t, first.VariableExpense, cached.VariableExpense)

	agg.Invalidate(2025, time.April)
	fresh, err := agg.MonthSummary(ctx, 2025, time.April)
	require.NoError(t, err)
	assert.Equal(t, core.Cents(11000), fresh.VariableExpense)
}

// gatedRepo pauses the first ListTransactions call after it has read the
// store, until release is closed.
type gatedRepo struct {
	*memory.Store
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRepo) ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	txs, err := g.Store.ListTransactions(ctx, year, month)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return txs, err
}

func TestMonthSummary_InvalidationDuringCompute(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(*Aggregator)
	}{
		{"month", func(a *Aggregator) { a.Invalidate(2025, time.April) }},
		{"all", func(a *Aggregator) { a.InvalidateAll() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			repo := &gatedRepo{Store: f.store, read: make(chan struct{}), release: make(chan struct{})}
			agg := NewAggregator(repo, cache.NewLRUCache[core.MonthSummary](24, time.Hour))

			done := make(chan core.MonthSummary, 1)
			go func() {
				s, err := agg.MonthSummary(ctx, 2025, time.April)
				assert.NoError(t, err)
				done <- s
			}()

			<-repo.read
			_, err := f.store.CreateTransaction(ctx, core.Transaction{
				Kind: core.KindExpense, Description: "Sofa", Amount: core.Cents(100000), Date: core.NewDate(2025, time.April, 18),
			})
			require.NoError(t, err)
			tt.invalidate(agg)
			close(repo.release)

			inFlight := <-done
			assert.Equal(t, core.Cents(8000), inFlight.VariableExpense)

			fresh, err := agg.MonthSummary(ctx, 2025, time.April)
			require.NoError(t, err)
			assert.Equal(t, core.Cents(108000), fresh.VariableExpense)
		})
	}
}

func TestYearSummary(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, nil)

	y, err := agg.YearSummary(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, y.Months, 12)
	for i, m := range y.Months {
		assert.Equal(t, time.Month(i+1), m.Month)
		assert.Equal(t, 2025, m.Year)
	}
	assert.Equal(t, core.Cents(12*200000+1500), y.Income())

	// rent: Mar..Dec = 10 months, April overridden
	// gym: Jan..Jun occurrences all on or before June 30th, Jun 31st is Jul 1st
	wantExpense := int64(9*50000+65000) + 5*4000 + 8000
	assert.Equal(t, core.Cents(wantExpense), y.Expense())
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, nil)

	entries, err := agg.Calendar(context.Background(), 2025, time.April)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	var dates []string
	for _, e := range entries {
		dates = append(dates, e.Date.String())
	}
	assert.Equal(t, []string{"2025-04-03", "2025-04-10", "2025-04-20", "2025-04-27", "2025-05-01"}, dates)
	assert.Equal(t, core.SourceRecurring, entries[1].Source)
	assert.Equal(t, core.Cents(65000), entries[1].Amount)
	assert.Equal(t, core.SourceTransaction, entries[0].Source)
	assert.Equal(t, f.gym.ID, entries[4].RefID)
}
