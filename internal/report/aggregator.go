// Package report builds month and year summaries and month calendars out of
// recurring rules, their overrides and recorded transactions.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/ports"
	"bilancio/internal/recurring"
)

// UncategorizedName labels amounts without a category.
const UncategorizedName = "Uncategorized"

// yearConcurrency bounds the months computed in parallel by YearSummary.
const yearConcurrency = 4

type Aggregator struct {
	repo    ports.Repository
	summary cache.Cache[core.MonthSummary]

	// mu guards the generations and every cache write, so a summary computed
	// before an invalidation is never stored after it.
	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
}

type generation struct {
	epoch, month uint64
}

// NewAggregator creates an aggregator reading from repo. summaries may be nil
// to disable caching.
func NewAggregator(repo ports.Repository, summaries cache.Cache[core.MonthSummary]) *Aggregator {
	return &Aggregator{repo: repo, summary: summaries, gens: make(map[string]uint64)}
}

func (a *Aggregator) generation(key string) generation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return generation{epoch: a.epoch, month: a.gens[key]}
}

// store caches s unless key was invalidated since gen was read.
func (a *Aggregator) store(key string, gen generation, s core.MonthSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch != gen.epoch || a.gens[key] != gen.month {
		return
	}
	a.summary.Set(key, s)
}

// MonthSummary totals the fixed and variable amounts of a month.
func (a *Aggregator) MonthSummary(ctx context.Context, year int, month time.Month) (core.MonthSummary, error) {
	if month < time.January || month > time.December {
		return core.MonthSummary{}, core.ErrInvalidMonth
	}
	if a.summary == nil {
		return a.computeMonth(ctx, year, month)
	}

	key := cache.MonthKey(year, month)
	gen := a.generation(key)
	if s, ok := a.summary.Get(key); ok {
		return s, nil
	}

	s, err := a.computeMonth(ctx, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	a.store(key, gen, s)
	return s, nil
}

func (a *Aggregator) computeMonth(ctx context.Context, year int, month time.Month) (core.MonthSummary, error) {
	occurrences, err := a.resolve(ctx, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	txs, err := a.repo.ListTransactions(ctx, year, month)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	categories, err := a.repo.ListCategories(ctx)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list categories: %w", err)
	}

	s := core.MonthSummary{Year: year, Month: month, Recurring: occurrences}
	breakdown := newBreakdown(categories)
	for _, o := range occurrences {
		switch o.Kind {
		case core.KindIncome:
			s.FixedIncome = s.FixedIncome.Add(o.Amount)
		case core.KindExpense:
			s.FixedExpense = s.FixedExpense.Add(o.Amount)
		}
		breakdown.add(o.CategoryID, o.Kind, o.Amount)
	}
	for _, t := range txs {
		switch t.Kind {
		case core.KindIncome:
			s.VariableIncome = s.VariableIncome.Add(t.Amount)
		case core.KindExpense:
			s.VariableExpense = s.VariableExpense.Add(t.Amount)
		}
		breakdown.add(t.CategoryID, t.Kind, t.Amount)
	}
	s.ByCategory = breakdown.sorted()

	slog.DebugContext(ctx, "Month summary computed",
		"year", year,
		"month", int(month),
		"recurring", len(occurrences),
		"transactions", len(txs),
		"balance_cents", s.Balance().Cents)

	return s, nil
}

func (a *Aggregator) resolve(ctx context.Context, year int, month time.Month) ([]core.RecurringOccurrence, error) {
	rules, err := a.repo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	overrides, err := a.repo.ListOverrides(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	resolver := recurring.NewResolver(recurring.NewOverrideIndex(overrides))
	return resolver.Resolve(rules, year, month), nil
}

// YearSummary computes the twelve months of year concurrently.
func (a *Aggregator) YearSummary(ctx context.Context, year int) (core.YearSummary, error) {
	months := make([]core.MonthSummary, 12)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(yearConcurrency)
	for i := range months {
		month := time.Month(i + 1)
		g.Go(func() error {
			s, err := a.MonthSummary(gctx, year, month)
			if err != nil {
				return fmt.Errorf("month %d: %w", month, err)
			}
			months[month-1] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.YearSummary{}, err
	}
	return core.YearSummary{Year: year, Months: months}, nil
}

// Calendar lists the month's entries by day. A recurring entry sits on its
// literal occurrence date, which for day 29-31 may be early next month.
func (a *Aggregator) Calendar(ctx context.Context, year int, month time.Month) ([]core.CalendarEntry, error) {
	if month < time.January || month > time.December {
		return nil, core.ErrInvalidMonth
	}
	occurrences, err := a.resolve(ctx, year, month)
	if err != nil {
		return nil, err
	}
	txs, err := a.repo.ListTransactions(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	entries := make([]core.CalendarEntry, 0, len(occurrences)+len(txs))
	for _, o := range occurrences {
		entries = append(entries, core.CalendarEntry{
			Date:        o.Date,
			Kind:        o.Kind,
			Source:      core.SourceRecurring,
			RefID:       o.RuleID,
			Description: o.Description,
			Amount:      o.Amount,
			CategoryID:  o.CategoryID,
		})
	}
	for _, t := range txs {
		source := core.SourceTransaction
		if t.IsInstallment() {
			source = core.SourceInstallment
		}
		entries = append(entries, core.CalendarEntry{
			Date:        t.Date,
			Kind:        t.Kind,
			Source:      source,
			RefID:       t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			CategoryID:  t.CategoryID,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.Before(entries[j].Date.Time)
		}
		if entries[i].Source != entries[j].Source {
			return entries[i].Source == core.SourceRecurring
		}
		return entries[i].Description < entries[j].Description
	})
	return entries, nil
}

// Invalidate drops the cached summary of one month.
func (a *Aggregator) Invalidate(year int, month time.Month) {
	if a.summary == nil {
		return
	}
	key := cache.MonthKey(year, month)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gens[key]++
	a.summary.Delete(key)
}

// InvalidateAll drops every cached summary. Rule edits affect an open ended
// range of months, so they use this.
func (a *Aggregator) InvalidateAll() {
	if a.summary == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.epoch++
	clear(a.gens)
	a.summary.Purge()
}
