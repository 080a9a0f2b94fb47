// Package memory is an in-process implementation of ports.Store, used by the
// memory backend and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/calendar"
	"bilancio/internal/core"
	"bilancio/internal/ports"
)

type Store struct {
	mu sync.RWMutex
	st *state
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// NewWithCategories returns a store seeded with the given categories.
func NewWithCategories(cats []core.Category) *Store {
	s := New()
	for _, c := range cats {
		_, _ = s.st.CreateCategory(context.Background(), c)
	}
	return s
}

func (s *Store) Close() error { return nil }

// WithTx stages every write of fn on a copy of the store and swaps it in
// only when fn succeeds. Writers are serialized for the whole call.
func (s *Store) WithTx(ctx context.Context, fn func(ports.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	if err := fn(staged); err != nil {
		return err
	}
	s.st = staged
	return nil
}

func (s *Store) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListRules(ctx)
}

func (s *Store) GetRule(ctx context.Context, id string) (core.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetRule(ctx, id)
}

func (s *Store) CreateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateRule(ctx, r)
}

func (s *Store) UpdateRule(ctx context.Context, r core.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateRule(ctx, r)
}

func (s *Store) FindOverride(ctx context.Context, key core.OverrideKey) (core.MonthlyOverride, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.FindOverride(ctx, key)
}

func (s *Store) UpsertOverride(ctx context.Context, key core.OverrideKey, amount core.Money) (core.MonthlyOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpsertOverride(ctx, key, amount)
}

func (s *Store) DeleteOverride(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteOverride(ctx, id)
}

func (s *Store) ListOverrides(ctx context.Context, year int, month time.Month) ([]core.MonthlyOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListOverrides(ctx, year, month)
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateTransaction(ctx, t)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetTransaction(ctx, id)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteTransaction(ctx, id)
}

func (s *Store) ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListTransactions(ctx, year, month)
}

func (s *Store) CreateInstallmentGroup(ctx context.Context, g core.InstallmentGroup) (core.InstallmentGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateInstallmentGroup(ctx, g)
}

func (s *Store) GetInstallmentGroup(ctx context.Context, id string) (core.InstallmentGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetInstallmentGroup(ctx, id)
}

func (s *Store) DeleteInstallmentGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteInstallmentGroup(ctx, id)
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListCategories(ctx)
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateCategory(ctx, c)
}

// state holds the data without any locking; Store guards it.
type state struct {
	rules        map[string]core.RecurringRule
	overrides    map[core.OverrideKey]core.MonthlyOverride
	transactions map[string]core.Transaction
	groups       map[string]core.InstallmentGroup
	categories   map[string]core.Category
}

func newState() *state {
	return &state{
		rules:        make(map[string]core.RecurringRule),
		overrides:    make(map[core.OverrideKey]core.MonthlyOverride),
		transactions: make(map[string]core.Transaction),
		groups:       make(map[string]core.InstallmentGroup),
		categories:   make(map[string]core.Category),
	}
}

// clone copies the maps; values are plain structs so a shallow copy suffices.
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.rules {
		c.rules[k] = v
	}
	for k, v := range st.overrides {
		c.overrides[k] = v
	}
	for k, v := range st.transactions {
		c.transactions[k] = v
	}
	for k, v := range st.groups {
		c.groups[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	return c
}

func (st *state) ListRules(_ context.Context) ([]core.RecurringRule, error) {
	out := make([]core.RecurringRule, 0, len(st.rules))
	for _, r := range st.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfMonth != out[j].DayOfMonth {
			return out[i].DayOfMonth < out[j].DayOfMonth
		}
		return out[i].Description < out[j].Description
	})
	return out, nil
}

func (st *state) GetRule(_ context.Context, id string) (core.RecurringRule, error) {
	r, ok := st.rules[id]
	if !ok {
		return core.RecurringRule{}, fmt.Errorf("rule %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (st *state) CreateRule(_ context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if _, exists := st.rules[r.ID]; exists {
		return core.RecurringRule{}, fmt.Errorf("rule %s already exists", r.ID)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Lifecycle.State == "" {
		r.Lifecycle = core.ActiveLifecycle()
	}
	st.rules[r.ID] = r
	return r, nil
}

func (st *state) UpdateRule(_ context.Context, r core.RecurringRule) error {
	old, ok := st.rules[r.ID]
	if !ok {
		return fmt.Errorf("rule %s: %w", r.ID, core.ErrNotFound)
	}
	r.CreatedAt = old.CreatedAt
	st.rules[r.ID] = r
	return nil
}

func (st *state) FindOverride(_ context.Context, key core.OverrideKey) (core.MonthlyOverride, bool, error) {
	o, ok := st.overrides[key]
	return o, ok, nil
}

func (st *state) UpsertOverride(_ context.Context, key core.OverrideKey, amount core.Money) (core.MonthlyOverride, error) {
	if _, ok := st.rules[key.RuleID]; !ok {
		return core.MonthlyOverride{}, fmt.Errorf("rule %s: %w", key.RuleID, core.ErrNotFound)
	}
	o, ok := st.overrides[key]
	if !ok {
		o = core.MonthlyOverride{
			ID:     uuid.New().String(),
			RuleID: key.RuleID,
			Kind:   key.Kind,
			Year:   key.Year,
			Month:  key.Month,
		}
	}
	o.Amount = amount
	st.overrides[key] = o
	return o, nil
}

func (st *state) DeleteOverride(_ context.Context, id string) error {
	for k, o := range st.overrides {
		if o.ID == id {
			delete(st.overrides, k)
			return nil
		}
	}
	return nil
}

func (st *state) ListOverrides(_ context.Context, year int, month time.Month) ([]core.MonthlyOverride, error) {
	var out []core.MonthlyOverride
	for k, o := range st.overrides {
		if k.Year == year && k.Month == month {
			out = append(out, o)
		}
	}
	return out, nil
}

func (st *state) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.GroupID != "" {
		if _, ok := st.groups[t.GroupID]; !ok {
			return core.Transaction{}, fmt.Errorf("installment group %s: %w", t.GroupID, core.ErrNotFound)
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	st.transactions[t.ID] = t
	return t, nil
}

func (st *state) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := st.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (st *state) DeleteTransaction(_ context.Context, id string) error {
	if _, ok := st.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	delete(st.transactions, id)
	return nil
}

func (st *state) ListTransactions(_ context.Context, year int, month time.Month) ([]core.Transaction, error) {
	first, last := calendar.MonthBounds(year, month)
	var out []core.Transaction
	for _, t := range st.transactions {
		if calendar.Within(t.Date.Time, first, last) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (st *state) CreateInstallmentGroup(_ context.Context, g core.InstallmentGroup) (core.InstallmentGroup, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	st.groups[g.ID] = g
	return g, nil
}

func (st *state) GetInstallmentGroup(_ context.Context, id string) (core.InstallmentGroup, error) {
	g, ok := st.groups[id]
	if !ok {
		return core.InstallmentGroup{}, fmt.Errorf("installment group %s: %w", id, core.ErrNotFound)
	}
	return g, nil
}

// DeleteInstallmentGroup drops the group and every installment pointing at it.
func (st *state) DeleteInstallmentGroup(_ context.Context, id string) error {
	if _, ok := st.groups[id]; !ok {
		return fmt.Errorf("installment group %s: %w", id, core.ErrNotFound)
	}
	delete(st.groups, id)
	for tid, t := range st.transactions {
		if t.GroupID == id {
			delete(st.transactions, tid)
		}
	}
	return nil
}

func (st *state) ListCategories(_ context.Context) ([]core.Category, error) {
	out := make([]core.Category, 0, len(st.categories))
	for _, c := range st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (st *state) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	for _, existing := range st.categories {
		if existing.Name == c.Name && existing.Kind == c.Kind {
			return core.Category{}, fmt.Errorf("category %q (%s) already exists", c.Name, c.Kind)
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	st.categories[c.ID] = c
	return c, nil
}
