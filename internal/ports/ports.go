// Package ports declares the storage contracts shared by the SQLite and
// in-memory backends.
package ports

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	RuleStore interface {
		ListRules(ctx context.Context) ([]core.RecurringRule, error)
		// GetRule returns core.ErrNotFound for unknown ids.
		GetRule(ctx context.Context, id string) (core.RecurringRule, error)
		CreateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error)
		// UpdateRule replaces every field but ID and CreatedAt. Overrides are untouched.
		UpdateRule(ctx context.Context, r core.RecurringRule) error
	}

	// OverrideStore holds per-month amount replacements keyed by
	// (rule, kind, year, month).
	OverrideStore interface {
		FindOverride(ctx context.Context, key core.OverrideKey) (core.MonthlyOverride, bool, error)
		// UpsertOverride is idempotent on the natural key; the last writer wins.
		UpsertOverride(ctx context.Context, key core.OverrideKey, amount core.Money) (core.MonthlyOverride, error)
		// DeleteOverride is a no-op for unknown ids.
		DeleteOverride(ctx context.Context, id string) error
		ListOverrides(ctx context.Context, year int, month time.Month) ([]core.MonthlyOverride, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
		// ListTransactions returns the month's transactions, installments included,
		// ordered by date.
		ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error)
		CreateInstallmentGroup(ctx context.Context, g core.InstallmentGroup) (core.InstallmentGroup, error)
		GetInstallmentGroup(ctx context.Context, id string) (core.InstallmentGroup, error)
		// DeleteInstallmentGroup removes the group and all of its installments.
		DeleteInstallmentGroup(ctx context.Context, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	// Repository is the full set of operations of one backend.
	Repository interface {
		RuleStore
		OverrideStore
		TransactionStore
		CategoryStore
	}

	// Store is a Repository able to run a unit of work atomically. fn
	// receives a Repository bound to the transaction; returning an error
	// rolls back every write done through it.
	Store interface {
		Repository
		WithTx(ctx context.Context, fn func(Repository) error) error
		Close() error
	}
)
