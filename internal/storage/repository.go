package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/calendar"
	"bilancio/internal/core"
	"bilancio/internal/ports"

	_ "modernc.org/sqlite"
)

// Connection pragmas: cascades rely on foreign keys being enforced on every
// pooled connection.
const dsnPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type SQLiteRepository struct {
	*repo
	db *sql.DB
}

// repo implements ports.Repository over any DBTX, so the same code serves
// the pool and an open transaction.
type repo struct {
	queries *Queries
}

var (
	_ ports.Store      = (*SQLiteRepository)(nil)
	_ ports.Repository = (*repo)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?" + dsnPragmas
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		repo: &repo{queries: New(db)},
		db:   db,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithTx runs fn inside a single SQLite transaction. Any error returned by
// fn, or a failed commit, leaves the database untouched.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(ports.Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&repo{queries: r.queries.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListRules implements ports.RuleStore
func (r *repo) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.queries.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	rules := make([]core.RecurringRule, 0, len(rows))
	for _, row := range rows {
		rule, err := ruleFromRow(row)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *repo) GetRule(ctx context.Context, id string) (core.RecurringRule, error) {
	row, err := r.queries.GetRule(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringRule{}, fmt.Errorf("rule %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("get rule: %w", err)
	}
	return ruleFromRow(row)
}

func (r *repo) CreateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	if rule.Lifecycle.State == "" {
		rule.Lifecycle = core.ActiveLifecycle()
	}
	if err := r.queries.CreateRule(ctx, ruleToRow(rule)); err != nil {
		return core.RecurringRule{}, fmt.Errorf("create rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule saved to SQLite",
		"id", rule.ID,
		"description", rule.Description,
		"amount_cents", rule.DefaultAmount.Cents,
		"day_of_month", rule.DayOfMonth)

	return rule, nil
}

func (r *repo) UpdateRule(ctx context.Context, rule core.RecurringRule) error {
	n, err := r.queries.UpdateRule(ctx, ruleToRow(rule))
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, core.ErrNotFound)
	}
	return nil
}

// FindOverride implements ports.OverrideStore
func (r *repo) FindOverride(ctx context.Context, key core.OverrideKey) (core.MonthlyOverride, bool, error) {
	row, err := r.queries.FindOverride(ctx, FindOverrideParams{
		RuleID: key.RuleID,
		Kind:   string(key.Kind),
		Year:   int64(key.Year),
		Month:  int64(key.Month),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyOverride{}, false, nil
	}
	if err != nil {
		return core.MonthlyOverride{}, false, fmt.Errorf("find override: %w", err)
	}
	return overrideFromRow(row), true, nil
}

func (r *repo) UpsertOverride(ctx context.Context, key core.OverrideKey, amount core.Money) (core.MonthlyOverride, error) {
	row, err := r.queries.UpsertOverride(ctx, MonthlyOverride{
		ID:          uuid.New().String(),
		RuleID:      key.RuleID,
		Kind:        string(key.Kind),
		Year:        int64(key.Year),
		Month:       int64(key.Month),
		AmountCents: amount.Cents,
	})
	if err != nil {
		return core.MonthlyOverride{}, fmt.Errorf("upsert override: %w", err)
	}
	return overrideFromRow(row), nil
}

func (r *repo) DeleteOverride(ctx context.Context, id string) error {
	if err := r.queries.DeleteOverride(ctx, id); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

func (r *repo) ListOverrides(ctx context.Context, year int, month time.Month) ([]core.MonthlyOverride, error) {
	rows, err := r.queries.ListOverridesByMonth(ctx, int64(year), int64(month))
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	out := make([]core.MonthlyOverride, len(rows))
	for i, row := range rows {
		out[i] = overrideFromRow(row)
	}
	return out, nil
}

// CreateTransaction implements ports.TransactionStore
func (r *repo) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := r.queries.CreateTransaction(ctx, transactionToRow(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String(),
		"group_id", t.GroupID)

	return t, nil
}

func (r *repo) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return transactionFromRow(row)
}

func (r *repo) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *repo) ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	first, last := calendar.MonthBounds(year, month)
	rows, err := r.queries.ListTransactionsBetween(ctx, first.Format(time.DateOnly), last.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *repo) CreateInstallmentGroup(ctx context.Context, g core.InstallmentGroup) (core.InstallmentGroup, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	err := r.queries.CreateInstallmentGroup(ctx, InstallmentGroup{
		ID:                g.ID,
		Description:       g.Description,
		TotalAmountCents:  g.TotalAmount.Cents,
		TotalInstallments: int64(g.TotalInstallments),
		CategoryID:        nullString(g.CategoryID),
		FirstDate:         g.FirstDate.String(),
		CreatedAt:         formatTimestamp(g.CreatedAt),
	})
	if err != nil {
		return core.InstallmentGroup{}, fmt.Errorf("create installment group: %w", err)
	}
	return g, nil
}

func (r *repo) GetInstallmentGroup(ctx context.Context, id string) (core.InstallmentGroup, error) {
	row, err := r.queries.GetInstallmentGroup(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentGroup{}, fmt.Errorf("installment group %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.InstallmentGroup{}, fmt.Errorf("get installment group: %w", err)
	}
	first, err := core.ParseDate(row.FirstDate)
	if err != nil {
		return core.InstallmentGroup{}, fmt.Errorf("parse first_date of group %s: %w", id, err)
	}
	return core.InstallmentGroup{
		ID:                row.ID,
		Description:       row.Description,
		TotalAmount:       core.Cents(row.TotalAmountCents),
		TotalInstallments: int(row.TotalInstallments),
		CategoryID:        row.CategoryID.String,
		FirstDate:         first,
		CreatedAt:         parseTimestamp(row.CreatedAt),
	}, nil
}

// DeleteInstallmentGroup removes the group; installments go with it through
// ON DELETE CASCADE.
func (r *repo) DeleteInstallmentGroup(ctx context.Context, id string) error {
	n, err := r.queries.DeleteInstallmentGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("delete installment group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("installment group %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Installment group deleted", "group_id", id)
	return nil
}

// ListCategories implements ports.CategoryStore
func (r *repo) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = core.Category{ID: row.ID, Name: row.Name, Kind: core.Kind(row.Kind)}
	}
	return out, nil
}

func (r *repo) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if err := r.queries.CreateCategory(ctx, Category{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func ruleToRow(r core.RecurringRule) RecurringRule {
	row := RecurringRule{
		ID:                 r.ID,
		Description:        r.Description,
		DefaultAmountCents: r.DefaultAmount.Cents,
		DayOfMonth:         int64(r.DayOfMonth),
		StartDate:          r.StartDate.String(),
		EndDate:            nullString(r.EndDate.String()),
		Kind:               string(r.Kind),
		CategoryID:         nullString(r.CategoryID),
		State:              string(r.Lifecycle.State),
		CreatedAt:          formatTimestamp(r.CreatedAt),
	}
	if row.State == "" {
		row.State = string(core.RuleActive)
	}
	if r.Lifecycle.IsArchived() {
		row.ArchivedSince = nullString(r.Lifecycle.Since.String())
	}
	return row
}

func ruleFromRow(row RecurringRule) (core.RecurringRule, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse start_date of rule %s: %w", row.ID, err)
	}
	var end core.Date
	if row.EndDate.Valid {
		if end, err = core.ParseDate(row.EndDate.String); err != nil {
			return core.RecurringRule{}, fmt.Errorf("parse end_date of rule %s: %w", row.ID, err)
		}
	}
	lifecycle := core.ActiveLifecycle()
	if core.RuleState(row.State) == core.RuleArchived {
		var since core.Date
		if row.ArchivedSince.Valid {
			if since, err = core.ParseDate(row.ArchivedSince.String); err != nil {
				return core.RecurringRule{}, fmt.Errorf("parse archived_since of rule %s: %w", row.ID, err)
			}
		}
		lifecycle = core.ArchivedLifecycle(since)
	}
	return core.RecurringRule{
		ID:            row.ID,
		Description:   row.Description,
		DefaultAmount: core.Cents(row.DefaultAmountCents),
		DayOfMonth:    int(row.DayOfMonth),
		StartDate:     start,
		EndDate:       end,
		Kind:          core.Kind(row.Kind),
		CategoryID:    row.CategoryID.String,
		Lifecycle:     lifecycle,
		CreatedAt:     parseTimestamp(row.CreatedAt),
	}, nil
}

func overrideFromRow(row MonthlyOverride) core.MonthlyOverride {
	return core.MonthlyOverride{
		ID:     row.ID,
		RuleID: row.RuleID,
		Kind:   core.Kind(row.Kind),
		Year:   int(row.Year),
		Month:  time.Month(row.Month),
		Amount: core.Cents(row.AmountCents),
	}
}

func transactionToRow(t core.Transaction) Transaction {
	row := Transaction{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		CategoryID:  nullString(t.CategoryID),
		GroupID:     nullString(t.GroupID),
		CreatedAt:   formatTimestamp(t.CreatedAt),
	}
	if t.GroupID != "" {
		row.Sequence = sql.NullInt64{Int64: int64(t.Sequence), Valid: true}
	}
	return row
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date of transaction %s: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Kind:        core.Kind(row.Kind),
		Description: row.Description,
		Amount:      core.Cents(row.AmountCents),
		Date:        date,
		CategoryID:  row.CategoryID.String,
		GroupID:     row.GroupID.String,
		Sequence:    int(row.Sequence.Int64),
		CreatedAt:   parseTimestamp(row.CreatedAt),
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
