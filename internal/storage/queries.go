package storage

import "context"

const ruleColumns = `id, description, default_amount_cents, day_of_month, start_date, end_date,
       kind, category_id, state, archived_since, created_at`

func scanRule(row interface{ Scan(...interface{}) error }) (RecurringRule, error) {
	var i RecurringRule
	err := row.Scan(
		&i.ID,
		&i.Description,
		&i.DefaultAmountCents,
		&i.DayOfMonth,
		&i.StartDate,
		&i.EndDate,
		&i.Kind,
		&i.CategoryID,
		&i.State,
		&i.ArchivedSince,
		&i.CreatedAt,
	)
	return i, err
}

const createRule = `-- name: CreateRule :exec
INSERT INTO recurring_rules (` + ruleColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRule(ctx context.Context, arg RecurringRule) error {
	_, err := q.db.ExecContext(ctx, createRule,
		arg.ID,
		arg.Description,
		arg.DefaultAmountCents,
		arg.DayOfMonth,
		arg.StartDate,
		arg.EndDate,
		arg.Kind,
		arg.CategoryID,
		arg.State,
		arg.ArchivedSince,
		arg.CreatedAt,
	)
	return err
}

const getRule = `-- name: GetRule :one
SELECT ` + ruleColumns + ` FROM recurring_rules WHERE id = ?`

func (q *Queries) GetRule(ctx context.Context, id string) (RecurringRule, error) {
	return scanRule(q.db.QueryRowContext(ctx, getRule, id))
}

const listRules = `-- name: ListRules :many
SELECT ` + ruleColumns + ` FROM recurring_rules ORDER BY day_of_month, description`

func (q *Queries) ListRules(ctx context.Context) ([]RecurringRule, error) {
	rows, err := q.db.QueryContext(ctx, listRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringRule
	for rows.Next() {
		i, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateRule = `-- name: UpdateRule :execrows
UPDATE recurring_rules
SET description = ?, default_amount_cents = ?, day_of_month = ?, start_date = ?, end_date = ?,
    kind = ?, category_id = ?, state = ?, archived_since = ?
WHERE id = ?`

func (q *Queries) UpdateRule(ctx context.Context, arg RecurringRule) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRule,
		arg.Description,
		arg.DefaultAmountCents,
		arg.DayOfMonth,
		arg.StartDate,
		arg.EndDate,
		arg.Kind,
		arg.CategoryID,
		arg.State,
		arg.ArchivedSince,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const overrideColumns = `id, rule_id, kind, year, month, amount_cents`

func scanOverride(row interface{ Scan(...interface{}) error }) (MonthlyOverride, error) {
	var i MonthlyOverride
	err := row.Scan(&i.ID, &i.RuleID, &i.Kind, &i.Year, &i.Month, &i.AmountCents)
	return i, err
}

const findOverride = `-- name: FindOverride :one
SELECT ` + overrideColumns + ` FROM monthly_overrides
WHERE rule_id = ? AND kind = ? AND year = ? AND month = ?`

type FindOverrideParams struct {
	RuleID string
	Kind   string
	Year   int64
	Month  int64
}

func (q *Queries) FindOverride(ctx context.Context, arg FindOverrideParams) (MonthlyOverride, error) {
	return scanOverride(q.db.QueryRowContext(ctx, findOverride, arg.RuleID, arg.Kind, arg.Year, arg.Month))
}

const upsertOverride = `-- name: UpsertOverride :one
INSERT INTO monthly_overrides (` + overrideColumns + `)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (rule_id, kind, year, month) DO UPDATE SET amount_cents = excluded.amount_cents
RETURNING ` + overrideColumns

func (q *Queries) UpsertOverride(ctx context.Context, arg MonthlyOverride) (MonthlyOverride, error) {
	row := q.db.QueryRowContext(ctx, upsertOverride,
		arg.ID,
		arg.RuleID,
		arg.Kind,
		arg.Year,
		arg.Month,
		arg.AmountCents,
	)
	return scanOverride(row)
}

const deleteOverride = `-- name: DeleteOverride :exec
DELETE FROM monthly_overrides WHERE id = ?`

func (q *Queries) DeleteOverride(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteOverride, id)
	return err
}

const listOverridesByMonth = `-- name: ListOverridesByMonth :many
SELECT ` + overrideColumns + ` FROM monthly_overrides WHERE year = ? AND month = ?`

func (q *Queries) ListOverridesByMonth(ctx context.Context, year, month int64) ([]MonthlyOverride, error) {
	rows, err := q.db.QueryContext(ctx, listOverridesByMonth, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyOverride
	for rows.Next() {
		i, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const transactionColumns = `id, kind, description, amount_cents, date, category_id, group_id, sequence, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Description,
		&i.AmountCents,
		&i.Date,
		&i.CategoryID,
		&i.GroupID,
		&i.Sequence,
		&i.CreatedAt,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.Kind,
		arg.Description,
		arg.AmountCents,
		arg.Date,
		arg.CategoryID,
		arg.GroupID,
		arg.Sequence,
		arg.CreatedAt,
	)
	return err
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listTransactionsBetween = `-- name: ListTransactionsBetween :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE date >= ? AND date <= ?
ORDER BY date, created_at, id`

// ListTransactionsBetween takes inclusive YYYY-MM-DD bounds.
func (q *Queries) ListTransactionsBetween(ctx context.Context, from, to string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createInstallmentGroup = `-- name: CreateInstallmentGroup :exec
INSERT INTO installment_groups (id, description, total_amount_cents, total_installments, category_id, first_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateInstallmentGroup(ctx context.Context, arg InstallmentGroup) error {
	_, err := q.db.ExecContext(ctx, createInstallmentGroup,
		arg.ID,
		arg.Description,
		arg.TotalAmountCents,
		arg.TotalInstallments,
		arg.CategoryID,
		arg.FirstDate,
		arg.CreatedAt,
	)
	return err
}

const getInstallmentGroup = `-- name: GetInstallmentGroup :one
SELECT id, description, total_amount_cents, total_installments, category_id, first_date, created_at
FROM installment_groups WHERE id = ?`

func (q *Queries) GetInstallmentGroup(ctx context.Context, id string) (InstallmentGroup, error) {
	row := q.db.QueryRowContext(ctx, getInstallmentGroup, id)
	var i InstallmentGroup
	err := row.Scan(
		&i.ID,
		&i.Description,
		&i.TotalAmountCents,
		&i.TotalInstallments,
		&i.CategoryID,
		&i.FirstDate,
		&i.CreatedAt,
	)
	return i, err
}

const deleteInstallmentGroup = `-- name: DeleteInstallmentGroup :execrows
DELETE FROM installment_groups WHERE id = ?`

func (q *Queries) DeleteInstallmentGroup(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteInstallmentGroup, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createCategory = `-- name: CreateCategory :exec
INSERT INTO categories (id, name, kind) VALUES (?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, createCategory, arg.ID, arg.Name, arg.Kind)
	return err
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, kind FROM categories ORDER BY kind, name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Kind); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
