package storage

import "database/sql"

type Category struct {
	ID   string
	Name string
	Kind string
}

type RecurringRule struct {
	ID                 string
	Description        string
	DefaultAmountCents int64
	DayOfMonth         int64
	StartDate          string
	EndDate            sql.NullString
	Kind               string
	CategoryID         sql.NullString
	State              string
	ArchivedSince      sql.NullString
	CreatedAt          string
}

type MonthlyOverride struct {
	ID          string
	RuleID      string
	Kind        string
	Year        int64
	Month       int64
	AmountCents int64
}

type InstallmentGroup struct {
	ID                string
	Description       string
	TotalAmountCents  int64
	TotalInstallments int64
	CategoryID        sql.NullString
	FirstDate         string
	CreatedAt         string
}

type Transaction struct {
	ID          string
	Kind        string
	Description string
	AmountCents int64
	Date        string
	CategoryID  sql.NullString
	GroupID     sql.NullString
	Sequence    sql.NullInt64
	CreatedAt   string
}
