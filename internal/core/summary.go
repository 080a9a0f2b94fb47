package core

import "time"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Kind       Kind
	Amount     Money
}

// RecurringOccurrence is a rule resolved against one target month.
type RecurringOccurrence struct {
	RuleID      string
	Description string
	Kind        Kind
	CategoryID  string
	// Date is the literal occurrence date, which rolls into the following
	// month when DayOfMonth exceeds the month length.
	Date       Date
	Amount     Money
	Overridden bool
}

// MonthSummary is the aggregated view of a single year+month.
type MonthSummary struct {
	Year            int
	Month           time.Month
	FixedIncome     Money
	FixedExpense    Money
	VariableIncome  Money
	VariableExpense Money
	Recurring       []RecurringOccurrence
	ByCategory      []CategoryAmount
}

func (s MonthSummary) Income() Money {
	return s.FixedIncome.Add(s.VariableIncome)
}

func (s MonthSummary) Expense() Money {
	return s.FixedExpense.Add(s.VariableExpense)
}

// Balance is income minus expense and may be negative.
func (s MonthSummary) Balance() Money {
	return s.Income().Sub(s.Expense())
}

// YearSummary holds the twelve month summaries of a calendar year.
type YearSummary struct {
	Year   int
	Months []MonthSummary
}

func (y YearSummary) Income() Money {
	var total Money
	for _, m := range y.Months {
		total = total.Add(m.Income())
	}
	return total
}

func (y YearSummary) Expense() Money {
	var total Money
	for _, m := range y.Months {
		total = total.Add(m.Expense())
	}
	return total
}

func (y YearSummary) Balance() Money {
	return y.Income().Sub(y.Expense())
}

// EntrySource tells where a calendar entry comes from.
type EntrySource string

const (
	SourceRecurring   EntrySource = "recurring"
	SourceTransaction EntrySource = "transaction"
	SourceInstallment EntrySource = "installment"
)

// CalendarEntry is one line of a month calendar.
type CalendarEntry struct {
	Date        Date
	Kind        Kind
	Source      EntrySource
	RefID       string
	Description string
	Amount      Money
	CategoryID  string
}
