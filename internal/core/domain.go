package core

import (
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	RuleActive   RuleState = "active"
	RuleArchived RuleState = "archived"
)

const maxDescriptionLen = 200

type (
	// Kind separates incomes from expenses.
	Kind string

	// RuleState is the lifecycle tag of a recurring rule.
	RuleState string

	Date struct {
		time.Time
	}

	// Lifecycle is Active, or Archived since a given day. An archived rule
	// keeps its history; its active window simply stops at Since.
	Lifecycle struct {
		State RuleState
		Since Date
	}

	// RecurringRule is a template for a fixed monthly income or expense.
	RecurringRule struct {
		ID            string
		Description   string
		DefaultAmount Money
		DayOfMonth    int
		StartDate     Date
		EndDate       Date // zero means open ended
		Kind          Kind
		CategoryID    string
		Lifecycle     Lifecycle
		CreatedAt     time.Time
	}

	// OverrideKey is the natural key of a monthly override.
	OverrideKey struct {
		RuleID string
		Kind   Kind
		Year   int
		Month  time.Month
	}

	// MonthlyOverride replaces a rule's default amount for one month.
	MonthlyOverride struct {
		ID     string
		RuleID string
		Kind   Kind
		Year   int
		Month  time.Month
		Amount Money
	}

	// InstallmentGroup is a single purchase split into dated installments.
	InstallmentGroup struct {
		ID                string
		Description       string
		TotalAmount       Money
		TotalInstallments int
		CategoryID        string
		FirstDate         Date
		CreatedAt         time.Time
	}

	// Transaction is an ad-hoc income or expense. Installments are
	// transactions carrying a GroupID and a 1-based Sequence.
	Transaction struct {
		ID          string
		Kind        Kind
		Description string
		Amount      Money
		Date        Date
		CategoryID  string
		GroupID     string
		Sequence    int
		CreatedAt   time.Time
	}

	Category struct {
		ID   string
		Name string
		Kind Kind
	}
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// NewDate creates a new Date from year, month, day at UTC midnight.
// Out of range days are normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the time of day from t, keeping its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// ActiveLifecycle returns the lifecycle of a rule that was never archived.
func ActiveLifecycle() Lifecycle {
	return Lifecycle{State: RuleActive}
}

// ArchivedLifecycle returns the lifecycle of a rule archived on the given day.
func ArchivedLifecycle(since Date) Lifecycle {
	return Lifecycle{State: RuleArchived, Since: since}
}

func (l Lifecycle) IsArchived() bool {
	return l.State == RuleArchived
}

// EffectiveEnd returns the last day of the rule's active window: the
// earlier of EndDate and the archive day. ok is false for open ended rules.
func (r RecurringRule) EffectiveEnd() (end Date, ok bool) {
	if !r.EndDate.IsZero() {
		end, ok = r.EndDate, true
	}
	if r.Lifecycle.IsArchived() && !r.Lifecycle.Since.IsZero() {
		if !ok || r.Lifecycle.Since.Before(end.Time) {
			end, ok = r.Lifecycle.Since, true
		}
	}
	return end, ok
}

func (r RecurringRule) Validate() error {
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if err := r.DefaultAmount.Validate(); err != nil {
		return err
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	if r.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return ErrEndBeforeStart
	}
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Key returns the natural key of the override.
func (o MonthlyOverride) Key() OverrideKey {
	return OverrideKey{RuleID: o.RuleID, Kind: o.Kind, Year: o.Year, Month: o.Month}
}

func (k OverrideKey) Validate() error {
	if strings.TrimSpace(k.RuleID) == "" {
		return NewValidationError("rule_id", "must not be empty")
	}
	if !k.Kind.Valid() {
		return ErrInvalidKind
	}
	if k.Month < time.January || k.Month > time.December {
		return ErrInvalidMonth
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return NewValidationError("date", "must be set")
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// IsInstallment reports whether the transaction belongs to an installment group.
func (t Transaction) IsInstallment() bool {
	return t.GroupID != ""
}

func (g InstallmentGroup) Validate() error {
	if err := validateDescription(g.Description); err != nil {
		return err
	}
	if err := g.TotalAmount.Validate(); err != nil {
		return err
	}
	if g.TotalInstallments < 2 {
		return NewValidationError("installments", "minimum 2 installments")
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}
