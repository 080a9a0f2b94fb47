// Package installment splits a lump sum into monthly installments without
// losing or duplicating a cent.
package installment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/calendar"
	"bilancio/internal/core"
)

// MaxInstallments bounds the number of shares of a single purchase (30 years).
const MaxInstallments = 360

// Share is one installment of a split.
type Share struct {
	Sequence int // 1-based
	Amount   core.Money
	Date     time.Time
}

// Split divides total into count shares dated one month apart from base.
// The first total%count shares carry one extra cent. Dates use native month
// overflow: a split starting on Jan 31 continues on Mar 3 and Mar 31.
func Split(total decimal.Decimal, count int, base time.Time) ([]Share, error) {
	if !total.IsPositive() {
		return nil, core.ErrInvalidAmount
	}
	if count < 2 {
		return nil, core.NewValidationError("installments", "minimum 2 installments")
	}
	if count > MaxInstallments {
		return nil, core.NewValidationError("installments", fmt.Sprintf("maximum %d installments", MaxInstallments))
	}

	totalCents, err := core.MoneyFromDecimal(total)
	if err != nil {
		return nil, err
	}
	if totalCents.Cents <= 0 {
		// totals under half a cent round to nothing
		return nil, core.ErrInvalidAmount
	}

	n := int64(count)
	baseCents := totalCents.Cents / n
	remainder := totalCents.Cents % n

	shares := make([]Share, count)
	for i := range shares {
		cents := baseCents
		if int64(i) < remainder {
			cents++
		}
		shares[i] = Share{
			Sequence: i + 1,
			Amount:   core.Cents(cents),
			Date:     calendar.AddMonths(base, i),
		}
	}
	return shares, nil
}

// ParseCount parses an installment count typed by a user. Fractions and
// non numeric input are rejected with a validation error.
func ParseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, core.NewValidationError("installments", "must be a whole number")
	}
	return n, nil
}

// Total sums the share amounts.
func Total(shares []Share) core.Money {
	var sum core.Money
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// Description labels installment i of n, e.g. "Laptop (2/3)".
func Description(desc string, sequence, count int) string {
	return fmt.Sprintf("%s (%d/%d)", desc, sequence, count)
}
