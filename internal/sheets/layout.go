package sheets

import (
	"time"

	"bilancio/internal/core"
)

// Header is the first row of every summary sheet.
var Header = []any{
	"Mese",
	"Entrate fisse",
	"Uscite fisse",
	"Entrate variabili",
	"Uscite variabili",
	"Entrate",
	"Uscite",
	"Saldo",
}

// TotalLabel labels the row summing the whole year.
const TotalLabel = "Totale"

var monthNames = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// MonthName returns the Italian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return monthNames[m-1]
}

// MonthRow lays out one month summary in Header order.
func MonthRow(s core.MonthSummary) []any {
	return []any{
		MonthName(s.Month),
		Euros(s.FixedIncome),
		Euros(s.FixedExpense),
		Euros(s.VariableIncome),
		Euros(s.VariableExpense),
		Euros(s.Income()),
		Euros(s.Expense()),
		Euros(s.Balance()),
	}
}

// TotalsRow sums every column of the year.
func TotalsRow(y core.YearSummary) []any {
	var fi, fe, vi, ve core.Money
	for _, m := range y.Months {
		fi, fe = fi.Add(m.FixedIncome), fe.Add(m.FixedExpense)
		vi, ve = vi.Add(m.VariableIncome), ve.Add(m.VariableExpense)
	}
	return []any{
		TotalLabel,
		Euros(fi), Euros(fe), Euros(vi), Euros(ve),
		Euros(y.Income()), Euros(y.Expense()), Euros(y.Balance()),
	}
}

// Euros converts m for spreadsheet cells, which only hold floats.
func Euros(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}
