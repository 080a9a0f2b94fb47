package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bilancio/internal/core"
	"bilancio/internal/installment"
	"bilancio/internal/seed"
	"bilancio/internal/sheets"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func signed(m core.Money) string {
	if m.Cents < 0 {
		return text.FgRed.Sprint(m.String())
	}
	return m.String()
}

// renderMonth prints the totals of s, its recurring occurrences and its
// category breakdown.
func renderMonth(w io.Writer, s core.MonthSummary) {
	fmt.Fprintf(w, "%s %d\n", sheets.MonthName(s.Month), s.Year)

	totals := newTable(w)
	totals.AppendHeader(table.Row{"", "Entrate", "Uscite"})
	totals.AppendRow(table.Row{"Fisse", s.FixedIncome.String(), s.FixedExpense.String()})
	totals.AppendRow(table.Row{"Variabili", s.VariableIncome.String(), s.VariableExpense.String()})
	totals.AppendSeparator()
	totals.AppendFooter(table.Row{text.Bold.Sprint("Totale"), text.Bold.Sprint(s.Income().String()), text.Bold.Sprint(s.Expense().String())})
	totals.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	totals.Render()
	fmt.Fprintf(w, "Saldo: %s\n", signed(s.Balance()))

	if len(s.Recurring) > 0 {
		fmt.Fprintln(w)
		rec := newTable(w)
		rec.AppendHeader(table.Row{"Data", "Voce", "Tipo", "Importo", ""})
		for _, o := range s.Recurring {
			mark := ""
			if o.Overridden {
				mark = text.FgYellow.Sprint("modificato")
			}
			rec.AppendRow(table.Row{o.Date.String(), o.Description, kindLabel(o.Kind), o.Amount.String(), mark})
		}
		rec.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
		rec.Render()
	}

	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w)
		cats := newTable(w)
		cats.AppendHeader(table.Row{"Categoria", "Tipo", "Importo"})
		for _, c := range s.ByCategory {
			name := c.Name
			if name == "" {
				name = text.FgHiBlack.Sprint("senza categoria")
			}
			cats.AppendRow(table.Row{name, kindLabel(c.Kind), c.Amount.String()})
		}
		cats.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
		cats.Render()
	}
}

// renderYear prints one row per month and the year totals.
func renderYear(w io.Writer, y core.YearSummary) {
	fmt.Fprintf(w, "Anno %d\n", y.Year)

	t := newTable(w)
	t.AppendHeader(table.Row{"Mese", "Entrate fisse", "Uscite fisse", "Entrate var.", "Uscite var.", "Saldo"})
	for _, m := range y.Months {
		t.AppendRow(table.Row{
			sheets.MonthName(m.Month),
			m.FixedIncome.String(),
			m.FixedExpense.String(),
			m.VariableIncome.String(),
			m.VariableExpense.String(),
			signed(m.Balance()),
		})
	}
	var fi, fe, vi, ve core.Money
	for _, m := range y.Months {
		fi = fi.Add(m.FixedIncome)
		fe = fe.Add(m.FixedExpense)
		vi = vi.Add(m.VariableIncome)
		ve = ve.Add(m.VariableExpense)
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{
		text.Bold.Sprint("Totale"),
		text.Bold.Sprint(fi.String()),
		text.Bold.Sprint(fe.String()),
		text.Bold.Sprint(vi.String()),
		text.Bold.Sprint(ve.String()),
		text.Bold.Sprint(y.Balance().String()),
	})
	configs := make([]table.ColumnConfig, 0, 5)
	for col := 2; col <= 6; col++ {
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
	t.Render()
}

// renderShares prints an installment plan.
func renderShares(w io.Writer, shares []installment.Share) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Data", "Importo"})
	for _, s := range shares {
		t.AppendRow(table.Row{fmt.Sprintf("%d/%d", s.Sequence, len(shares)), core.DateOf(s.Date).String(), s.Amount.String()})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", text.Bold.Sprint("Totale"), text.Bold.Sprint(installment.Total(shares).String())})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
}

func renderImport(w io.Writer, r seed.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"", "Creati", "Già presenti"})
	t.AppendRow(table.Row{"Categorie", r.CategoriesCreated, r.CategoriesSkipped})
	t.AppendRow(table.Row{"Voci ricorrenti", r.RulesCreated, r.RulesSkipped})
	t.AppendRow(table.Row{"Importi mensili", r.OverridesSet, "-"})
	t.Render()
}

func kindLabel(k core.Kind) string {
	if k == core.KindIncome {
		return "entrata"
	}
	return "uscita"
}
