package report

import (
	"sort"

	"bilancio/internal/core"
)

type categoryKey struct {
	id   string
	kind core.Kind
}

type breakdown struct {
	names  map[string]string
	totals map[categoryKey]core.Money
}

func newBreakdown(categories []core.Category) *breakdown {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return &breakdown{names: names, totals: make(map[categoryKey]core.Money)}
}

func (b *breakdown) add(categoryID string, kind core.Kind, amount core.Money) {
	k := categoryKey{id: categoryID, kind: kind}
	b.totals[k] = b.totals[k].Add(amount)
}

// sorted returns expenses before incomes, each by amount desc then name.
func (b *breakdown) sorted() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(b.totals))
	for k, amount := range b.totals {
		name, ok := b.names[k.id]
		if !ok || k.id == "" {
			name = UncategorizedName
		}
		out = append(out, core.CategoryAmount{CategoryID: k.id, Name: name, Kind: k.kind, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == core.KindExpense
		}
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}
