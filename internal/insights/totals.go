// Package insights aggregates transaction lists into totals, a per-category
// spending breakdown and month-over-month spending alerts.
package insights

import (
	"github.com/shopspring/decimal"

	"financeai/internal/core"
)

// Totals holds income and expense sums for a transaction list.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// CategorySpend is one slice of the spending chart.
type CategorySpend struct {
	Category string
	Amount   decimal.Decimal
	// Share is Amount / total expense, in [0,1]. Display only.
	Share float64
}

// ComputeTotals sums amounts by kind. Net is Income minus Expense.
func ComputeTotals(txs []core.Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Kind {
		case core.KindIncome:
			income = income.Add(t.Amount)
		case core.KindExpense:
			expense = expense.Add(t.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// CategoryBreakdown accumulates expense amounts per category, in the order
// categories first appear. Income is ignored.
func CategoryBreakdown(txs []core.Transaction) []CategorySpend {
	index := make(map[string]int)
	var out []CategorySpend
	total := decimal.Zero

	for _, t := range txs {
		if t.Kind != core.KindExpense {
			continue
		}
		total = total.Add(t.Amount)
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategorySpend{Category: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}

	if total.IsPositive() {
		for i := range out {
			out[i].Share = out[i].Amount.Div(total).InexactFloat64()
		}
	}
	return out
}
