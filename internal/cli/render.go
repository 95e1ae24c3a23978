package cli

import (
	"fmt"
	"strings"

	"financeai/internal/core"
	"financeai/internal/insights"
	"financeai/internal/ui"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const barWidth = 30

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#585b70")).
			Padding(0, 1).
			Width(20)
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#f9e2af")).
			PaddingLeft(1)
)

func amountStyle(k core.Kind) lipgloss.Style {
	if k == core.KindIncome {
		return incomeStyle
	}
	return expenseStyle
}

func renderTransactions(txs []core.Transaction, total int) string {
	if len(txs) == 0 {
		return mutedStyle.Render("No transactions yet.")
	}

	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			shortID(t.ID),
			t.Date.Local().Format("2006-01-02"),
			string(t.Kind),
			t.Category,
			core.FormatAmount(t.Amount),
			t.Description,
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "DATE", "TYPE", "CATEGORY", "AMOUNT", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 && row >= 0 && row < len(txs) {
				return amountStyle(txs[row].Kind).Padding(0, 1)
			}
			return cellStyle
		})

	footer := mutedStyle.Render(fmt.Sprintf("Showing %d of %d", len(txs), total))
	return tbl.String() + "\n" + footer
}

func renderTotals(t insights.Totals) string {
	net := incomeStyle
	if t.Net.IsNegative() {
		net = expenseStyle
	}
	card := func(label string, style lipgloss.Style, value string) string {
		return cardStyle.Render(mutedStyle.Render(label) + "\n" + style.Bold(true).Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Income", incomeStyle, core.FormatAmount(t.Income)),
		card("Expenses", expenseStyle, core.FormatAmount(t.Expense)),
		card("Net", net, core.FormatAmount(t.Net)),
	)
}

func renderBreakdown(b []insights.CategorySpend) string {
	if len(b) == 0 {
		return mutedStyle.Render("No spending to chart.")
	}
	width := 0
	for _, c := range b {
		width = max(width, lipgloss.Width(c.Category))
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Spending by category"))
	for _, c := range b {
		n := int(c.Share*barWidth + 0.5)
		if n == 0 && c.Amount.IsPositive() {
			n = 1
		}
		fmt.Fprintf(&sb, "\n%-*s %s%s %s %s",
			width, c.Category,
			expenseStyle.Render(strings.Repeat("█", n)),
			strings.Repeat(" ", barWidth-n),
			core.FormatAmount(c.Amount),
			mutedStyle.Render(fmt.Sprintf("%.0f%%", c.Share*100)))
	}
	return sb.String()
}

func renderAlerts(notices []ui.Notice) string {
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		lines = append(lines, alertStyle.Render("⚠ "+n.Message))
	}
	return strings.Join(lines, "\n")
}

func renderAdvice(a *ui.Advice) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(a.ProductName))
	fmt.Fprintf(&sb, "\nPrice:           %s", core.FormatAmount(a.ProductPrice))
	fmt.Fprintf(&sb, "\nMonthly savings: %s", core.FormatAmount(a.MonthlySavings))
	switch {
	case a.MonthsToAfford < 0:
		sb.WriteString("\nMonths to afford: " + expenseStyle.Render("never at the current rate"))
	case a.MonthsToAfford == 0:
		sb.WriteString("\nMonths to afford: " + incomeStyle.Render("now"))
	default:
		fmt.Fprintf(&sb, "\nMonths to afford: %d", a.MonthsToAfford)
	}
	if a.Explanation != "" {
		sb.WriteString("\n\n" + a.Explanation)
	}
	if a.Output != "" {
		sb.WriteString("\n\n" + a.Output)
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
