// Package tui renders invoices and command summaries for the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xenking/cafe-orders/internal/domain/invoice"
)

var (
	accent  = lipgloss.Color("#B45309")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#16A34A")
	warning = lipgloss.Color("#F59E0B")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	businessStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle    = lipgloss.NewStyle().Foreground(dim)
	totalStyle    = lipgloss.NewStyle().Bold(true)
	paidStyle     = lipgloss.NewStyle().Bold(true).Foreground(success)
	pendingStyle  = lipgloss.NewStyle().Bold(true).Foreground(warning)
)

const (
	nameWidth  = 24
	qtyWidth   = 5
	moneyWidth = 10
)

// RenderInvoice draws v as a boxed receipt.
func RenderInvoice(v invoice.View) string {
	var b strings.Builder

	b.WriteString(businessStyle.Render(v.Business))
	b.WriteString("  ")
	b.WriteString(badgeStyle(v.Status).Render(v.Status))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Invoice"), v.Number)
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Date   "), v.IssueDate)

	b.WriteString(labelStyle.Render("Bill to"))
	b.WriteString("\n")
	b.WriteString(v.Customer.Name)
	b.WriteString("\n")
	if v.Customer.Phone != "" {
		b.WriteString(v.Customer.Phone)
		b.WriteString("\n")
	}
	if v.Customer.Notes != "" {
		b.WriteString(labelStyle.Render(v.Customer.Notes))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	header := fmt.Sprintf("%-*s %*s %*s %*s", nameWidth, "Item", qtyWidth, "Qty", moneyWidth, "Price", moneyWidth, "Total")
	b.WriteString(labelStyle.Render(header))
	b.WriteString("\n")
	for _, row := range v.Rows {
		fmt.Fprintf(&b, "%-*s %*d %*s %*s\n",
			nameWidth, truncate(row.Name, nameWidth),
			qtyWidth, row.Quantity,
			moneyWidth, row.UnitPrice.StringFixed(2),
			moneyWidth, row.LineTotal.StringFixed(2),
		)
	}
	b.WriteString(strings.Repeat("─", nameWidth+qtyWidth+2*moneyWidth+3))
	b.WriteString("\n")

	b.WriteString(summaryLine("Total", v.Total.StringFixed(2), totalStyle))
	b.WriteString(summaryLine("Paid", v.Paid.StringFixed(2), lipgloss.NewStyle()))
	b.WriteString(strings.TrimSuffix(summaryLine("Balance", v.Balance.StringFixed(2), totalStyle), "\n"))

	return boxStyle.Render(b.String())
}

func summaryLine(label, value string, style lipgloss.Style) string {
	width := nameWidth + qtyWidth + moneyWidth + 2
	return fmt.Sprintf("%-*s %s\n", width, label, style.Render(fmt.Sprintf("%*s", moneyWidth, value)))
}

func badgeStyle(status string) lipgloss.Style {
	if status == invoice.BadgePaid {
		return paidStyle
	}
	return pendingStyle
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
