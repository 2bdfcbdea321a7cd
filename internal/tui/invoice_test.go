package tui

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/cafe-orders/internal/domain/invoice"
)

func TestRenderInvoice(t *testing.T) {
	v := invoice.View{
		Business:  "Click Cafe",
		Number:    "INV-1773484200000",
		IssueDate: "2026-03-14",
		Customer:  invoice.Customer{Name: "Asha", Phone: "98450"},
		Rows: []invoice.Row{
			{Name: "Latte", Quantity: 2, UnitPrice: decimal.NewFromInt(120), LineTotal: decimal.NewFromInt(240)},
			{Name: "A very long seasonal special with extras", Quantity: 1, UnitPrice: decimal.NewFromInt(140), LineTotal: decimal.NewFromInt(140)},
		},
		Total:   decimal.NewFromInt(380),
		Paid:    decimal.Zero,
		Balance: decimal.NewFromInt(380),
		Status:  invoice.BadgePending,
	}

	out := RenderInvoice(v)
	for _, want := range []string{"Click Cafe", "INV-1773484200000", "2026-03-14", "Asha", "98450", "Latte", "240.00", "380.00", "PENDING", "…"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "with extras")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Tea", truncate("Tea", 5))
	assert.Equal(t, "Capp…", truncate("Cappuccino", 5))
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("Imported", Count{Label: "read", N: 4}, Count{Label: "imported", N: 2})
	assert.Contains(t, out, "Imported")
	assert.Contains(t, out, "read 4")
	assert.Contains(t, out, "imported 2")
}
