// Package invoice derives printable invoice views from saved orders.
package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/cafe-orders/internal/domain/order"
)

// DateLayout formats invoice issue dates.
const DateLayout = "2006-01-02"

// Badge labels shown for the payment status.
const (
	BadgePaid          = "PAID"
	BadgePending       = "PENDING"
	BadgePartiallyPaid = "PARTIALLY PAID"
)

// View is everything needed to render an invoice.
type View struct {
	Business  string
	Number    string
	IssueDate string
	Customer  Customer
	Rows      []Row
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Balance   decimal.Decimal
	Status    string
}

// Customer is the bill-to block.
type Customer struct {
	Name  string
	Phone string
	Notes string
}

// Row is one itemized line.
type Row struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Composer builds invoice views for one business.
type Composer struct {
	business string
}

// NewComposer returns a Composer printing business in the header.
func NewComposer(business string) *Composer {
	return &Composer{business: business}
}

// Compose projects o and inv into a View. It never mutates its inputs and
// accepts orders without line items.
func (c *Composer) Compose(o *order.Order, inv *order.Invoice) View {
	v := View{
		Business:  c.business,
		Number:    inv.Number,
		IssueDate: inv.IssueDate.Format(DateLayout),
		Customer: Customer{
			Name:  o.CustomerName,
			Phone: o.CustomerPhone,
			Notes: o.Notes,
		},
		Rows:    make([]Row, 0, len(o.Items)),
		Total:   o.Total,
		Paid:    o.AmountPaid,
		Balance: o.RemainingBalance,
		Status:  badge(o, inv),
	}
	for _, it := range o.Items {
		v.Rows = append(v.Rows, Row{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			LineTotal: it.Total,
		})
	}
	return v
}

func badge(o *order.Order, inv *order.Invoice) string {
	switch {
	case inv.Status == order.InvoicePaid || o.IsPaid():
		return BadgePaid
	case o.PaymentStatus == order.StatusPartiallyPaid:
		return BadgePartiallyPaid
	default:
		return BadgePending
	}
}
