// Package order implements the order desk: saving orders together with their
// invoices, the payment state machine and the order list filters.
package order

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	StatusNotPaid       PaymentStatus = "Not Paid"
	StatusPartiallyPaid PaymentStatus = "Partially Paid"
	StatusPaid          PaymentStatus = "Paid"
)

// Valid reports whether s is one of the known payment states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusNotPaid, StatusPartiallyPaid, StatusPaid:
		return true
	}
	return false
}

// InvoiceStatus mirrors PaymentStatus collapsed to paid or not.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// InvoiceStatusFor returns the invoice state matching a payment state.
func InvoiceStatusFor(s PaymentStatus) InvoiceStatus {
	if s == StatusPaid {
		return InvoicePaid
	}
	return InvoicePending
}

// invoicePrefix starts every invoice number.
const invoicePrefix = "INV-"

// InvoiceNumber mints the invoice number for an order created at t.
func InvoiceNumber(t time.Time) string {
	return invoicePrefix + strconv.FormatInt(t.UnixMilli(), 10)
}

// LineItem is one (item, quantity, unit price) tuple within an order.
type LineItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Total    decimal.Decimal
}

// NewLineItem builds a LineItem with its total computed.
func NewLineItem(name string, quantity int, price decimal.Decimal) LineItem {
	return LineItem{
		Name:     name,
		Quantity: quantity,
		Price:    price,
		Total:    price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Order is the persisted shape of a customer transaction.
type Order struct {
	ID               string
	CustomerName     string
	CustomerPhone    string
	Notes            string
	Items            []LineItem
	Total            decimal.Decimal
	PaymentStatus    PaymentStatus
	AmountPaid       decimal.Decimal
	RemainingBalance decimal.Decimal
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Invoice is nil when the backend holds no invoice for the order.
	Invoice *Invoice
}

// Invoice is the billing document issued together with an order.
type Invoice struct {
	ID      string
	OrderID string
	Number  string
	Total   decimal.Decimal
	// IssueDate is a calendar date; only its year, month and day are meaningful.
	IssueDate time.Time
	Status    InvoiceStatus
}

// IsPaid reports whether the order is fully paid.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == StatusPaid
}

// InvoiceNumber returns the invoice number, or "" when there is no invoice.
func (o *Order) InvoiceNumber() string {
	if o.Invoice == nil {
		return ""
	}
	return o.Invoice.Number
}

// SetItems replaces the line items, recomputing every line total and the
// order totals.
func (o *Order) SetItems(items []LineItem) {
	o.Items = make([]LineItem, len(items))
	for i, it := range items {
		o.Items[i] = NewLineItem(it.Name, it.Quantity, it.Price)
	}
	o.Recompute()
}

// Recompute derives Total from the line items and RemainingBalance from
// Total and AmountPaid. A paid order always has AmountPaid equal to Total.
func (o *Order) Recompute() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Total)
	}
	o.Total = total
	if o.PaymentStatus == StatusPaid {
		o.AmountPaid = total
	}
	o.RemainingBalance = o.Total.Sub(o.AmountPaid)
	if o.Invoice != nil {
		o.Invoice.Total = total
		o.Invoice.Status = InvoiceStatusFor(o.PaymentStatus)
	}
}

// MarkPaid moves the order to Paid. Calling it on a paid order only
// refreshes the update timestamp.
func (o *Order) MarkPaid(now time.Time) {
	o.PaymentStatus = StatusPaid
	o.UpdatedAt = now
	o.Recompute()
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	if o.Invoice != nil {
		inv := *o.Invoice
		c.Invoice = &inv
	}
	return &c
}

// Payment is the set of fields written when the payment state changes.
type Payment struct {
	Status           PaymentStatus
	AmountPaid       decimal.Decimal
	RemainingBalance decimal.Decimal
	UpdatedAt        time.Time
}

// Repository is the persistence capability the order desk needs. Adapters
// must apply each call atomically.
type Repository interface {
	// List returns every order with its items and invoice.
	List(ctx context.Context) ([]Order, error)
	// Get returns a single order or ErrNotFound.
	Get(ctx context.Context, id string) (*Order, error)
	// Create inserts the order and its invoice together, or neither.
	Create(ctx context.Context, o *Order, inv *Invoice) error
	// Update replaces customer fields, line items and totals, and syncs the
	// invoice total. Returns ErrNotFound for unknown ids.
	Update(ctx context.Context, o *Order) error
	// SetPaymentStatus writes the payment fields and the linked invoice status.
	SetPaymentStatus(ctx context.Context, id string, p Payment) error
	// InvoiceExists reports whether an invoice with the given number is stored.
	InvoiceExists(ctx context.Context, number string) (bool, error)
}
