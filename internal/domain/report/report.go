// Package report exports order lists as tabular summaries and item details.
package report

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/cafe-orders/internal/domain/order"
)

// ErrEmptyResult is returned when no order falls inside the requested range.
// It is an empty state for the caller to present, not a failure.
var ErrEmptyResult = errors.New("no orders in the selected date range")

// DateLayout formats report dates and file name dates.
const DateLayout = "2006-01-02"

// NoItemsLabel stands in for the item name of an order without line items.
const NoItemsLabel = "NO ITEMS"

// Kind selects the export layout.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindDetailed Kind = "detailed"
)

// ParseKind parses an export kind; the empty string selects the summary.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case "", KindSummary:
		return KindSummary, nil
	case KindDetailed:
		return k, nil
	}
	return "", errors.Errorf("unknown export kind %q", s)
}

var (
	// SummaryHeader is the column row of a summary export.
	SummaryHeader = []string{"Date", "Invoice Number", "Customer", "Phone", "Items", "Total Amount", "Payment Status"}
	// DetailedHeader is the column row of an item detail export.
	DetailedHeader = []string{"Date", "Invoice Number", "Customer", "Item Name", "Quantity", "Unit Price", "Line Total", "Payment Status"}
)

// Table is a fixed-column export: a header row and data rows.
type Table struct {
	Kind   Kind
	Header []string
	Rows   [][]string
}

// Exporter builds report tables. Calendar days are evaluated in loc.
type Exporter struct {
	loc *time.Location
}

// NewExporter returns an Exporter evaluating dates in loc.
func NewExporter(loc *time.Location) *Exporter {
	return &Exporter{loc: loc}
}

// Export dispatches to Summary or Detailed.
func (e *Exporter) Export(kind Kind, orders []order.Order, start, end time.Time) (*Table, error) {
	if kind == KindDetailed {
		return e.Detailed(orders, start, end)
	}
	return e.Summary(orders, start, end)
}

// Summary emits one row per order created between the start and end calendar days, inclusive.
func (e *Exporter) Summary(orders []order.Order, start, end time.Time) (*Table, error) {
	selected, err := e.selectRange(orders, start, end)
	if err != nil {
		return nil, err
	}
	t := &Table{Kind: KindSummary, Header: SummaryHeader}
	for _, o := range selected {
		t.Rows = append(t.Rows, []string{
			e.date(o.CreatedAt),
			invoiceRef(&o),
			o.CustomerName,
			o.CustomerPhone,
			itemsSummary(o.Items),
			o.Total.StringFixed(2),
			string(o.PaymentStatus),
		})
	}
	return t, nil
}

// Detailed emits one row per line item of every order created between the
// start and end calendar days, inclusive. An order without items still gets
// a single NO ITEMS row.
func (e *Exporter) Detailed(orders []order.Order, start, end time.Time) (*Table, error) {
	selected, err := e.selectRange(orders, start, end)
	if err != nil {
		return nil, err
	}
	t := &Table{Kind: KindDetailed, Header: DetailedHeader}
	for _, o := range selected {
		date, ref := e.date(o.CreatedAt), invoiceRef(&o)
		if len(o.Items) == 0 {
			t.Rows = append(t.Rows, []string{
				date, ref, o.CustomerName, NoItemsLabel, "0", "0", "0", string(o.PaymentStatus),
			})
			continue
		}
		for _, it := range o.Items {
			t.Rows = append(t.Rows, []string{
				date,
				ref,
				o.CustomerName,
				it.Name,
				strconv.Itoa(it.Quantity),
				it.Price.StringFixed(2),
				it.Total.StringFixed(2),
				string(o.PaymentStatus),
			})
		}
	}
	return t, nil
}

// FileName returns the download name of an export, e.g. summary_2026-01-01_to_2026-01-31.csv.
func FileName(kind Kind, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_to_%s.csv", kind, start.Format(DateLayout), end.Format(DateLayout))
}

// selectRange keeps the orders created in [start's day, the day after end's
// day), oldest first.
func (e *Exporter) selectRange(orders []order.Order, start, end time.Time) ([]order.Order, error) {
	from := dayStart(start, e.loc)
	next := dayStart(end, e.loc).AddDate(0, 0, 1)

	var out []order.Order
	for _, o := range orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(next) {
			continue
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	slices.SortStableFunc(out, func(a, b order.Order) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (e *Exporter) date(t time.Time) string {
	return t.In(e.loc).Format(DateLayout)
}

func invoiceRef(o *order.Order) string {
	if n := o.InvoiceNumber(); n != "" {
		return n
	}
	return o.ID
}

func itemsSummary(items []order.LineItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s (%d)", it.Name, it.Quantity)
	}
	return strings.Join(parts, ", ")
}

// dayStart interprets t's calendar date in loc and returns its midnight.
func dayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
