package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/cafe-orders/internal/domain/cart"
	"github.com/xenking/cafe-orders/internal/domain/invoice"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
	"github.com/xenking/cafe-orders/internal/domain/report"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeBody reads the request body as a single JSON object, calling field
// for every key.
func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(body) > maxBodyBytes {
		return badRequest("request body too large")
	}
	if err := jx.DecodeBytes(body).Obj(field); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// decodeDecimal accepts JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}

func money(e *jx.Encoder, v decimal.Decimal) {
	e.Str(v.StringFixed(2))
}

func timestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.Format(time.RFC3339))
}

// lineRequest is one cart line in an order or quote request. It either
// names a menu item or carries a name and price snapshot.
type lineRequest struct {
	MenuItemID string
	Name       string
	Price      decimal.Decimal
	Quantity   int
}

func decodeLines(d *jx.Decoder) ([]lineRequest, error) {
	var lines []lineRequest
	err := d.Arr(func(d *jx.Decoder) error {
		l := lineRequest{Quantity: 1}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "menu_item_id":
				l.MenuItemID, err = d.Str()
			case "name":
				l.Name, err = d.Str()
			case "price":
				l.Price, err = decodeDecimal(d)
			case "quantity":
				l.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		lines = append(lines, l)
		return nil
	})
	return lines, err
}

func encodeLineItems(e *jx.Encoder, items []order.LineItem) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("price")
		money(e, it.Price)
		e.FieldStart("total")
		money(e, it.Total)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range c.Lines() {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("price")
		money(e, l.Price)
		e.FieldStart("total")
		money(e, l.Total())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	money(e, c.Total())
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("customer_name")
	e.Str(o.CustomerName)
	e.FieldStart("customer_phone")
	e.Str(o.CustomerPhone)
	e.FieldStart("notes")
	e.Str(o.Notes)
	e.FieldStart("items")
	encodeLineItems(e, o.Items)
	e.FieldStart("total_amount")
	money(e, o.Total)
	e.FieldStart("payment_status")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("amount_paid")
	money(e, o.AmountPaid)
	e.FieldStart("remaining_balance")
	money(e, o.RemainingBalance)
	e.FieldStart("created_by")
	e.Str(o.CreatedBy)
	e.FieldStart("created_at")
	timestamp(e, o.CreatedAt)
	e.FieldStart("updated_at")
	timestamp(e, o.UpdatedAt)
	e.FieldStart("invoice")
	if inv := o.Invoice; inv != nil {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(inv.ID)
		e.FieldStart("invoice_number")
		e.Str(inv.Number)
		e.FieldStart("total_amount")
		money(e, inv.Total)
		e.FieldStart("issue_date")
		e.Str(inv.IssueDate.Format(invoice.DateLayout))
		e.FieldStart("status")
		e.Str(string(inv.Status))
		e.ObjEnd()
	} else {
		e.Null()
	}
	e.ObjEnd()
}

func encodeMenuItem(e *jx.Encoder, it *menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("display_name")
	e.Str(it.DisplayName())
	e.FieldStart("price")
	money(e, it.Price)
	e.FieldStart("category")
	e.Str(it.Category)
	e.FieldStart("created_at")
	timestamp(e, it.CreatedAt)
	e.ObjEnd()
}

func encodeInvoiceView(e *jx.Encoder, v invoice.View) {
	e.ObjStart()
	e.FieldStart("business")
	e.Str(v.Business)
	e.FieldStart("invoice_number")
	e.Str(v.Number)
	e.FieldStart("issue_date")
	e.Str(v.IssueDate)
	e.FieldStart("customer")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(v.Customer.Name)
	e.FieldStart("phone")
	e.Str(v.Customer.Phone)
	e.FieldStart("notes")
	e.Str(v.Customer.Notes)
	e.ObjEnd()
	e.FieldStart("rows")
	e.ArrStart()
	for _, row := range v.Rows {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(row.Name)
		e.FieldStart("quantity")
		e.Int(row.Quantity)
		e.FieldStart("unit_price")
		money(e, row.UnitPrice)
		e.FieldStart("line_total")
		money(e, row.LineTotal)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	money(e, v.Total)
	e.FieldStart("paid")
	money(e, v.Paid)
	e.FieldStart("balance")
	money(e, v.Balance)
	e.FieldStart("status")
	e.Str(v.Status)
	e.ObjEnd()
}

func encodeTable(e *jx.Encoder, t *report.Table, fileName string) {
	e.ObjStart()
	e.FieldStart("empty")
	e.Bool(false)
	e.FieldStart("kind")
	e.Str(string(t.Kind))
	e.FieldStart("file_name")
	e.Str(fileName)
	e.FieldStart("header")
	encodeStrings(e, t.Header)
	e.FieldStart("rows")
	e.ArrStart()
	for _, row := range t.Rows {
		encodeStrings(e, row)
	}
	e.ArrEnd()
	e.FieldStart("count")
	e.Int(len(t.Rows))
	e.ObjEnd()
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}
