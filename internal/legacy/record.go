// Package legacy imports order history exported from the previous order
// desk backends as gzip-compressed JSON lines.
package legacy

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/cafe-orders/internal/domain/order"
)

// Record is one exported order.
type Record struct {
	ClientName    string
	ClientPhone   string
	Notes         string
	Items         []Item
	PaymentStatus order.PaymentStatus
	AmountPaid    decimal.Decimal
	CreatedAt     time.Time
	InvoiceNumber string
}

// Item is one exported line item.
type Item struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// DecodeRecord parses a single JSON line. Unknown fields are ignored.
func DecodeRecord(line []byte) (Record, error) {
	var r Record
	err := jx.DecodeBytes(line).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "client_name", "customer_name":
			r.ClientName, err = decodeString(d)
		case "client_phone", "customer_phone":
			r.ClientPhone, err = decodeString(d)
		case "notes":
			r.Notes, err = decodeString(d)
		case "invoice_number":
			r.InvoiceNumber, err = decodeString(d)
		case "payment_status":
			var s string
			s, err = decodeString(d)
			r.PaymentStatus = parseStatus(s)
		case "amount_paid":
			r.AmountPaid, err = decodeDecimal(d)
		case "created_at":
			r.CreatedAt, err = decodeTime(d)
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				if err != nil {
					return err
				}
				r.Items = append(r.Items, it)
				return nil
			})
		default:
			err = d.Skip()
		}
		return wrapField(err, key)
	})
	if err != nil {
		return Record{}, err
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = order.StatusNotPaid
	}
	return r, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "item_name", "name":
			it.Name, err = decodeString(d)
		case "quantity":
			var q decimal.Decimal
			q, err = decodeDecimal(d)
			it.Quantity = int(q.IntPart())
		case "price":
			it.Price, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return wrapField(err, key)
	})
	return it, err
}

func wrapField(err error, key string) error {
	if err != nil {
		return errors.Wrapf(err, "field %q", key)
	}
	return nil
}

func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeDecimal accepts numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		if strings.TrimSpace(s) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	}
}

// decodeTime accepts RFC 3339 strings and epoch milliseconds.
func decodeTime(d *jx.Decoder) (time.Time, error) {
	switch d.Next() {
	case jx.Null:
		return time.Time{}, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	default:
		ms, err := d.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms), nil
	}
}

func parseStatus(s string) order.PaymentStatus {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", " ") {
	case "paid":
		return order.StatusPaid
	case "partially paid", "partial":
		return order.StatusPartiallyPaid
	}
	return order.StatusNotPaid
}
