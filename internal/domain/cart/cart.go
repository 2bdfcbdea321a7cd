// Package cart assembles order lines while an order is being composed.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
)

// ErrInvalidIndex is returned when a line index is out of range.
var ErrInvalidIndex = errors.New("cart line index out of range")

// Line is one selection in the cart. Lines are keyed by Name: adding an item
// whose name is already present increments that line.
type Line struct {
	Name     string
	Quantity int
	// Price is copied when the line is created and never follows the catalog.
	Price decimal.Decimal
}

// Total returns Quantity × Price.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the in-progress line collection of an order. The zero value is an
// empty cart ready to use. A Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// FromOrder seeds a cart with the lines of an existing order so it can be edited.
func FromOrder(o *order.Order) *Cart {
	c := New()
	for _, it := range o.Items {
		c.Restore(Line{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return c
}

// AddItem adds one unit of item. An existing line with the same name is
// incremented; otherwise a new line snapshots the item's current price.
func (c *Cart) AddItem(item menu.Item) {
	if i := c.index(item.Name); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Name: item.Name, Quantity: 1, Price: item.Price})
}

// Restore adds a previously snapshotted line. A line with the same name
// absorbs the quantity and keeps its own price. Non-positive quantities are ignored.
func (c *Cart) Restore(l Line) {
	if l.Quantity <= 0 {
		return
	}
	if i := c.index(l.Name); i >= 0 {
		c.lines[i].Quantity += l.Quantity
		return
	}
	c.lines = append(c.lines, l)
}

// ChangeQuantity adds delta to the quantity of line i. The line is removed
// when its quantity drops to zero or below.
func (c *Cart) ChangeQuantity(i, delta int) error {
	if err := c.check(i); err != nil {
		return err
	}
	q := c.lines[i].Quantity + delta
	if q <= 0 {
		c.remove(i)
		return nil
	}
	c.lines[i].Quantity = q
	return nil
}

// RemoveItem deletes line i.
func (c *Cart) RemoveItem(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.remove(i)
	return nil
}

// Total returns the sum of Quantity × Price over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// ToOrderItems materializes the lines as order line items with their totals.
func (c *Cart) ToOrderItems() []order.LineItem {
	items := make([]order.LineItem, len(c.lines))
	for i, l := range c.lines {
		items[i] = order.NewLineItem(l.Name, l.Quantity, l.Price)
	}
	return items
}

func (c *Cart) index(name string) int {
	for i, l := range c.lines {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func (c *Cart) check(i int) error {
	if i < 0 || i >= len(c.lines) {
		return errors.Wrap(ErrInvalidIndex, fmt.Sprintf("index %d, %d lines", i, len(c.lines)))
	}
	return nil
}

func (c *Cart) remove(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
