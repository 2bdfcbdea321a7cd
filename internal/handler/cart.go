package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/cafe-orders/internal/domain/cart"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
)

// buildCart turns requested lines into a cart. Lines naming a menu item take
// the catalog's current price; other lines are price snapshots, as sent back
// when editing an existing order.
func (h *Handler) buildCart(ctx context.Context, lines []lineRequest) (*cart.Cart, error) {
	c := cart.New()
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, &order.ValidationError{Field: "items", Reason: "quantity must be at least 1"}
		}
		if l.MenuItemID == "" {
			if l.Name == "" {
				return nil, badRequest("line %d: menu_item_id or name is required", i)
			}
			if l.Price.IsNegative() {
				return nil, &order.ValidationError{Field: "items", Reason: "price must not be negative"}
			}
			c.Restore(cart.Line{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
			continue
		}

		item, err := h.menu.Get(ctx, l.MenuItemID)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil, badRequest("line %d: unknown menu item %q", i, l.MenuItemID)
			}
			return nil, err
		}
		c.AddItem(*item)
		if l.Quantity > 1 {
			if err := c.ChangeQuantity(lineIndex(c, item.Name), l.Quantity-1); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func lineIndex(c *cart.Cart, name string) int {
	for i, l := range c.Lines() {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// QuoteCart prices a cart without saving anything.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	var lines []lineRequest
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		var err error
		lines, err = decodeLines(d)
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.buildCart(r.Context(), lines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}
