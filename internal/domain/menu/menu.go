// Package menu holds the catalog of purchasable items.
package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to items created without a category.
const DefaultCategory = "General"

// Categories lists the category labels offered when composing the menu.
// Any other free-text label is accepted as well.
var Categories = []string{"General", "Specials", "Kettle", "Beverages", "Dessert", "Add-ons"}

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// ValidationError describes a rejected menu item field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid menu item %s: %s", e.Field, e.Reason)
}

// Item is a purchasable catalog entry.
type Item struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Category  string
	CreatedAt time.Time
}

// DisplayName returns the name the way it is shown on menus and receipts.
func (i Item) DisplayName() string {
	return strings.ToUpper(i.Name)
}

// Repository defines persistence operations for the menu catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}
