package menu

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service encapsulates catalog maintenance.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a catalog Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns every menu item ordered by name.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list menu items")
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return items, nil
}

// Get returns a single menu item.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get menu item %s", id)
	}
	return item, nil
}

// Add validates and stores a new menu item.
func (s *Service) Add(ctx context.Context, name string, price decimal.Decimal, category string) (*Item, error) {
	item := &Item{
		ID:        uuid.New().String(),
		CreatedAt: s.now(),
	}
	if err := apply(item, name, price, category); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, errors.Wrap(err, "create menu item")
	}
	return item, nil
}

// Update replaces the name, price and category of an existing item.
// Carts already holding the item keep their price snapshot.
func (s *Service) Update(ctx context.Context, id, name string, price decimal.Decimal, category string) (*Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(item, name, price, category); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "update menu item %s", id)
	}
	return item, nil
}

// Delete removes an item from the catalog. Saved orders are unaffected since
// they store item names and prices, not references.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "delete menu item %s", id)
	}
	return nil
}

func apply(item *Item, name string, price decimal.Decimal, category string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	item.Name = name
	item.Price = price
	item.Category = category
	return nil
}
