// Package memory implements the order desk repositories in process memory.
// State is lost on restart; it backs tests and the demo backend.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
)

var (
	_ order.Repository = (*Store)(nil)
	_ menu.Repository  = (*MenuStore)(nil)
	_ auth.Repository  = (*StaffStore)(nil)
)

// Store keeps orders and their invoices. All methods are safe for
// concurrent use and hand out copies.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]*order.Order
	invoices map[string]string // invoice number -> order id
}

// NewStore returns an empty order Store.
func NewStore() *Store {
	return &Store{
		orders:   make(map[string]*order.Order),
		invoices: make(map[string]string),
	}
}

// List returns every order, newest first.
func (s *Store) List(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o.Clone())
	}
	slices.SortFunc(out, func(a, b order.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Get returns a copy of a single order.
func (s *Store) Get(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

// Create stores the order and its invoice together.
func (s *Store) Create(_ context.Context, o *order.Order, inv *order.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return &conflictError{what: "order", key: o.ID}
	}
	if _, ok := s.invoices[inv.Number]; ok {
		return &conflictError{what: "invoice", key: inv.Number}
	}
	c := o.Clone()
	i := *inv
	c.Invoice = &i
	s.orders[o.ID] = c
	s.invoices[inv.Number] = o.ID
	return nil
}

// Update replaces the editable fields and items of an order.
func (s *Store) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	c := o.Clone()
	c.CreatedAt = cur.CreatedAt
	c.CreatedBy = cur.CreatedBy
	c.PaymentStatus = cur.PaymentStatus
	c.Invoice = nil
	if cur.Invoice != nil {
		inv := *cur.Invoice
		c.Invoice = &inv
	}
	c.Recompute()
	s.orders[o.ID] = c
	return nil
}

// SetPaymentStatus writes the payment fields and the linked invoice status.
func (s *Store) SetPaymentStatus(_ context.Context, id string, p order.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.PaymentStatus = p.Status
	o.AmountPaid = p.AmountPaid
	o.RemainingBalance = p.RemainingBalance
	o.UpdatedAt = p.UpdatedAt
	if o.Invoice != nil {
		o.Invoice.Status = order.InvoiceStatusFor(p.Status)
	}
	return nil
}

// InvoiceExists reports whether an invoice with the given number is stored.
func (s *Store) InvoiceExists(_ context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.invoices[number]
	return ok, nil
}

// MenuStore keeps the menu catalog.
type MenuStore struct {
	mu    sync.RWMutex
	items map[string]menu.Item
}

// NewMenuStore returns an empty MenuStore.
func NewMenuStore() *MenuStore {
	return &MenuStore{items: make(map[string]menu.Item)}
}

// List returns the catalog ordered by name.
func (s *MenuStore) List(_ context.Context) ([]menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]menu.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b menu.Item) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// Get returns a single menu item.
func (s *MenuStore) Get(_ context.Context, id string) (*menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &it, nil
}

// Create stores a new menu item.
func (s *MenuStore) Create(_ context.Context, it *menu.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; ok {
		return &conflictError{what: "menu item", key: it.ID}
	}
	s.items[it.ID] = *it
	return nil
}

// Update replaces an existing menu item.
func (s *MenuStore) Update(_ context.Context, it *menu.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; !ok {
		return menu.ErrNotFound
	}
	s.items[it.ID] = *it
	return nil
}

// Delete removes a menu item.
func (s *MenuStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return menu.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// StaffStore keeps staff accounts keyed by email.
type StaffStore struct {
	mu      sync.RWMutex
	byEmail map[string]auth.Staff
}

// NewStaffStore returns an empty StaffStore.
func NewStaffStore() *StaffStore {
	return &StaffStore{byEmail: make(map[string]auth.Staff)}
}

// FindByEmail looks up a staff account.
func (s *StaffStore) FindByEmail(_ context.Context, email string) (*auth.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &st, nil
}

// CreateStaff stores a staff account, replacing one with the same email.
func (s *StaffStore) CreateStaff(_ context.Context, st *auth.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byEmail[st.Email] = *st
	return nil
}

type conflictError struct {
	what string
	key  string
}

func (e *conflictError) Error() string {
	return e.what + " " + e.key + " already exists"
}

// Ping always succeeds; it lets the store stand in for a database in
// readiness checks.
func (s *Store) Ping(context.Context) error {
	return nil
}
