package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/cafe-orders/internal/domain/menu"
)

const (
	listMenuItemsSQL = `SELECT id, name, price, category, created_at FROM menu_items ORDER BY lower(name)`

	getMenuItemSQL = `SELECT id, name, price, category, created_at FROM menu_items WHERE id = $1`

	insertMenuItemSQL = `INSERT INTO menu_items (id, name, price, category, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	updateMenuItemSQL = `UPDATE menu_items SET name = $2, price = $3, category = $4 WHERE id = $1`

	deleteMenuItemSQL = `DELETE FROM menu_items WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the whole catalog ordered by name.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Get returns a single menu item by its identifier.
func (r *MenuRepository) Get(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &it, nil
}

// Create inserts a new menu item.
func (r *MenuRepository) Create(ctx context.Context, it *menu.Item) error {
	if _, err := r.pool.Exec(ctx, insertMenuItemSQL, it.ID, it.Name, it.Price, it.Category, it.CreatedAt); err != nil {
		return fmt.Errorf("creating menu item %q: %w", it.Name, err)
	}
	return nil
}

// Update replaces the name, price and category of a menu item.
func (r *MenuRepository) Update(ctx context.Context, it *menu.Item) error {
	tag, err := r.pool.Exec(ctx, updateMenuItemSQL, it.ID, it.Name, it.Price, it.Category)
	if err != nil {
		return fmt.Errorf("updating menu item %q: %w", it.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// Delete removes a menu item.
func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteMenuItemSQL, id)
	if err != nil {
		return fmt.Errorf("deleting menu item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Category, &it.CreatedAt)
	return it, err
}
