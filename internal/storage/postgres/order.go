package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/cafe-orders/internal/domain/order"
)

const (
	selectOrderSQL = `SELECT o.id, o.customer_name, o.customer_phone, o.notes, o.total_amount,
		o.payment_status, o.amount_paid, o.remaining_balance, o.created_by, o.created_at, o.updated_at,
		i.id, i.invoice_number, i.total_amount, i.issue_date, i.status
		FROM orders o LEFT JOIN invoices i ON i.order_id = o.id`

	listOrdersSQL = selectOrderSQL + ` ORDER BY o.created_at DESC`

	getOrderSQL = selectOrderSQL + ` WHERE o.id = $1`

	listItemsSQL = `SELECT order_id, name, quantity, price, total
		FROM order_items ORDER BY order_id, position`

	getItemsSQL = `SELECT order_id, name, quantity, price, total
		FROM order_items WHERE order_id = $1 ORDER BY position`

	insertOrderSQL = `INSERT INTO orders (id, customer_name, customer_phone, notes, total_amount,
		payment_status, amount_paid, remaining_balance, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertItemSQL = `INSERT INTO order_items (order_id, position, name, quantity, price, total)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	insertInvoiceSQL = `INSERT INTO invoices (id, order_id, invoice_number, total_amount, issue_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateOrderSQL = `UPDATE orders SET customer_name = $2, customer_phone = $3, notes = $4,
		total_amount = $5, amount_paid = $6, remaining_balance = $7, updated_at = $8
		WHERE id = $1`

	updateInvoiceTotalSQL = `UPDATE invoices SET total_amount = $2, status = $3 WHERE order_id = $1`

	setPaymentSQL = `UPDATE orders SET payment_status = $2, amount_paid = $3,
		remaining_balance = $4, updated_at = $5
		WHERE id = $1`

	setInvoiceStatusSQL = `UPDATE invoices SET status = $2 WHERE order_id = $1`

	invoiceExistsSQL = `SELECT EXISTS (SELECT 1 FROM invoices WHERE invoice_number = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Orders,
// their line items and invoices live in separate tables; every mutation runs
// in a single transaction.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// readSnapshot runs fn in a read-only repeatable-read transaction so that
// orders and their items are read from the same snapshot.
func (r *OrderRepository) readSnapshot(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}

// List returns every order, newest first, with items and invoice attached.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	var (
		orders []order.Order
		items  []itemRow
	)
	err := r.readSnapshot(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, listOrdersSQL)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}
		if orders, err = pgx.CollectRows(rows, scanOrder); err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}

		rows, err = tx.Query(ctx, listItemsSQL)
		if err != nil {
			return fmt.Errorf("listing order items: %w", err)
		}
		if items, err = pgx.CollectRows(rows, scanItem); err != nil {
			return fmt.Errorf("listing order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string][]order.LineItem, len(orders))
	for _, it := range items {
		byOrder[it.orderID] = append(byOrder[it.orderID], it.LineItem)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

// Get returns a single order by its identifier.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.readSnapshot(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getOrderSQL, id)
		if err != nil {
			return fmt.Errorf("getting order %q: %w", id, err)
		}
		if o, err = pgx.CollectExactlyOneRow(rows, scanOrder); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return fmt.Errorf("getting order %q: %w", id, err)
		}

		rows, err = tx.Query(ctx, getItemsSQL, id)
		if err != nil {
			return fmt.Errorf("getting items of order %q: %w", id, err)
		}
		items, err := pgx.CollectRows(rows, scanItem)
		if err != nil {
			return fmt.Errorf("getting items of order %q: %w", id, err)
		}
		for _, it := range items {
			o.Items = append(o.Items, it.LineItem)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order, its line items and its invoice in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, inv *order.Invoice) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.CustomerName, o.CustomerPhone, o.Notes, o.Total,
			string(o.PaymentStatus), o.AmountPaid, o.RemainingBalance,
			o.CreatedBy, o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}
		if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertInvoiceSQL,
			inv.ID, inv.OrderID, inv.Number, inv.Total, inv.IssueDate, string(inv.Status),
		); err != nil {
			return fmt.Errorf("inserting invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Update replaces the customer fields and line items of an order and syncs
// its invoice total.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateOrderSQL,
			o.ID, o.CustomerName, o.CustomerPhone, o.Notes,
			o.Total, o.AmountPaid, o.RemainingBalance, o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("updating order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return order.ErrNotFound
		}
		if _, err := tx.Exec(ctx, deleteItemsSQL, o.ID); err != nil {
			return fmt.Errorf("deleting order items: %w", err)
		}
		if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, updateInvoiceTotalSQL,
			o.ID, o.Total, string(order.InvoiceStatusFor(o.PaymentStatus)),
		); err != nil {
			return fmt.Errorf("updating invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return order.ErrNotFound
		}
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	return nil
}

// SetPaymentStatus writes the payment fields of an order and the status of
// its invoice.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id string, p order.Payment) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, setPaymentSQL,
			id, string(p.Status), p.AmountPaid, p.RemainingBalance, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("updating payment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return order.ErrNotFound
		}
		if _, err := tx.Exec(ctx, setInvoiceStatusSQL, id, string(order.InvoiceStatusFor(p.Status))); err != nil {
			return fmt.Errorf("updating invoice status: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return order.ErrNotFound
		}
		return fmt.Errorf("setting payment status of order %q: %w", id, err)
	}
	return nil
}

// InvoiceExists reports whether an invoice with the given number is stored.
func (r *OrderRepository) InvoiceExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, invoiceExistsSQL, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking invoice %q: %w", number, err)
	}
	return exists, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []order.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(insertItemSQL, orderID, i, it.Name, it.Quantity, it.Price, it.Total)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting order items: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		status       string
		invID        *string
		invNumber    *string
		invTotal     decimal.NullDecimal
		invIssueDate *time.Time
		invStatus    *string
	)
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.CustomerPhone, &o.Notes, &o.Total,
		&status, &o.AmountPaid, &o.RemainingBalance, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		&invID, &invNumber, &invTotal, &invIssueDate, &invStatus,
	)
	if err != nil {
		return o, err
	}
	o.PaymentStatus = order.PaymentStatus(status)
	if invID != nil {
		o.Invoice = &order.Invoice{
			ID:      *invID,
			OrderID: o.ID,
			Number:  deref(invNumber),
			Total:   invTotal.Decimal,
			Status:  order.InvoiceStatus(deref(invStatus)),
		}
		if invIssueDate != nil {
			o.Invoice.IssueDate = *invIssueDate
		}
	}
	return o, nil
}

type itemRow struct {
	order.LineItem
	orderID string
}

func scanItem(row pgx.CollectableRow) (itemRow, error) {
	var (
		it       itemRow
		quantity int32
	)
	err := row.Scan(&it.orderID, &it.Name, &quantity, &it.Price, &it.Total)
	it.Quantity = int(quantity)
	return it, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
