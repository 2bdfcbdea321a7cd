package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/cafe-orders/internal/domain/auth"
)

const (
	findStaffByEmailSQL = `SELECT id, email, name, password_hash, created_at
		FROM staff WHERE email = $1`

	upsertStaffSQL = `INSERT INTO staff (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash`
)

var _ auth.Repository = (*StaffRepository)(nil)

// StaffRepository provides staff account lookups backed by PostgreSQL.
type StaffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository returns a StaffRepository that uses the given pool.
func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

// FindByEmail looks up a staff account by its normalized email.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*auth.Staff, error) {
	var st auth.Staff
	err := r.pool.QueryRow(ctx, findStaffByEmailSQL, email).Scan(
		&st.ID, &st.Email, &st.Name, &st.PasswordHash, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("finding staff by email: %w", err)
	}
	return &st, nil
}

// CreateStaff inserts a staff account. Seeding the same email twice replaces
// its name and password.
func (r *StaffRepository) CreateStaff(ctx context.Context, s *auth.Staff) error {
	if _, err := r.pool.Exec(ctx, upsertStaffSQL, s.ID, s.Email, s.Name, s.PasswordHash, s.CreatedAt); err != nil {
		return fmt.Errorf("creating staff %q: %w", s.Email, err)
	}
	return nil
}
