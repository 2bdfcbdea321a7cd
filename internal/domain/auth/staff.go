// Package auth authenticates staff members and issues session tokens.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair does not match a staff account.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a session token is malformed, forged or expired.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrNotFound is returned by repositories when no staff account matches.
	ErrNotFound = errors.New("staff not found")
)

// Staff is a person allowed to operate the order desk.
type Staff struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Session identifies the staff member on whose behalf an operation runs.
// It is passed explicitly to every mutating operation.
type Session struct {
	StaffID   string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Repository provides lookup and creation of staff accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Staff, error)
	CreateStaff(ctx context.Context, s *Staff) error
}
