package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "cafe-orders"

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Service logs staff in and verifies their session tokens.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates an auth Service signing tokens with secret.
func NewService(repo Repository, secret []byte, ttl time.Duration) *Service {
	return &Service{
		repo:   repo,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Register creates a staff account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, name, password string) (*Staff, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	st := &Staff{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateStaff(ctx, st); err != nil {
		return nil, errors.Wrap(err, "create staff")
	}
	return st, nil
}

// Login checks the credentials and returns a signed token with its Session.
func (s *Service) Login(ctx context.Context, email, password string) (string, Session, error) {
	st, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", Session{}, ErrInvalidCredentials
		}
		return "", Session{}, errors.Wrap(err, "find staff")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)); err != nil {
		return "", Session{}, ErrInvalidCredentials
	}

	now := s.now()
	sess := Session{
		StaffID:   st.ID,
		Email:     st.Email,
		Name:      st.Name,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: sess.Email,
		Name:  sess.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sess.StaffID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Session{}, errors.Wrap(err, "sign token")
	}
	return signed, sess, nil
}

// Verify parses a token issued by Login and returns its Session.
func (s *Service) Verify(token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	return Session{
		StaffID:   c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
