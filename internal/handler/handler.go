// Package handler exposes the order desk over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/invoice"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
	"github.com/xenking/cafe-orders/internal/domain/report"
	"github.com/xenking/cafe-orders/pkg/httpmiddleware"
)

// maxBodyBytes caps request bodies; an order with a few hundred lines fits easily.
const maxBodyBytes = 1 << 20

// Handler serves the JSON API, delegating to the domain services.
type Handler struct {
	menu     *menu.Service
	orders   *order.Service
	auth     *auth.Service
	invoices *invoice.Composer
	reports  *report.Exporter
	loc      *time.Location
}

// NewHandler constructs a Handler. Calendar dates in queries are read in loc.
func NewHandler(
	menuSvc *menu.Service,
	orderSvc *order.Service,
	authSvc *auth.Service,
	invoices *invoice.Composer,
	reports *report.Exporter,
	loc *time.Location,
) *Handler {
	return &Handler{
		menu:     menuSvc,
		orders:   orderSvc,
		auth:     authSvc,
		invoices: invoices,
		reports:  reports,
		loc:      loc,
	}
}

// Register mounts the API routes on r. loginLimits wrap the login endpoint only.
func (h *Handler) Register(r chi.Router, loginLimits ...func(http.Handler) http.Handler) {
	r.With(loginLimits...).Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Get("/auth/session", h.CurrentSession)

		r.Get("/menu", h.ListMenu)
		r.Post("/menu", h.CreateMenuItem)
		r.Put("/menu/{id}", h.UpdateMenuItem)
		r.Delete("/menu/{id}", h.DeleteMenuItem)

		r.Post("/cart/quote", h.QuoteCart)

		r.Get("/orders", h.ListOrders)
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.Put("/orders/{id}", h.UpdateOrder)
		r.Post("/orders/{id}/pay", h.MarkPaid)
		r.Get("/orders/{id}/invoice", h.GetInvoice)

		r.Get("/reports/export", h.ExportReport)
		r.Get("/reports/preview", h.PreviewReport)
	})
}

type sessionKey struct{}

// SessionFromContext returns the session resolved by Authenticate.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(auth.Session)
	return s, ok
}

// Authenticate resolves the bearer token into a session once per request.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, err := h.auth.Verify(strings.TrimSpace(token))
		if err != nil {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = zctx.With(ctx, zap.String("staff_id", sess.StaffID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func session(r *http.Request) auth.Session {
	s, _ := SessionFromContext(r.Context())
	return s
}
