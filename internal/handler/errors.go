package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/cart"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
	"github.com/xenking/cafe-orders/pkg/httpmiddleware"
)

// requestError reports malformed input: bad JSON, unknown query values or
// an inverted date range.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// writeError maps domain errors onto HTTP statuses and the standard error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr       *requestError
		orderInvalid *order.ValidationError
		menuInvalid  *menu.ValidationError
		persistence  *order.PersistenceError
	)
	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &orderInvalid),
		errors.As(err, &menuInvalid),
		errors.Is(err, cart.ErrInvalidIndex):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, errInvoiceNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		httpmiddleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &persistence):
		// Already logged by the order service.
		httpmiddleware.WriteError(w, http.StatusServiceUnavailable, "storage is unavailable, please retry")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
