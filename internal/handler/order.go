package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/cafe-orders/internal/domain/order"
)

var errInvoiceNotFound = errors.New("invoice not found for order")

func (h *Handler) decodeOrderRequest(r *http.Request) (order.Request, error) {
	var (
		req   order.Request
		lines []lineRequest
	)
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customer_name":
			req.CustomerName, err = d.Str()
		case "customer_phone":
			req.CustomerPhone, err = d.Str()
		case "notes":
			req.Notes, err = d.Str()
		case "items":
			lines, err = decodeLines(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return req, err
	}

	c, err := h.buildCart(r.Context(), lines)
	if err != nil {
		return req, err
	}
	req.Items = c.ToOrderItems()
	return req, nil
}

func parseFilter(r *http.Request) (order.FilterSpec, error) {
	q := r.URL.Query()
	var (
		spec order.FilterSpec
		err  error
	)
	if spec.Tab, err = order.ParseTab(q.Get("tab")); err != nil {
		return spec, badRequest("%v", err)
	}
	if spec.Window, err = order.ParseDateWindow(q.Get("window")); err != nil {
		return spec, badRequest("%v", err)
	}
	if spec.Sort, err = order.ParseSortOrder(q.Get("sort")); err != nil {
		return spec, badRequest("%v", err)
	}
	spec.Search = q.Get("q")
	if spec.Search == "" {
		spec.Search = q.Get("search")
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return spec, badRequest("month must be between 1 and 12")
		}
		spec.Month = m
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return spec, badRequest("invalid year %q", v)
		}
		spec.Year = y
	}
	return spec, nil
}

// ListOrders returns the orders of one tab, filtered and sorted by the
// query parameters.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	all, err := h.orders.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders := order.Filter(all, spec, h.orders.Now())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
		e.FieldStart("count")
		e.Int(len(orders))
		e.ObjEnd()
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOrderRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Create(r.Context(), session(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// UpdateOrder replaces the customer fields and lines of an order. Payment
// state and the invoice number are kept.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOrderRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Update(r.Context(), session(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.MarkPaid(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// GetInvoice returns the printable invoice of an order.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if o.Invoice == nil {
		writeError(w, r, errInvoiceNotFound)
		return
	}
	view := h.invoices.Compose(o, o.Invoice)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeInvoiceView(e, view)
	})
}
