package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/cafe-orders/internal/domain/menu"
)

type menuRequest struct {
	Name     string
	Price    decimal.Decimal
	Category string
	hasPrice bool
}

func decodeMenuRequest(r *http.Request) (menuRequest, error) {
	var req menuRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "price":
			req.Price, err = decodeDecimal(d)
			req.hasPrice = err == nil
		case "category":
			req.Category, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}
	if !req.hasPrice {
		return req, badRequest("price is required")
	}
	return req, nil
}

// ListMenu returns the catalog sorted by name plus the known categories.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for i := range items {
			encodeMenuItem(e, &items[i])
		}
		e.ArrEnd()
		e.FieldStart("categories")
		encodeStrings(e, menu.Categories)
		e.ObjEnd()
	})
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMenuRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.menu.Add(r.Context(), req.Name, req.Price, req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeMenuItem(e, item)
	})
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMenuRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.menu.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.Price, req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeMenuItem(e, item)
	})
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
