package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/cafe-orders/internal/domain/auth"
)

// Login exchanges staff credentials for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if email == "" || password == "" {
		writeError(w, r, badRequest("email and password are required"))
		return
	}

	token, sess, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("token")
		e.Str(token)
		e.FieldStart("expires_at")
		timestamp(e, sess.ExpiresAt)
		e.FieldStart("staff")
		encodeSession(e, sess)
		e.ObjEnd()
	})
}

// CurrentSession returns the staff member behind the bearer token.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("staff")
		encodeSession(e, sess)
		e.FieldStart("expires_at")
		timestamp(e, sess.ExpiresAt)
		e.ObjEnd()
	})
}

func encodeSession(e *jx.Encoder, s auth.Session) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.StaffID)
	e.FieldStart("email")
	e.Str(s.Email)
	e.FieldStart("name")
	e.Str(s.Name)
	e.ObjEnd()
}
