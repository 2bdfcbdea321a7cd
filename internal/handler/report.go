package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/cafe-orders/internal/domain/report"
)

type reportQuery struct {
	kind       report.Kind
	start, end time.Time
}

func (h *Handler) parseReportQuery(r *http.Request) (reportQuery, error) {
	q := r.URL.Query()
	kind, err := report.ParseKind(q.Get("kind"))
	if err != nil {
		return reportQuery{}, badRequest("%v", err)
	}
	startRaw, endRaw := q.Get("start"), q.Get("end")
	if startRaw == "" || endRaw == "" {
		return reportQuery{}, badRequest("start and end dates are required")
	}
	start, err := time.ParseInLocation(report.DateLayout, startRaw, h.loc)
	if err != nil {
		return reportQuery{}, badRequest("invalid start date %q", startRaw)
	}
	end, err := time.ParseInLocation(report.DateLayout, endRaw, h.loc)
	if err != nil {
		return reportQuery{}, badRequest("invalid end date %q", endRaw)
	}
	if start.After(end) {
		return reportQuery{}, badRequest("start date is after end date")
	}
	return reportQuery{kind: kind, start: start, end: end}, nil
}

func (h *Handler) buildReport(r *http.Request) (*report.Table, reportQuery, error) {
	rq, err := h.parseReportQuery(r)
	if err != nil {
		return nil, rq, err
	}
	orders, err := h.orders.List(r.Context())
	if err != nil {
		return nil, rq, err
	}
	t, err := h.reports.Export(rq.kind, orders, rq.start, rq.end)
	return t, rq, err
}

// ExportReport streams the CSV export for a date range. An empty range
// yields 204 with no file.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	t, rq, err := h.buildReport(r)
	if errors.Is(err, report.ErrEmptyResult) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, t); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(rq.kind, rq.start, rq.end)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// PreviewReport returns the export rows as JSON.
func (h *Handler) PreviewReport(w http.ResponseWriter, r *http.Request) {
	t, rq, err := h.buildReport(r)
	if errors.Is(err, report.ErrEmptyResult) {
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("empty")
			e.Bool(true)
			e.FieldStart("message")
			e.Str(err.Error())
			e.ObjEnd()
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeTable(e, t, report.FileName(rq.kind, rq.start, rq.end))
	})
}
