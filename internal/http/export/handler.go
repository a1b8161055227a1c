package export

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/txflow/internal/export"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

type Handler struct {
	svc *export.Service
	now func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
}

// download streams a CSV of the transactions selected by the status,
// created_before (RFC 3339) and limit query parameters.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer

	n, err := h.svc.Export(r.Context(), &buf, filter)
	if err != nil {
		slog.Error("export failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(filter, h.now())+`"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

func parseFilter(r *http.Request) (transaction.ListFilter, error) {
	var filter transaction.ListFilter

	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := transaction.ParseStatus(s)
		if err != nil {
			return filter, err
		}

		filter.Status = &status
	}

	if s := q.Get("created_before"); s != "" {
		before, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, errors.New("invalid created_before, expected RFC 3339")
		}

		filter.CreatedBefore = &before
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit")
		}

		filter.Limit = limit
	}

	return filter, nil
}
