package importcsv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/txflow/internal/importer"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc *importer.Service
}

func NewHandler(svc *importer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type createdResponse struct {
	ExternalID uuid.UUID       `json:"transaction_external_id"`
	Value      decimal.Decimal `json:"value"`
	Status     string          `json:"status"`
}

type failedResponse struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type importResponse struct {
	Imported     int               `json:"imported"`
	Transactions []createdResponse `json:"transactions"`
	Failed       []failedResponse  `json:"failed"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := h.svc.Import(r.Context(), file)
	if err != nil {
		// A nil result means the file itself could not be read.
		if res == nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("import stopped", "created", len(res.Created), "error", err)
		http.Error(w, fmt.Sprintf("import stopped after %d transactions: internal error", len(res.Created)),
			http.StatusInternalServerError)

		return
	}

	resp := importResponse{
		Imported:     len(res.Created),
		Transactions: make([]createdResponse, 0, len(res.Created)),
		Failed:       make([]failedResponse, 0, len(res.Failed)),
	}

	for _, tx := range res.Created {
		resp.Transactions = append(resp.Transactions, createdResponse{
			ExternalID: tx.ExternalID,
			Value:      tx.Value,
			Status:     tx.Status.String(),
		})
	}

	for _, f := range res.Failed {
		resp.Failed = append(resp.Failed, failedResponse{Line: f.Line, Error: f.Err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
