package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/covermatch/internal/cataloging"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/storage"
)

// DefaultUploadLimit is the maximum accepted image size.
const DefaultUploadLimit = 10 << 20

// ProviderInfo describes the embedding provider on the status endpoints.
type ProviderInfo struct {
	Name  string
	Model string
	// State reports the circuit breaker state. Optional.
	State func() string
}

type Handler struct {
	service     *cataloging.Service
	provider    ProviderInfo
	uploadLimit int64
	httpClient  *http.Client
}

func New(service *cataloging.Service, provider ProviderInfo, uploadLimit int64) *Handler {
	if uploadLimit <= 0 {
		uploadLimit = DefaultUploadLimit
	}
	return &Handler{
		service:     service,
		provider:    provider,
		uploadLimit: uploadLimit,
		httpClient:  &http.Client{},
	}
}

// Routes registers every API route on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/identify", h.HandleIdentify)
	mux.HandleFunc("/api/books", h.HandleBooks)
	mux.HandleFunc("/api/books/", h.HandleBookDetail)
	mux.HandleFunc("/api/image/", h.HandleImage)
	mux.HandleFunc("/api/report_incorrect_match", h.HandleReportIncorrectMatch)
	mux.HandleFunc("/api/health", h.HandleHealth)
	mux.HandleFunc("/api/status", h.HandleStatus)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeTypedError(w, message, "", code)
}

func (h *Handler) writeTypedError(w http.ResponseWriter, message, errorType string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "error_type", errorType, "status", code)
	} else {
		slog.Warn(message, "error_type", errorType, "status", code)
	}
	h.writeJSONStatus(w, code, errorResponse{Success: false, Error: message, ErrorType: errorType})
}

// writeServiceError maps an error from the service layer onto a status code.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matching.ErrInvalidImage):
		h.writeTypedError(w, err.Error(), "invalid_image", http.StatusBadRequest)
	case errors.Is(err, cataloging.ErrInvalidBook):
		h.writeTypedError(w, err.Error(), "invalid_book", http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		h.writeTypedError(w, "Book not found", "not_found", http.StatusNotFound)
	case errors.Is(err, matching.ErrProviderUnavailable):
		h.writeTypedError(w, err.Error(), "provider_unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, matching.ErrMetadataInconsistency):
		h.writeTypedError(w, err.Error(), "metadata_inconsistency", http.StatusInternalServerError)
	case errors.Is(err, matching.ErrDimensionMismatch):
		h.writeTypedError(w, err.Error(), "dimension_mismatch", http.StatusInternalServerError)
	default:
		h.writeTypedError(w, err.Error(), "internal", http.StatusInternalServerError)
	}
}
