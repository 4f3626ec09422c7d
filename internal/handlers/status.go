package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/metrics"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// HandleHealth reports database reachability and catalogue size.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	repo := h.service.Repository()
	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"provider":  h.provider.Name,
	}

	if err := repo.Ping(ctx); err != nil {
		response["status"] = "unhealthy"
		response["database"] = err.Error()
		h.writeJSONStatus(w, http.StatusServiceUnavailable, response)
		return
	}
	response["database"] = "connected"

	stats, err := repo.Stats(ctx)
	if err != nil {
		response["status"] = "unhealthy"
		response["database"] = err.Error()
		h.writeJSONStatus(w, http.StatusServiceUnavailable, response)
		return
	}
	response["book_count"] = stats.Books
	response["embedding_count"] = stats.Embeddings

	if h.provider.State != nil {
		response["provider_state"] = h.provider.State()
	}

	h.writeJSON(w, response)
}

// HandleStatus describes the matching model and its thresholds.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Engine().Config()

	response := map[string]any{
		"provider":           h.provider.Name,
		"model":              h.provider.Model,
		"dimension":          cfg.Dimension,
		"rotation_support":   true,
		"rotation_angles":    matching.RotationAngles,
		"parallel_rotations": cfg.ParallelRotations,
		"thresholds": map[string]matching.Thresholds{
			matching.Standard.String(): cfg.Standard,
			matching.Cartoon.String():  cfg.Cartoon,
		},
		"cartoon_variance_threshold": cfg.CartoonVarianceThreshold,
		"upload_limit_bytes":         h.uploadLimit,
	}
	if h.provider.State != nil {
		response["provider_state"] = h.provider.State()
	}

	h.writeJSON(w, response)
}

type incorrectMatchReport struct {
	BookID       models.BookID `json:"book_id"`
	UserFeedback string        `json:"user_feedback"`
}

// HandleReportIncorrectMatch records a user report that a match was wrong.
func (h *Handler) HandleReportIncorrectMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var report incorrectMatchReport
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&report); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	metrics.IncorrectMatchReports.Inc()
	slog.Warn("Incorrect match reported", "book_id", report.BookID, "feedback", report.UserFeedback)

	h.writeJSON(w, map[string]any{
		"success": true,
		"message": "Thank you for the feedback",
	})
}
