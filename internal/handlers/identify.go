package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/covermatch/internal/matching"
)

type identifyResponse struct {
	Success bool                  `json:"success"`
	Kind    matching.Kind         `json:"kind"`
	Book    *matching.Match       `json:"book,omitempty"`
	Unknown *matching.UnknownBook `json:"unknown,omitempty"`
}

// HandleIdentify identifies the book on an uploaded cover photo.
func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, _, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	res, err := h.service.Identify(r.Context(), data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, identifyResponse{
		Success: true,
		Kind:    res.Kind,
		Book:    res.Match,
		Unknown: res.Unknown,
	})
}
