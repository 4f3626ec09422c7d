package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// HandleBooks lists books (GET) or registers a new one (POST).
func (h *Handler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		books, err := h.service.Repository().ListBooks(r.Context())
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, map[string]any{
			"success": true,
			"count":   len(books),
			"books":   books,
		})
	case "POST":
		h.handleRegister(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	data, request, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	book, err := h.service.Register(r.Context(), models.NewBook{
		Title: request.Title,
		ISBN:  request.ISBN,
		URL:   request.URL,
	}, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Book registered",
		"book":    book,
	})
}

// HandleBookDetail returns (GET) or deletes (DELETE) /api/books/{id}.
func (h *Handler) HandleBookDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookIDFromPath(w, r, "/api/books/")
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		book, err := h.service.Repository().GetBook(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, map[string]any{"success": true, "book": book})
	case "DELETE":
		book, err := h.service.Delete(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, map[string]any{
			"success": true,
			"message": "Book deleted",
			"book":    book,
		})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleImage serves the cover of /api/image/{id}, or a placeholder.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := h.bookIDFromPath(w, r, "/api/image/")
	if !ok {
		return
	}

	data, contentType, err := h.service.Cover(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		h.writeError(w, "Unable to write image", http.StatusInternalServerError)
	}
}

func (h *Handler) bookIDFromPath(w http.ResponseWriter, r *http.Request, prefix string) (models.BookID, bool) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, "Invalid book id: "+raw, http.StatusBadRequest)
		return 0, false
	}
	return models.BookID(id), true
}
