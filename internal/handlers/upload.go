package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
)

var errTooLarge = errors.New("file too large")

// uploadRequest is the JSON form of an upload. The image is either inline
// base64 (a data URL prefix is accepted) or fetched from image_url.
type uploadRequest struct {
	Image    string `json:"image"`
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
	ISBN     string `json:"isbn"`
	URL      string `json:"url"`
}

// readUpload extracts the uploaded image and any book fields from a
// multipart form or a JSON body.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, uploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.uploadLimit)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return h.readJSONUpload(r)
	}
	return h.readFileUpload(r)
}

func (h *Handler) readJSONUpload(r *http.Request) ([]byte, uploadRequest, error) {
	var request uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, request, fmt.Errorf("invalid JSON: %w", err)
	}

	var data []byte
	switch {
	case request.Image != "":
		encoded := request.Image
		if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
			encoded = encoded[i+1:]
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, request, fmt.Errorf("image is not valid base64: %w", err)
		}
		data = decoded
	case request.ImageURL != "":
		downloaded, err := h.downloadImageFromURL(r, request.ImageURL)
		if err != nil {
			return nil, request, err
		}
		data = downloaded
	default:
		return nil, request, fmt.Errorf("image or image_url is required")
	}

	if int64(len(data)) > h.uploadLimit {
		return nil, request, errTooLarge
	}
	return data, request, nil
}

func (h *Handler) readFileUpload(r *http.Request) ([]byte, uploadRequest, error) {
	request := uploadRequest{
		Title: r.FormValue("title"),
		ISBN:  r.FormValue("isbn"),
		URL:   r.FormValue("url"),
	}

	file, header, err := formFile(r, "image", "file")
	if err != nil {
		return nil, request, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.uploadLimit+1))
	if err != nil {
		return nil, request, fmt.Errorf("failed to read file contents: %w", err)
	}
	if int64(len(fileData)) > h.uploadLimit {
		return nil, request, errTooLarge
	}

	if width, height, err := imageDimensions(fileData); err == nil {
		slog.Debug("Image uploaded", "filename", header.Filename, "bytes", len(fileData), "width", width, "height", height)
	}
	return fileData, request, nil
}

func formFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	var lastErr error
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError
	if errors.Is(err, errTooLarge) || errors.As(err, &maxBytes) {
		h.writeTypedError(w, fmt.Sprintf("File too large (max %dMB)", h.uploadLimit>>20), "too_large", http.StatusRequestEntityTooLarge)
		return
	}
	h.writeTypedError(w, err.Error(), "bad_request", http.StatusBadRequest)
}
