package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/covermatch/internal/cataloging"
	"github.com/lehigh-university-libraries/covermatch/internal/covers"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
	"github.com/lehigh-university-libraries/covermatch/internal/storage"
)

// cornerEmbedder embeds an image as the color of its top-left pixel, so each
// rotation of a photo with distinct corners embeds differently.
type cornerEmbedder struct{}

func (cornerEmbedder) EmbedImage(_ context.Context, img image.Image) (models.Embedding, error) {
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	return models.Embedding{float32(r >> 8), float32(g >> 8), float32(bl >> 8)}, nil
}

func cornerPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngBytes(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestServer(t *testing.T) (*httptest.Server, *cataloging.Service) {
	t.Helper()
	repo := storage.NewMemoryStore()
	coverStore, err := covers.NewStore(filepath.Join(t.TempDir(), "covers"))
	require.NoError(t, err)

	engine := matching.NewEngine(matching.DefaultConfig().WithDimension(3), cornerEmbedder{}, repo, repo)
	svc := cataloging.NewService(engine, repo, coverStore)

	h := New(svc, ProviderInfo{Name: "test", Model: "mean-color", State: func() string { return "closed" }}, 1<<20)
	mux := http.NewServeMux()
	h.Routes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, svc
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterAndIdentifyOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	cover := cornerPNG(t)

	body, contentType := multipartBody(t, map[string]string{"title": "Red Book", "isbn": "123"}, cover)
	resp, err := http.Post(server.URL+"/api/books", contentType, body)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	registered := decodeBody(t, resp)
	book := registered["book"].(map[string]any)
	assert.Equal(t, "Red Book", book["title"])

	payload, err := json.Marshal(map[string]string{
		"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(cover),
	})
	require.NoError(t, err)
	resp, err = http.Post(server.URL+"/api/identify", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	identified := decodeBody(t, resp)
	assert.Equal(t, true, identified["success"])
	assert.Equal(t, "confirmed", identified["kind"])
	match := identified["book"].(map[string]any)
	assert.Equal(t, book["id"], match["id"])
	assert.Equal(t, 100.0, match["similarity_score"])
	assert.Equal(t, 0.0, match["rotation_angle"])
}

func TestIdentifyEmptyCatalogueIsUnknown(t *testing.T) {
	server, _ := newTestServer(t)
	body, contentType := multipartBody(t, nil, pngBytes(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}))

	resp, err := http.Post(server.URL+"/api/identify", contentType, body)
	require.NoError(t, err)
	out := decodeBody(t, resp)
	assert.Equal(t, "unknown", out["kind"])
	assert.NotNil(t, out["unknown"])
	assert.Nil(t, out["book"])
}

func TestIdentifyErrors(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
		wantType    string
	}{
		{"wrong method", "GET", "", "", http.StatusMethodNotAllowed, ""},
		{"bad json", "POST", "application/json", "{", http.StatusBadRequest, "bad_request"},
		{"missing image", "POST", "application/json", `{}`, http.StatusBadRequest, "bad_request"},
		{"bad base64", "POST", "application/json", `{"image":"***"}`, http.StatusBadRequest, "bad_request"},
		{"not an image", "POST", "application/json", `{"image":"` + base64.StdEncoding.EncodeToString([]byte("hello")) + `"}`, http.StatusBadRequest, "invalid_image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+"/api/identify", strings.NewReader(tt.body))
			require.NoError(t, err)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			out := decodeBody(t, resp)
			assert.Equal(t, false, out["success"])
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, out["error_type"])
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	server, _ := newTestServer(t)
	big := bytes.Repeat([]byte{0xff}, (1<<20)+10)
	body, contentType := multipartBody(t, nil, big)

	resp, err := http.Post(server.URL+"/api/identify", contentType, body)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	assert.Equal(t, "too_large", out["error_type"])
}

func TestRegisterRequiresTitleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	body, contentType := multipartBody(t, map[string]string{"title": "  "}, pngBytes(t, color.NRGBA{A: 255}))

	resp, err := http.Post(server.URL+"/api/books", contentType, body)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	assert.Equal(t, "invalid_book", out["error_type"])
}

func TestBookLifecycle(t *testing.T) {
	server, svc := newTestServer(t)
	ctx := context.Background()

	book, err := svc.Register(ctx, models.NewBook{Title: "Blue"}, pngBytes(t, color.NRGBA{B: 200, A: 255}))
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/api/books")
	require.NoError(t, err)
	list := decodeBody(t, resp)
	assert.Equal(t, 1.0, list["count"])

	resp, err = http.Get(server.URL + "/api/image/" + itoa(book.ID))
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	req, err := http.NewRequest("DELETE", server.URL+"/api/books/"+itoa(book.ID), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/books/" + itoa(book.ID))
	require.NoError(t, err)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/image/" + itoa(book.ID))
	require.NoError(t, err)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBookDetailRejectsBadID(t *testing.T) {
	server, _ := newTestServer(t)
	for _, path := range []string{"/api/books/abc", "/api/books/0", "/api/image/-3"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestHealthAndStatus(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	health := decodeBody(t, resp)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "test", health["provider"])
	assert.Equal(t, 0.0, health["book_count"])

	resp, err = http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	status := decodeBody(t, resp)
	assert.Equal(t, "mean-color", status["model"])
	assert.Equal(t, 3.0, status["dimension"])
	assert.Equal(t, []any{0.0, 90.0, 180.0, 270.0}, status["rotation_angles"])
	assert.Equal(t, "closed", status["provider_state"])
	thresholds := status["thresholds"].(map[string]any)
	assert.Contains(t, thresholds, "standard")
	assert.Contains(t, thresholds, "cartoon")
}

func TestReportIncorrectMatch(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/report_incorrect_match", "application/json",
		strings.NewReader(`{"book_id": 7, "user_feedback": "wrong edition"}`))
	require.NoError(t, err)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	assert.Equal(t, true, out["success"])

	resp, err = http.Post(server.URL+"/api/report_incorrect_match", "application/json", strings.NewReader("nope"))
	require.NoError(t, err)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func itoa(id models.BookID) string {
	return strconv.FormatInt(int64(id), 10)
}
