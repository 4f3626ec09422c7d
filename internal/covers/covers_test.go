package covers

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestSaveOpenRemove(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "covers"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data := []byte("\x89PNG\r\n\x1a\nrest-of-png")
	path, err := store.Save(42, data, "png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pattern := regexp.MustCompile(`^book_42_[0-9a-f]{8}\.png$`)
	if !pattern.MatchString(filepath.Base(path)) {
		t.Errorf("Expected file name to match %s, got %s", pattern, filepath.Base(path))
	}

	got, contentType, err := store.Open(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Expected stored bytes back")
	}
	if contentType != "image/png" {
		t.Errorf("Expected image/png, got %s", contentType)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected cover to be removed")
	}
	if err := store.Remove(path); err != nil {
		t.Errorf("Expected removing a missing cover to succeed, got %v", err)
	}
}

func TestStoreRejectsOutsidePaths(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, _, err := store.Open("/etc/passwd"); err == nil {
		t.Errorf("Expected error opening a path outside the store")
	}
	if err := store.Remove(filepath.Join(store.Dir(), "..", "x.jpg")); err == nil {
		t.Errorf("Expected error removing a path outside the store")
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"jpeg": ".jpg",
		"":     ".jpg",
		"png":  ".png",
		"webp": ".webp",
		"tiff": ".tif",
	}
	for format, expected := range tests {
		if got := Extension(format); got != expected {
			t.Errorf("Expected %s for %q, got %s", expected, format, got)
		}
	}
}

func TestPlaceholderSVG(t *testing.T) {
	svg := string(PlaceholderSVG(7, "The Very Hungry Caterpillar"))

	if !strings.Contains(svg, "The Very H...") {
		t.Errorf("Expected truncated title, got %s", svg)
	}
	if !strings.Contains(svg, "ID: 7") {
		t.Errorf("Expected book id, got %s", svg)
	}

	short := string(PlaceholderSVG(1, "<Emma>"))
	if !strings.Contains(short, "&lt;Emma&gt;") {
		t.Errorf("Expected escaped title, got %s", short)
	}
}
