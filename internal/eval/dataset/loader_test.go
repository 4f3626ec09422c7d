package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func samplePhotos() []LabeledPhoto {
	return []LabeledPhoto{
		{ImagePath: "1/front.jpg", ExpectedBookID: 1, Note: "daylight"},
		{ImagePath: "1/tilted.jpg", ExpectedBookID: 1},
		{ImagePath: "unknown/stranger.png", ExpectedBookID: 0, Note: "not catalogued"},
	}
}

func TestNewLoader(t *testing.T) {
	path := "./testdata/photos.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
	if loader.Dir() != "testdata" {
		t.Errorf("Expected dir testdata, got %s", loader.Dir())
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".parquet", ".jsonl"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "photos"+ext)
			if err := Write(path, samplePhotos()); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			records, err := NewLoader(path).Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !reflect.DeepEqual(records, samplePhotos()) {
				t.Errorf("Expected %+v, got %+v", samplePhotos(), records)
			}

			sample, err := NewLoader(path).LoadSample(2)
			if err != nil {
				t.Fatalf("LoadSample failed: %v", err)
			}
			if len(sample) != 2 {
				t.Errorf("Expected 2 records, got %d", len(sample))
			}
		})
	}
}

func TestLoadJSONLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		want    int
	}{
		{"skips blanks and comments", "# photos\n\n{\"image_path\":\"a.jpg\",\"expected_book_id\":3}\n", false, 1},
		{"malformed line", "{\"image_path\":\n", true, 0},
		{"missing path", "{\"expected_book_id\":3}\n", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "photos.jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			records, err := NewLoader(path).Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %d records", len(records))
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("Expected %d records, got %d", tt.want, len(records))
			}
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("photos.csv").Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
	if err := Write(filepath.Join(t.TempDir(), "photos.csv"), samplePhotos()); err == nil {
		t.Error("Expected error writing unsupported format, got nil")
	}
}

func TestLabeledPhoto(t *testing.T) {
	tests := []struct {
		name        string
		photo       LabeledPhoto
		inCatalogue bool
		resolved    string
	}{
		{"relative", LabeledPhoto{ImagePath: "1/a.jpg", ExpectedBookID: 1}, true, filepath.Join("base", "1/a.jpg")},
		{"absolute", LabeledPhoto{ImagePath: "/photos/a.jpg", ExpectedBookID: 2}, true, "/photos/a.jpg"},
		{"unknown", LabeledPhoto{ImagePath: "u.jpg"}, false, filepath.Join("base", "u.jpg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.photo.InCatalogue() != tt.inCatalogue {
				t.Errorf("Expected InCatalogue %v, got %v", tt.inCatalogue, tt.photo.InCatalogue())
			}
			if got := tt.photo.ResolvePath("base"); got != tt.resolved {
				t.Errorf("Expected %s, got %s", tt.resolved, got)
			}
		})
	}
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"12/a.jpg", "12/b.PNG", "3/front.webp", "unknown/x.jpg", "12/notes.txt", "loose.jpg"} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	records, err := ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	expected := []LabeledPhoto{
		{ImagePath: "12/a.jpg", ExpectedBookID: 12},
		{ImagePath: "12/b.PNG", ExpectedBookID: 12},
		{ImagePath: "3/front.webp", ExpectedBookID: 3},
		{ImagePath: "unknown/x.jpg", ExpectedBookID: 0},
	}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("Expected %+v, got %+v", expected, records)
	}

	// a directory that is neither a book id nor unknown is rejected
	if err := os.MkdirAll(filepath.Join(root, "drafts"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "drafts", "d.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if _, err := ScanDir(root); err == nil {
		t.Error("Expected error for non-numeric directory, got nil")
	}
}
