package dataset

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// UnknownDir holds photos of books that are not in the catalogue.
const UnknownDir = "unknown"

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Write saves records as Parquet or JSONL depending on the extension of path.
func Write(path string, records []LabeledPhoto) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		if err := parquet.WriteFile(path, records); err != nil {
			return fmt.Errorf("failed to write parquet: %w", err)
		}
		return nil
	case ".jsonl", ".json":
		return writeJSONL(path, records)
	default:
		return fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", filepath.Ext(path))
	}
}

func writeJSONL(path string, records []LabeledPhoto) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return file.Close()
}

// ScanDir labels the photos in a directory tree laid out as
// <root>/<book_id>/<photo>, with uncatalogued books under <root>/unknown.
// Image paths are relative to root.
func ScanDir(root string) ([]LabeledPhoto, error) {
	var records []LabeledPhoto

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		label := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		if label == rel {
			return nil
		}

		var id int64
		if label != UnknownDir {
			id, err = strconv.ParseInt(label, 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("directory %q is not a book id or %q", label, UnknownDir)
			}
		}

		records = append(records, LabeledPhoto{ImagePath: rel, ExpectedBookID: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ImagePath < records[j].ImagePath
	})
	return records, nil
}

// DatasetPath places a dataset file name inside the photo directory so
// ScanDir's relative paths resolve against it.
func DatasetPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, filepath.Base(name))
}
