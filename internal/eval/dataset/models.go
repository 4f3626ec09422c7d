package dataset

import (
	"path/filepath"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// LabeledPhoto is one evaluation photo and the book it shows.
type LabeledPhoto struct {
	// ImagePath is absolute or relative to the dataset file.
	ImagePath string `json:"image_path" parquet:"image_path"`
	// ExpectedBookID is the catalogue ID of the pictured book, or 0 when the
	// book is not in the catalogue and the right answer is unknown.
	ExpectedBookID int64  `json:"expected_book_id" parquet:"expected_book_id"`
	Note           string `json:"note,omitempty" parquet:"note,optional"`
}

// InCatalogue reports whether the photo shows a registered book.
func (p LabeledPhoto) InCatalogue() bool {
	return p.ExpectedBookID > 0
}

// Expected returns the labeled book ID.
func (p LabeledPhoto) Expected() models.BookID {
	return models.BookID(p.ExpectedBookID)
}

// ResolvePath returns the image path relative to baseDir.
func (p LabeledPhoto) ResolvePath(baseDir string) string {
	if p.ImagePath == "" || filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(baseDir, p.ImagePath)
}
