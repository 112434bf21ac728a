// Package loader extracts raw text from uploaded documents.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// Page is the extracted text of a single document page.
type Page struct {
	Number int // 1-based
	Text   string
}

// SupportedExt reports whether the filename carries an ingestable extension.
// Only PDF for now.
func SupportedExt(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// LoadPDF extracts plain text per page, in reading order. Pages that yield
// no text (scanned images, drawings, broken content streams) come back
// empty rather than failing the whole document.
func LoadPDF(path string) ([]Page, error) {
	if !SupportedExt(path) {
		return nil, fmt.Errorf("%s: %w", filepath.Ext(path), domain.ErrUnsupportedFileType)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, Page{Number: i, Text: pageText(reader.Page(i))})
	}

	return pages, nil
}

// pageText extracts what it can from a single page. Null pages and
// extraction failures yield empty text.
func pageText(page pdf.Page) string {
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
