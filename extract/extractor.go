// Package extract turns uploaded files into plain text, preserving
// page boundaries where the format has them.
package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

// Page is the text of one page of a document. Formats without page
// structure (DOCX, TXT) yield a single page.
type Page struct {
	Number int
	Total  int
	Text   string
}

// Supported file types, by normalized extension.
const (
	TypePDF  = "pdf"
	TypeDOCX = "docx"
	TypeDOC  = "doc"
	TypeTXT  = "txt"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
)

// Extractor extracts plain text from files on disk.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor logging through the given logger,
// or slog.Default when nil.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// NormalizeType lowercases a file type and strips a leading dot.
func NormalizeType(fileType string) string {
	return strings.ToLower(strings.TrimPrefix(fileType, "."))
}

// TypeFromFilename derives the normalized file type from a filename's
// extension. Returns ErrUnsupportedType for anything outside the
// supported set.
func TypeFromFilename(filename string) (string, error) {
	fileType := NormalizeType(filepath.Ext(filename))
	if !IsSupported(fileType) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
	return fileType, nil
}

// IsSupported reports whether the normalized file type can be extracted.
func IsSupported(fileType string) bool {
	switch NormalizeType(fileType) {
	case TypePDF, TypeDOCX, TypeDOC, TypeTXT:
		return true
	default:
		return false
	}
}

// Extract reads the file at path and returns its text page by page.
func (e *Extractor) Extract(path, fileType string) ([]Page, error) {
	switch NormalizeType(fileType) {
	case TypePDF:
		return e.extractPDF(path)
	case TypeDOCX:
		return e.extractWord(path, mimeDOCX)
	case TypeDOC:
		return e.extractWord(path, mimeDOC)
	case TypeTXT:
		return e.extractText(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
}

func (e *Extractor) extractPDF(path string) ([]Page, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	defer file.Close()

	total := reader.NumPage()
	pages := make([]Page, 0, total)

	for number := 1; number <= total; number++ {
		page := reader.Page(number)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page should not sink the whole document.
			e.logger.Warn("failed to extract pdf page",
				"path", path, "page", number, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: number, Total: total, Text: text})
	}
	return pages, nil
}

func (e *Extractor) extractWord(path, mimeType string) ([]Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	defer file.Close()

	res, err := docconv.Convert(file, mimeType, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return nil, nil
	}
	return []Page{{Number: 1, Total: 1, Text: res.Body}}, nil
}

func (e *Extractor) extractText(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []Page{{Number: 1, Total: 1, Text: text}}, nil
}
