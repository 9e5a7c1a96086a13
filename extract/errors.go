package extract

import "errors"

var (
	// ErrUnsupportedType indicates a file type outside the supported set
	// (pdf, docx, doc, txt).
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtraction indicates the file could not be read or parsed.
	ErrExtraction = errors.New("text extraction failed")
)
