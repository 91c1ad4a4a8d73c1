package driven

import "context"

// AnalyzedPage is one page of structured text returned by the document
// analysis collaborator.
type AnalyzedPage struct {
	// Number is the 1-based page number.
	Number int

	// Lines are the recognised text lines in reading order.
	Lines []string
}

// DocumentAnalysisService performs OCR and layout analysis on documents
// with no extractable text (image-based PDFs). This is an optional
// service - when nil, image-based PDFs cannot be ingested.
type DocumentAnalysisService interface {
	// Analyze extracts per-page structured text from raw document bytes.
	// This is a long-running synchronous call; callers should bound it
	// with a context deadline.
	Analyze(ctx context.Context, content []byte) ([]AnalyzedPage, error)

	// Close releases resources.
	Close() error
}
