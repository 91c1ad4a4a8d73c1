// Package pdf normalises PDF documents. Native text is extracted
// locally; documents without a text layer are routed to the document
// analysis service.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ExtractFunc pulls the text layer out of a PDF, one string per page.
// Pages without text must still be present as empty strings so page
// numbering is preserved.
type ExtractFunc func(data []byte) ([]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	analysis driven.DocumentAnalysisService
	extract  ExtractFunc
}

// Option configures the PDF normaliser.
type Option func(*Normaliser)

// WithExtractor replaces the native text extractor.
func WithExtractor(fn ExtractFunc) Option {
	return func(n *Normaliser) {
		if fn != nil {
			n.extract = fn
		}
	}
}

// New creates a PDF normaliser. The analysis service may be nil, in
// which case image-based PDFs are rejected.
func New(analysis driven.DocumentAnalysisService, opts ...Option) *Normaliser {
	n := &Normaliser{
		analysis: analysis,
		extract:  extractPages,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.SourceFormat {
	return domain.FormatPDF
}

// Normalise tries the native text layer first. A PDF whose first page
// yields no text is treated as image-based and sent to the analysis
// service instead. Pages keep their original numbers even when empty
// pages are dropped.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.CanonicalText, error) {
	pages, err := n.extract(raw.Content)
	if err == nil && len(pages) > 0 && strings.TrimSpace(pages[0]) != "" {
		ct, err := nativeText(pages)
		if err != nil {
			return nil, err
		}
		ct.Title = domain.TitleFromPath(raw.URI)
		return ct, nil
	}

	ct, err := n.analyse(ctx, raw.Content)
	if err != nil {
		return nil, err
	}
	ct.Title = domain.TitleFromPath(raw.URI)
	return ct, nil
}

// nativeText builds one section per non-empty page.
func nativeText(pages []string) (*domain.CanonicalText, error) {
	var sections []domain.Section
	for i, page := range pages {
		text := strings.TrimSpace(page)
		if text == "" {
			continue
		}
		num := i + 1
		sections = append(sections, domain.Section{
			Kind:        domain.KindPage,
			Sequence:    num,
			HeadingPath: []string{fmt.Sprintf("Page %d", num)},
			RawText:     text,
		})
	}
	if len(sections) == 0 {
		return nil, domain.ErrCorruptDocument
	}
	return &domain.CanonicalText{
		Format:   domain.FormatPDFNative,
		Sections: sections,
	}, nil
}

// analyse sends the document through the analysis service.
func (n *Normaliser) analyse(ctx context.Context, content []byte) (*domain.CanonicalText, error) {
	if n.analysis == nil {
		return nil, fmt.Errorf("no document analysis service configured: %w", domain.ErrCollaboratorUnavailable)
	}

	pages, err := n.analysis.Analyze(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("analysing pdf: %w", err)
	}

	var sections []domain.Section
	for _, page := range pages {
		text := strings.TrimSpace(strings.Join(page.Lines, "\n"))
		if text == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Kind:        domain.KindPage,
			Sequence:    page.Number,
			HeadingPath: []string{fmt.Sprintf("Page %d", page.Number)},
			RawText:     text,
		})
	}
	if len(sections) == 0 {
		return nil, domain.ErrCorruptDocument
	}

	return &domain.CanonicalText{
		Format:   domain.FormatPDFImage,
		Sections: sections,
	}, nil
}

// extractPages reads the text layer with the pdf library. The reader
// can panic on malformed input, so failures are recovered and reported
// as errors, which routes the document to the analysis path.
func extractPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf text extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}
