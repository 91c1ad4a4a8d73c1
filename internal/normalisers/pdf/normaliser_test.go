package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

type mockAnalysis struct {
	pages  []driven.AnalyzedPage
	err    error
	called bool
}

func (m *mockAnalysis) Analyze(_ context.Context, _ []byte) ([]driven.AnalyzedPage, error) {
	m.called = true
	return m.pages, m.err
}

func (m *mockAnalysis) Close() error { return nil }

func staticExtractor(pages []string, err error) ExtractFunc {
	return func(_ []byte) ([]string, error) {
		return pages, err
	}
}

func TestNormalise_NativeTextLayer(t *testing.T) {
	analysis := &mockAnalysis{}
	n := New(analysis, WithExtractor(staticExtractor([]string{"Page one text", "", "Page three text"}, nil)))

	ct, err := n.Normalise(context.Background(), &domain.RawDocument{
		URI:     "docs/annual_report.pdf",
		Content: []byte("%PDF-1.7"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ct.Format != domain.FormatPDFNative {
		t.Errorf("expected pdf-native format, got %s", ct.Format)
	}
	if ct.Title != "annual report" {
		t.Errorf("expected title from file name, got %q", ct.Title)
	}
	if analysis.called {
		t.Error("analysis service should not be called for native text")
	}

	if len(ct.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(ct.Sections))
	}
	if ct.Sections[0].Sequence != 1 || ct.Sections[1].Sequence != 3 {
		t.Errorf("expected page numbers preserved across the empty page, got %d and %d",
			ct.Sections[0].Sequence, ct.Sections[1].Sequence)
	}
	if ct.Sections[1].HeadingPath[0] != "Page 3" {
		t.Errorf("unexpected heading %q", ct.Sections[1].HeadingPath[0])
	}
	if ct.Sections[0].Kind != domain.KindPage {
		t.Errorf("expected page kind, got %s", ct.Sections[0].Kind)
	}
}

func TestNormalise_EmptyFirstPageRoutesToAnalysis(t *testing.T) {
	analysis := &mockAnalysis{
		pages: []driven.AnalyzedPage{
			{Number: 1, Lines: []string{"Scanned line one", "Scanned line two"}},
			{Number: 2, Lines: []string{"Second page"}},
		},
	}
	n := New(analysis, WithExtractor(staticExtractor([]string{"", "some later text"}, nil)))

	ct, err := n.Normalise(context.Background(), &domain.RawDocument{
		URI:     "scan.pdf",
		Content: []byte("%PDF-1.7"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !analysis.called {
		t.Fatal("expected analysis service to be called")
	}
	if ct.Format != domain.FormatPDFImage {
		t.Errorf("expected pdf-image format, got %s", ct.Format)
	}
	if len(ct.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(ct.Sections))
	}
	if ct.Sections[0].RawText != "Scanned line one\nScanned line two" {
		t.Errorf("unexpected section text %q", ct.Sections[0].RawText)
	}
}

func TestNormalise_ExtractionErrorRoutesToAnalysis(t *testing.T) {
	analysis := &mockAnalysis{
		pages: []driven.AnalyzedPage{{Number: 1, Lines: []string{"recovered"}}},
	}
	n := New(analysis, WithExtractor(staticExtractor(nil, errors.New("malformed xref"))))

	ct, err := n.Normalise(context.Background(), &domain.RawDocument{
		URI:     "broken.pdf",
		Content: []byte("not a pdf"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct.Format != domain.FormatPDFImage {
		t.Errorf("expected pdf-image format, got %s", ct.Format)
	}
}

func TestNormalise_NoAnalysisService(t *testing.T) {
	n := New(nil, WithExtractor(staticExtractor([]string{""}, nil)))

	_, err := n.Normalise(context.Background(), &domain.RawDocument{
		URI:     "scan.pdf",
		Content: []byte("%PDF-1.7"),
	})
	if !errors.Is(err, domain.ErrCollaboratorUnavailable) {
		t.Errorf("expected ErrCollaboratorUnavailable, got %v", err)
	}
}

func TestNormalise_AnalysisFailure(t *testing.T) {
	analysis := &mockAnalysis{err: errors.New("service down")}
	n := New(analysis, WithExtractor(staticExtractor(nil, errors.New("no text layer"))))

	_, err := n.Normalise(context.Background(), &domain.RawDocument{
		URI:     "scan.pdf",
		Content: []byte("%PDF-1.7"),
	})
	if err == nil {
		t.Fatal("expected error when analysis fails")
	}
}

func TestNormalise_AnalysisReturnsNoText(t *testing.T) {
	analysis := &mockAnalysis{
		pages: []driven.AnalyzedPage{{Number: 1, Lines: []string{"  "}}},
	}
	n := New(analysis, WithExtractor(staticExtractor(nil, errors.New("no text layer"))))

	_, err := n.Normalise(context.Background(), &domain.RawDocument{
		URI:     "blank.pdf",
		Content: []byte("%PDF-1.7"),
	})
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestExtractPages_MalformedInput(t *testing.T) {
	_, err := extractPages([]byte("definitely not a pdf"))
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
}
