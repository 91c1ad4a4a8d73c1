package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

func buildPptx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func shape(phType string, lines ...string) string {
	var sb strings.Builder
	sb.WriteString("<p:sp><p:nvSpPr><p:nvPr>")
	if phType != "" {
		sb.WriteString(fmt.Sprintf(`<p:ph type="%s"/>`, phType))
	}
	sb.WriteString("</p:nvPr></p:nvSpPr><p:txBody>")
	for _, line := range lines {
		sb.WriteString("<a:p><a:r><a:t>" + line + "</a:t></a:r></a:p>")
	}
	sb.WriteString("</p:txBody></p:sp>")
	return sb.String()
}

func slide(shapes ...string) string {
	return `<?xml version="1.0"?><p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>` +
		strings.Join(shapes, "") +
		`</p:spTree></p:cSld></p:sld>`
}

func TestNormalise_SlidesBecomeSections(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/slides/slide1.xml": slide(shape("title", "Welcome"), shape("", "First point", "Second point")),
		"ppt/slides/slide2.xml": slide(shape("", "Only body text")),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "decks/kickoff_deck.pptx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ct.Title != "kickoff deck" {
		t.Errorf("expected title from file name, got %q", ct.Title)
	}
	if len(ct.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(ct.Sections))
	}

	first := ct.Sections[0]
	if first.Kind != domain.KindSlide {
		t.Errorf("expected slide kind, got %s", first.Kind)
	}
	if first.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", first.Sequence)
	}
	if first.HeadingPath[0] != "Slide 1: Welcome" {
		t.Errorf("unexpected heading %q", first.HeadingPath[0])
	}
	if first.RawText != "First point\nSecond point" {
		t.Errorf("unexpected slide text %q", first.RawText)
	}

	if ct.Sections[1].HeadingPath[0] != "Slide 2" {
		t.Errorf("expected plain heading for untitled slide, got %q", ct.Sections[1].HeadingPath[0])
	}
}

func TestNormalise_SlideOrderFollowsNumbers(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/slides/slide10.xml": slide(shape("", "tenth")),
		"ppt/slides/slide2.xml":  slide(shape("", "second")),
		"ppt/slides/slide1.xml":  slide(shape("", "first")),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "deck.pptx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{1, 2, 10}
	for i, seq := range want {
		if ct.Sections[i].Sequence != seq {
			t.Errorf("section %d: expected sequence %d, got %d", i, seq, ct.Sections[i].Sequence)
		}
	}
}

func TestNormalise_EmptySlideGetsPlaceholder(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/slides/slide1.xml": slide(),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "deck.pptx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct.Sections[0].RawText != NoTextPlaceholder {
		t.Errorf("expected placeholder body, got %q", ct.Sections[0].RawText)
	}
}

func TestNormalise_TitleOnlySlideKeepsTitleText(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/slides/slide1.xml": slide(shape("title", "Roadmap 2026")),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "deck.pptx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sec := ct.Sections[0]
	if sec.RawText != "Roadmap 2026" {
		t.Errorf("expected title text as body, got %q", sec.RawText)
	}
	if sec.HeadingPath[0] != "Slide 1: Roadmap 2026" {
		t.Errorf("unexpected heading %q", sec.HeadingPath[0])
	}
}

func TestNormalise_SpeakerNotesAppended(t *testing.T) {
	rels := `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide1.xml"/></Relationships>`
	notes := slide(shape("body", "Remember to demo the search flow."), shape("sldNum", "1"))

	content := buildPptx(t, map[string]string{
		"ppt/slides/slide1.xml":            slide(shape("title", "Demo"), shape("", "Agenda")),
		"ppt/slides/_rels/slide1.xml.rels": rels,
		"ppt/notesSlides/notesSlide1.xml":  notes,
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "deck.pptx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := ct.Sections[0].RawText
	if !strings.Contains(text, "Speaker notes:\nRemember to demo the search flow.") {
		t.Errorf("expected speaker notes in section text:\n%s", text)
	}
	if strings.HasSuffix(text, "\n1") {
		t.Errorf("slide number placeholder should be skipped:\n%s", text)
	}
}

func TestNormalise_NoSlides(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/presentation.xml": "<p:presentation/>",
	})
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "deck.pptx",
		Content: content,
	})
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestNormalise_NotAZipArchive(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "deck.pptx",
		Content: []byte("plain text"),
	})
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}
