package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

func buildDocx(t *testing.T, files map[string]string) []byte {
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

func paragraph(style, text string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	if style != "" {
		sb.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	sb.WriteString("<w:r><w:t>" + text + "</w:t></w:r></w:p>")
	return sb.String()
}

func document(body string) string {
	return `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
}

const coreProps = `<?xml version="1.0"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Quarterly Report</dc:title></cp:coreProperties>`

func TestNormalise_HeadingsSplitSections(t *testing.T) {
	body := paragraph("Heading1", "Overview") +
		paragraph("", "The overview text.") +
		paragraph("Heading2", "Revenue") +
		paragraph("", "Revenue grew.") +
		paragraph("Heading1", "Outlook") +
		paragraph("", "Things look fine.")

	content := buildDocx(t, map[string]string{
		"word/document.xml": document(body),
		"docProps/core.xml": coreProps,
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "reports/q3.docx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ct.Title != "Quarterly Report" {
		t.Errorf("expected title from core properties, got %q", ct.Title)
	}
	if len(ct.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(ct.Sections))
	}

	wantPaths := [][]string{
		{"Quarterly Report", "Overview"},
		{"Quarterly Report", "Overview", "Revenue"},
		{"Quarterly Report", "Outlook"},
	}
	for i, want := range wantPaths {
		got := ct.Sections[i].HeadingPath
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("section %d: expected path %v, got %v", i, want, got)
		}
	}

	if ct.Sections[1].RawText != "Revenue grew." {
		t.Errorf("unexpected section text %q", ct.Sections[1].RawText)
	}
	if ct.Sections[2].Sequence != 3 {
		t.Errorf("expected sequence 3, got %d", ct.Sections[2].Sequence)
	}
}

func TestNormalise_TableFlattenedToPipes(t *testing.T) {
	table := `<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Alpha</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc></w:tr>` +
		`</w:tbl>`
	body := paragraph("", "Before the table.") + table

	content := buildDocx(t, map[string]string{
		"word/document.xml": document(body),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "tables.docx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := ct.Sections[0].RawText
	for _, want := range []string{"| Name | Value |", "| --- | --- |", "| Alpha | 1 |"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in section text:\n%s", want, text)
		}
	}
}

func TestNormalise_TitleFallsBackToPath(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": document(paragraph("", "Body only.")),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "meeting_notes.docx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct.Title != "meeting notes" {
		t.Errorf("expected title from file name, got %q", ct.Title)
	}
	if len(ct.Sections[0].HeadingPath) != 1 || ct.Sections[0].HeadingPath[0] != "meeting notes" {
		t.Errorf("expected path rooted at the title, got %v", ct.Sections[0].HeadingPath)
	}
}

func TestNormalise_TabsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>left</w:t><w:tab/><w:t>right</w:t><w:br/><w:t>next</w:t></w:r></w:p>`
	content := buildDocx(t, map[string]string{
		"word/document.xml": document(body),
	})

	ct, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "layout.docx",
		Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct.Sections[0].RawText != "left\tright\nnext" {
		t.Errorf("unexpected text %q", ct.Sections[0].RawText)
	}
}

func TestNormalise_NotAZipArchive(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "broken.docx",
		Content: []byte("this is not a zip file"),
	})
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"docProps/core.xml": coreProps,
	})
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "empty.docx",
		Content: content,
	})
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestNormalise_NoTextContent(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": document(""),
	})
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "blank.docx",
		Content: content,
	})
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}
