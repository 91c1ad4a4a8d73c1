// Package pptx normalises PowerPoint presentations. Every slide
// becomes one section, keyed by its slide number, with speaker notes
// appended to the slide text.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// NoTextPlaceholder stands in for slides without extractable text, so
// image-only slides still occupy their position in the index.
const NoTextPlaceholder = "[Slide may contain images or other non-text content]"

// Normaliser handles PowerPoint presentations.
type Normaliser struct{}

// New creates a new PowerPoint normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.SourceFormat {
	return domain.FormatPowerPoint
}

var slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// slideXML mirrors the slide markup down to its text runs. The same
// shape tree layout is used by notes slides.
type slideXML struct {
	CSld struct {
		SpTree struct {
			Shapes []shapeXML `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type shapeXML struct {
	NvSpPr struct {
		NvPr struct {
			Ph struct {
				Type string `xml:"type,attr"`
			} `xml:"ph"`
		} `xml:"nvPr"`
	} `xml:"nvSpPr"`
	TxBody struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"txBody"`
}

type relationshipsXML struct {
	Relationships []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// Normalise walks the slide parts in slide-number order. Slides whose
// shapes carry no text get a placeholder body, never dropped, so slide
// numbering in chunk ids always matches the deck.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.CanonicalText, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("opening pptx package: %w", domain.ErrCorruptDocument)
	}

	numbers := slideNumbers(archive)
	if len(numbers) == 0 {
		return nil, domain.ErrCorruptDocument
	}

	sections := make([]domain.Section, 0, len(numbers))
	for _, num := range numbers {
		data, err := readZipFile(archive, fmt.Sprintf("ppt/slides/slide%d.xml", num))
		if err != nil {
			return nil, fmt.Errorf("reading slide %d: %w", num, domain.ErrCorruptDocument)
		}

		var slide slideXML
		if err := xml.Unmarshal(data, &slide); err != nil {
			return nil, fmt.Errorf("parsing slide %d: %w", num, domain.ErrCorruptDocument)
		}

		title, body := slideText(slide)
		if body == "" {
			// A title-only slide keeps its title as the body so the
			// slide text stays searchable.
			body = title
			if body == "" {
				body = NoTextPlaceholder
			}
		}
		if notes := n.slideNotes(archive, num); notes != "" {
			body = body + "\n\nSpeaker notes:\n" + notes
		}

		heading := fmt.Sprintf("Slide %d", num)
		if title != "" {
			heading = fmt.Sprintf("Slide %d: %s", num, title)
		}

		sections = append(sections, domain.Section{
			Kind:        domain.KindSlide,
			Sequence:    num,
			HeadingPath: []string{heading},
			RawText:     body,
		})
	}

	return &domain.CanonicalText{
		Format:   domain.FormatPowerPoint,
		Title:    domain.TitleFromPath(raw.URI),
		Sections: sections,
	}, nil
}

// slideNumbers lists the deck's slide numbers in ascending order.
func slideNumbers(archive *zip.Reader) []int {
	var numbers []int
	for _, f := range archive.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbers = append(numbers, num)
	}
	sort.Ints(numbers)
	return numbers
}

// slideText splits a slide's shape text into its title placeholder and
// the remaining body text.
func slideText(slide slideXML) (title, body string) {
	var bodyParts []string
	for _, shape := range slide.CSld.SpTree.Shapes {
		text := shapeParagraphs(shape)
		if text == "" {
			continue
		}
		switch shape.NvSpPr.NvPr.Ph.Type {
		case "title", "ctrTitle":
			if title == "" {
				title = strings.ReplaceAll(text, "\n", " ")
				continue
			}
			bodyParts = append(bodyParts, text)
		default:
			bodyParts = append(bodyParts, text)
		}
	}
	return title, strings.Join(bodyParts, "\n")
}

func shapeParagraphs(shape shapeXML) string {
	var lines []string
	for _, para := range shape.TxBody.Paragraphs {
		var sb strings.Builder
		for _, run := range para.Runs {
			sb.WriteString(run.Text)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// slideNotes resolves the slide's notes part through its relationship
// file. Missing notes are not an error.
func (n *Normaliser) slideNotes(archive *zip.Reader, num int) string {
	data, err := readZipFile(archive, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num))
	if err != nil {
		return ""
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return ""
	}

	for _, rel := range rels.Relationships {
		if !strings.HasSuffix(rel.Type, "/notesSlide") {
			continue
		}
		target := path.Join("ppt/slides", rel.Target)
		notesData, err := readZipFile(archive, target)
		if err != nil {
			return ""
		}
		var notes slideXML
		if err := xml.Unmarshal(notesData, &notes); err != nil {
			return ""
		}
		var parts []string
		for _, shape := range notes.CSld.SpTree.Shapes {
			if shape.NvSpPr.NvPr.Ph.Type == "sldNum" {
				continue
			}
			if text := shapeParagraphs(shape); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func readZipFile(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
