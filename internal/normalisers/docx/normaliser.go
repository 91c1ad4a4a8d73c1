// Package docx normalises Word documents. It reads the OOXML package
// directly and splits the body into sections along Heading styles.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Word documents.
type Normaliser struct{}

// New creates a new Word normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.SourceFormat {
	return domain.FormatWord
}

var headingStyle = regexp.MustCompile(`^[Hh]eading([1-9])$`)

// Normalise walks word/document.xml at body level. Paragraphs styled
// Heading1..Heading9 start a new section; the heading path keeps the
// document title at its root and one entry per open heading level.
// Tables are flattened into pipe-delimited rows.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.CanonicalText, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("opening docx package: %w", domain.ErrCorruptDocument)
	}

	title := coreTitle(archive)
	if title == "" {
		title = domain.TitleFromPath(raw.URI)
	}

	body, err := readZipFile(archive, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("docx has no document part: %w", domain.ErrCorruptDocument)
	}

	sections, err := splitBody(body, title)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, domain.ErrCorruptDocument
	}

	return &domain.CanonicalText{
		Format:   domain.FormatWord,
		Title:    title,
		Sections: sections,
	}, nil
}

// splitBody walks the document body and groups paragraphs between
// heading paragraphs into sections.
func splitBody(body []byte, title string) ([]domain.Section, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var (
		sections []domain.Section
		current  []string
		path     = []string{title}
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if text == "" {
			return
		}
		sections = append(sections, domain.Section{
			Kind:        domain.KindSection,
			Sequence:    len(sections) + 1,
			HeadingPath: append([]string(nil), path...),
			RawText:     text,
		})
	}

	depth := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing docx body: %w", domain.ErrCorruptDocument)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			// Only consume direct children of w:body; nested
			// paragraphs inside tables are handled by collectTable.
			if depth != 3 {
				continue
			}
			switch el.Name.Local {
			case "p":
				style, text, err := collectParagraph(decoder)
				if err != nil {
					return nil, err
				}
				depth--
				if m := headingStyle.FindStringSubmatch(style); m != nil {
					flush()
					level, _ := strconv.Atoi(m[1])
					if level < len(path) {
						path = path[:level]
					}
					path = append(path, text)
					continue
				}
				if text != "" {
					current = append(current, text)
				}
			case "tbl":
				rows, err := collectTable(decoder)
				if err != nil {
					return nil, err
				}
				depth--
				current = append(current, rows...)
			}
		case xml.EndElement:
			depth--
		}
	}
	flush()

	return sections, nil
}

// collectParagraph consumes one w:p element, returning its style name
// and concatenated run text.
func collectParagraph(decoder *xml.Decoder) (style, text string, err error) {
	var (
		sb     strings.Builder
		inText bool
		depth  = 1
	)

	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return "", "", fmt.Errorf("parsing docx paragraph: %w", domain.ErrCorruptDocument)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch el.Name.Local {
			case "pStyle":
				for _, attr := range el.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
			if el.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}

	return style, strings.TrimSpace(sb.String()), nil
}

// collectTable consumes one w:tbl element, returning pipe-delimited
// rows with a separator after the header row.
func collectTable(decoder *xml.Decoder) ([]string, error) {
	var (
		rows    []string
		cells   []string
		cell    strings.Builder
		inText  bool
		inCell  bool
		depth   = 1
	)

	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing docx table: %w", domain.ErrCorruptDocument)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch el.Name.Local {
			case "tr":
				cells = cells[:0]
			case "tc":
				inCell = true
				cell.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			depth--
			switch el.Name.Local {
			case "t":
				inText = false
			case "tc":
				inCell = false
				cells = append(cells, strings.TrimSpace(cell.String()))
			case "tr":
				rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
				if len(rows) == 1 {
					sep := make([]string, len(cells))
					for i := range sep {
						sep[i] = "---"
					}
					rows = append(rows, "| "+strings.Join(sep, " | ")+" |")
				}
			}
		case xml.CharData:
			if inCell && inText {
				cell.Write(el)
			}
		}
	}

	return rows, nil
}

// coreTitle reads dc:title from the package metadata, if present.
func coreTitle(archive *zip.Reader) string {
	data, err := readZipFile(archive, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var props struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
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
