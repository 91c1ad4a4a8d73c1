// Package markdown normalises Markdown documents by splitting them
// into sections along their top-level headings.
package markdown

import (
	"context"
	"strings"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.SourceFormat {
	return domain.FormatMarkdown
}

// Normalise splits the markdown text into one section per H1/H2
// heading. Text before the first heading becomes a preamble section
// with an empty heading path. Fenced code blocks are kept intact, so a
// `# comment` inside a code fence never starts a new section.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.CanonicalText, error) {
	content := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var (
		sections []domain.Section
		current  []string
		h1       string
		h2       string
		inFence  bool
		title    string
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if text == "" {
			return
		}
		var path []string
		if h1 != "" {
			path = append(path, h1)
		}
		if h2 != "" {
			path = append(path, h2)
		}
		sections = append(sections, domain.Section{
			Kind:        domain.KindSection,
			Sequence:    len(sections) + 1,
			HeadingPath: path,
			RawText:     text,
		})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			current = append(current, line)
			continue
		}
		if inFence {
			current = append(current, line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "# "):
			flush()
			h1 = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			h2 = ""
			if title == "" {
				title = h1
			}
		case strings.HasPrefix(trimmed, "## "):
			flush()
			h2 = strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
		default:
			current = append(current, line)
		}
	}
	flush()

	if len(sections) == 0 {
		return nil, domain.ErrCorruptDocument
	}

	if title == "" {
		title = domain.TitleFromPath(raw.URI)
	}

	return &domain.CanonicalText{
		Format:   domain.FormatMarkdown,
		Title:    title,
		Sections: sections,
	}, nil
}
