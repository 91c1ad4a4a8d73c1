// Package csv normalises CSV files by turning each data row into its
// own section, keyed on a configurable content column.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// DefaultContentColumn is the column read for section text.
const DefaultContentColumn = "description"

// DefaultTitleColumn is the column read for section headings.
const DefaultTitleColumn = "name"

// Options configures which columns the normaliser reads.
type Options struct {
	ContentColumn string
	TitleColumn   string
}

// Normaliser handles CSV documents.
type Normaliser struct {
	contentColumn string
	titleColumn   string
}

// New creates a CSV normaliser. Empty option fields fall back to the
// default column names.
func New(opts Options) *Normaliser {
	n := &Normaliser{
		contentColumn: opts.ContentColumn,
		titleColumn:   opts.TitleColumn,
	}
	if n.contentColumn == "" {
		n.contentColumn = DefaultContentColumn
	}
	if n.titleColumn == "" {
		n.titleColumn = DefaultTitleColumn
	}
	return n
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.SourceFormat {
	return domain.FormatCSV
}

// Normalise reads the header row to locate the content and title
// columns, then emits one section per data row. Rows with an empty
// content cell are skipped but keep their row number in the sequence,
// so section sequences match the source file.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.CanonicalText, error) {
	reader := csv.NewReader(bytes.NewReader(raw.Content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", domain.ErrCorruptDocument)
	}

	contentIdx := -1
	titleIdx := -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case strings.ToLower(n.contentColumn):
			contentIdx = i
		case strings.ToLower(n.titleColumn):
			titleIdx = i
		}
	}
	if contentIdx == -1 {
		return nil, fmt.Errorf("csv has no %q column: %w", n.contentColumn, domain.ErrCorruptDocument)
	}

	var sections []domain.Section
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", domain.ErrCorruptDocument)
		}
		row++

		if contentIdx >= len(record) {
			continue
		}
		content := strings.TrimSpace(record[contentIdx])
		if content == "" {
			continue
		}

		heading := fmt.Sprintf("Row %d", row)
		if titleIdx >= 0 && titleIdx < len(record) {
			if t := strings.TrimSpace(record[titleIdx]); t != "" {
				heading = t
			}
		}

		sections = append(sections, domain.Section{
			Kind:        domain.KindSection,
			Sequence:    row,
			HeadingPath: []string{heading},
			RawText:     content,
		})
	}

	if len(sections) == 0 {
		return nil, domain.ErrCorruptDocument
	}

	return &domain.CanonicalText{
		Format:   domain.FormatCSV,
		Title:    domain.TitleFromPath(raw.URI),
		Sections: sections,
	}, nil
}
