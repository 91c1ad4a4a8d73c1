// Package normalisers provides the format-specific document normalisers
// and a registry for looking them up by source format.
package normalisers

import (
	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers/csv"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers/docx"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers/markdown"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers/pdf"
	"github.com/datatalk-labs/datatalk-cli/internal/normalisers/pptx"
)

// Registry maps source formats to their normalisers.
type Registry struct {
	byFormat map[domain.SourceFormat]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byFormat: make(map[domain.SourceFormat]driven.Normaliser),
	}
}

// Register adds a normaliser for its declared format, replacing any
// previous registration.
func (r *Registry) Register(n driven.Normaliser) {
	r.byFormat[n.Format()] = n
}

// For returns the normaliser for a format, or ErrUnsupportedFormat.
func (r *Registry) For(format domain.SourceFormat) (driven.Normaliser, error) {
	if n, ok := r.byFormat[format]; ok {
		return n, nil
	}
	return nil, domain.ErrUnsupportedFormat
}

// Defaults builds a registry covering every supported format. The
// analysis service may be nil, in which case image-based PDFs are
// rejected at normalise time.
func Defaults(analysis driven.DocumentAnalysisService, csvContentColumn, csvTitleColumn string) *Registry {
	r := NewRegistry()
	r.Register(pdf.New(analysis))
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(markdown.New())
	r.Register(csv.New(csv.Options{
		ContentColumn: csvContentColumn,
		TitleColumn:   csvTitleColumn,
	}))
	return r
}
