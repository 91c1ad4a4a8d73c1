package domain

import "time"

// SourceFormat identifies the kind of source file a document came from.
type SourceFormat string

// Supported source formats. FormatPDF is what extension detection
// reports; normalisation resolves it to FormatPDFNative or
// FormatPDFImage depending on whether the file has extractable text.
const (
	FormatPDF        SourceFormat = "pdf"
	FormatPDFNative  SourceFormat = "pdf-native"
	FormatPDFImage   SourceFormat = "pdf-image"
	FormatWord       SourceFormat = "word"
	FormatPowerPoint SourceFormat = "powerpoint"
	FormatMarkdown   SourceFormat = "markdown"
	FormatCSV        SourceFormat = "csv"
	FormatUnknown    SourceFormat = "unknown"
)

// IsPDF reports whether the format is any of the PDF variants.
func (f SourceFormat) IsPDF() bool {
	return f == FormatPDF || f == FormatPDFNative || f == FormatPDFImage
}

// Document represents one uploaded source file.
// Documents are immutable once created; they are removed when their
// owning index is deleted.
type Document struct {
	// ID is the opaque unique identifier generated at upload.
	ID string

	// DisplayName is the human-readable name, usually the file name.
	DisplayName string

	// Format is the resolved source format.
	Format SourceFormat

	// UploadedAt is when the document was uploaded.
	UploadedAt time.Time
}

// RawDocument represents the opaque bytes of an uploaded file before
// normalisation.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// Format is the detected or user-declared source format.
	Format SourceFormat

	// Content is the raw bytes.
	Content []byte
}

// BoundaryKind identifies what kind of source unit a section maps to.
type BoundaryKind string

// Section boundary kinds. The string values are used verbatim in chunk
// identifiers (e.g. "page3_chunk1"), so they must stay stable.
const (
	KindPage    BoundaryKind = "page"
	KindSlide   BoundaryKind = "slide"
	KindSection BoundaryKind = "section"
)

// Section is one page/slide/heading-delimited unit of canonical text,
// the input granularity to chunking.
type Section struct {
	// Kind is the boundary kind of the source unit.
	Kind BoundaryKind

	// Sequence is the 1-based source position of the unit. For pages and
	// slides this is the original page/slide number, so dropped empty
	// pages leave gaps rather than renumbering the rest.
	Sequence int

	// HeadingPath is the heading hierarchy from outermost to innermost.
	HeadingPath []string

	// RawText is the extracted text. Never empty: empty source units are
	// dropped during normalisation (except slides, which get a
	// placeholder to preserve numbering continuity).
	RawText string
}

// CanonicalText is the normalised representation of one document.
// It is derived transiently during ingestion and never persisted.
type CanonicalText struct {
	// Format is the resolved source format (pdf-native or pdf-image for
	// PDFs, the declared format otherwise).
	Format SourceFormat

	// Title is the document title, from document properties or the
	// file name stem.
	Title string

	// Sections are the units in source order.
	Sections []Section
}
