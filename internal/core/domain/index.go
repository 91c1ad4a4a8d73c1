package domain

import "strings"

// SimilarityMetric is the vector similarity function of an index.
type SimilarityMetric string

// MetricCosine is the only metric the pipeline uses.
const MetricCosine SimilarityMetric = "cosine"

// HNSW parameters used for the approximate nearest-neighbour profile.
const (
	HNSWM              = 4
	HNSWEFConstruction = 1000
	HNSWEFSearch       = 1000
)

// IndexField describes one field of an index schema.
type IndexField struct {
	Name       string
	Type       string
	Key        bool
	Searchable bool
	Filterable bool
}

// Field names of the chunk record schema.
const (
	FieldID         = "id"
	FieldContent    = "content"
	FieldFilepath   = "filepath"
	FieldTitle      = "title"
	FieldURL        = "url"
	FieldDocumentID = "document_id"
	FieldVector     = "contentVector"
)

// IndexSchema describes the shape of a search index: its fields, vector
// dimension, and similarity metric.
type IndexSchema struct {
	Name             string
	Fields           []IndexField
	VectorDimensions int
	Metric           SimilarityMetric
}

// IndexDescriptor describes one physical search index.
type IndexDescriptor struct {
	// Name is the physical index name.
	Name string

	// Schema is the index schema.
	Schema IndexSchema

	// OwningDocumentID is the document this index belongs to, or empty
	// for a shared multi-document index.
	OwningDocumentID string
}

// DefaultSchema returns the chunk record schema for an index with the
// given name and vector dimension.
func DefaultSchema(name string, dimensions int) IndexSchema {
	return IndexSchema{
		Name: name,
		Fields: []IndexField{
			{Name: FieldID, Type: "Edm.String", Key: true},
			{Name: FieldContent, Type: "Edm.String", Searchable: true},
			{Name: FieldFilepath, Type: "Edm.String"},
			{Name: FieldTitle, Type: "Edm.String", Searchable: true},
			{Name: FieldURL, Type: "Edm.String"},
			{Name: FieldDocumentID, Type: "Edm.String", Filterable: true},
			{Name: FieldVector, Type: "Collection(Edm.Single)", Searchable: true},
		},
		VectorDimensions: dimensions,
		Metric:           MetricCosine,
	}
}

// indexNamePrefix prefixes every per-document index name.
const indexNamePrefix = "doc-"

// IndexNameFor derives the physical index name for a document.
// The derivation is deterministic so re-processing the same document
// recreates the same index. The result contains only lowercase letters,
// digits, and dashes.
func IndexNameFor(documentID string) string {
	return indexNamePrefix + sanitizeIndexName(documentID)
}

// sanitizeIndexName lowercases the input and replaces every run of
// characters outside [a-z0-9] with a single dash.
func sanitizeIndexName(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
