package domain

// Chunk is a bounded span of text extracted from one section, the
// atomic unit stored in and retrieved from a search index.
// Chunks are immutable; they are removed when their owning index is
// deleted.
type Chunk struct {
	// ID is unique within a document and derived deterministically from
	// the section boundary kind, sequence number, and chunk index
	// (e.g. "page3_chunk1"), so re-indexing the same document overwrites
	// prior records instead of duplicating them.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the chunk text. Never empty or whitespace-only.
	Content string

	// Title is a human-readable locator built from the section's heading
	// path or page/slide number, with a part suffix when a section
	// yields more than one chunk.
	Title string

	// Filepath is the display name of the source file.
	Filepath string

	// URL is a synthetic path encoding the section identity
	// (e.g. "/document/page-3").
	URL string

	// Embedding is the vector representation of Content. Its length must
	// match the vector dimension of the index it is uploaded to.
	Embedding []float32
}
