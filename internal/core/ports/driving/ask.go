package driving

import "context"

// Citation points at one retrieved chunk that grounded an answer.
type Citation struct {
	DocumentID string
	ChunkID    string
	Title      string
	URL        string
}

// Answer is a generated answer with its grounding citations.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Citations lists the chunks the answer was grounded in, in
	// retrieval order.
	Citations []Citation
}

// AskService answers questions grounded in indexed documents.
type AskService interface {
	// Ask retrieves relevant chunks from the indices of the given
	// documents and synthesises an answer. With no document IDs given,
	// the session's current selection is used; if that is empty too,
	// Ask fails with domain.ErrEmptySelection rather than searching
	// everything.
	Ask(ctx context.Context, question string, documentIDs []string, topK int) (*Answer, error)
}
