package services

import (
	"context"
	"sync"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
	"github.com/datatalk-labs/datatalk-cli/internal/logger"
)

// DefaultTopK is the result count used when the caller passes none.
const DefaultTopK = 5

// Retriever fans a question out across the selected documents'
// indices and merges the hits.
type Retriever struct {
	indexes   driven.SearchIndex
	embedding *EmbeddingGateway
}

// NewRetriever creates a new retriever.
func NewRetriever(indexes driven.SearchIndex, embedding *EmbeddingGateway) *Retriever {
	return &Retriever{
		indexes:   indexes,
		embedding: embedding,
	}
}

// Retrieve queries one index per selected document in parallel and
// flattens the hits in selection order, truncated to topK. An empty
// selection yields an empty result. A failing index is skipped rather
// than failing the whole retrieval, and if the question cannot be
// embedded the search degrades to text matching only.
func (r *Retriever) Retrieve(ctx context.Context, session *domain.Session, question string, documentIDs []string, topK int) ([]driven.SearchHit, error) {
	if len(documentIDs) == 0 {
		logger.Debug("Empty document selection, returning no hits")
		return []driven.SearchHit{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	// Resolve document ids to index names, keeping selection order.
	indexNames := make([]string, 0, len(documentIDs))
	for _, docID := range documentIDs {
		name, ok := session.IndexFor(docID)
		if !ok {
			logger.Warn("Document %s has no index, skipping", docID)
			continue
		}
		indexNames = append(indexNames, name)
	}
	if len(indexNames) == 0 {
		return []driven.SearchHit{}, nil
	}

	// Embed the question once for all indices. On failure the query
	// falls back to lexical matching with no vector.
	var vector []float32
	if r.embedding != nil {
		v, err := r.embedding.Embed(ctx, question)
		if err != nil {
			logger.Warn("Question embedding failed, degrading to text search: %v", err)
		} else {
			vector = v
		}
	}

	query := driven.SearchQuery{
		Text:   question,
		Vector: vector,
		TopK:   topK,
	}

	logger.Debug("Querying %d indices (topK=%d)", len(indexNames), topK)

	perIndex := make([][]driven.SearchHit, len(indexNames))
	var wg sync.WaitGroup
	wg.Add(len(indexNames))

	for i, name := range indexNames {
		go func(pos int, indexName string) {
			defer wg.Done()
			hits, err := r.indexes.Query(ctx, indexName, query)
			if err != nil {
				logger.Warn("Query against %s failed, skipping: %v", indexName, err)
				return
			}
			perIndex[pos] = hits
		}(i, name)
	}

	wg.Wait()

	merged := make([]driven.SearchHit, 0, topK)
	for _, hits := range perIndex {
		merged = append(merged, hits...)
	}
	if len(merged) > topK {
		merged = merged[:topK]
	}

	logger.Debug("Retrieved %d hits", len(merged))
	return merged, nil
}
