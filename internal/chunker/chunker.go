// Package chunker splits canonical document text into overlapping,
// embeddable chunks.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// EmbedFunc produces an embedding vector for one chunk of text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Policy is the effective chunk size and overlap for one document format.
type Policy struct {
	Size    int
	Overlap int
}

// PolicyFor scales the base chunking parameters for a format. Dense
// formats get larger windows, slide decks smaller ones, and each
// dimension is capped so a generous base setting cannot run away.
func PolicyFor(format domain.SourceFormat, baseSize, baseOverlap int) Policy {
	if baseSize <= 0 {
		baseSize = DefaultChunkSize
	}
	if baseOverlap < 0 {
		baseOverlap = DefaultChunkOverlap
	}

	p := Policy{Size: baseSize, Overlap: baseOverlap}

	switch {
	case format == domain.FormatWord:
		p.Size = capped(int(float64(baseSize)*1.2), 1800)
		p.Overlap = capped(int(float64(baseOverlap)*1.5), 350)
	case format.IsPDF():
		p.Size = capped(int(float64(baseSize)*1.5), 2000)
		p.Overlap = capped(baseOverlap*2, 400)
	case format == domain.FormatPowerPoint:
		p.Size = capped(int(float64(baseSize)*0.8), 1500)
		p.Overlap = capped(int(float64(baseOverlap)*1.5), 350)
	}

	if p.Overlap >= p.Size {
		p.Overlap = p.Size / 4
	}

	return p
}

func capped(v, max int) int {
	if v > max {
		return max
	}
	return v
}

// Splitter turns canonical text into chunks, one sliding window per
// section, and embeds each chunk as it is produced.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured window size in characters.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured window overlap in characters.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Chunk splits every section of ct into windows and embeds each one.
// Chunk ids encode the section boundary so a chunk can always be traced
// back to its page, slide or section. Any embedding failure aborts the
// whole document so an index never holds a partially embedded document.
func (s *Splitter) Chunk(ctx context.Context, ct *domain.CanonicalText, doc domain.Document, embed EmbedFunc) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	for _, sec := range ct.Sections {
		text := strings.TrimSpace(sec.RawText)
		if text == "" {
			continue
		}

		windows := s.split(text)
		for k, window := range windows {
			chunk := domain.Chunk{
				ID:         fmt.Sprintf("%s%d_chunk%d", sec.Kind, sec.Sequence, k+1),
				DocumentID: doc.ID,
				Content:    window,
				Title:      chunkTitle(sec, len(windows), k+1),
				Filepath:   doc.DisplayName,
				URL:        fmt.Sprintf("/document/%s-%d", sec.Kind, sec.Sequence),
			}

			vector, err := embed(ctx, chunk.Content)
			if err != nil {
				return nil, fmt.Errorf("embedding chunk %s: %w", chunk.ID, err)
			}
			chunk.Embedding = vector

			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// split produces the sliding windows for one section. Short sections
// become a single window; longer ones advance by size minus overlap.
// Offsets are measured in runes so multi-byte text never breaks
// mid-character.
func (s *Splitter) split(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	stride := s.chunkSize - s.overlap
	estimated := (len(runes) / stride) + 1
	windows := make([]string, 0, estimated)

	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			windows = append(windows, window)
		}

		if end == len(runes) {
			break
		}
		start += stride
	}

	return windows
}

func chunkTitle(sec domain.Section, total, part int) string {
	title := strings.Join(sec.HeadingPath, " > ")
	if title == "" {
		title = fmt.Sprintf("Section %d", sec.Sequence)
	}
	if total > 1 {
		title = fmt.Sprintf("%s - Part %d", title, part)
	}
	return title
}
