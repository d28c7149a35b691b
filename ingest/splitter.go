package ingest

import (
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 200
)

// Splitter divides document sections into overlapping chunks sized for
// embedding. The overlap preserves context across chunk boundaries.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter with the given chunk size and overlap.
// Non-positive values fall back to the defaults (800 and 200 characters).
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split divides the given sections into chunk texts, preserving order.
func (s *Splitter) Split(sections []string) ([]string, error) {
	var chunks []string
	for _, section := range sections {
		parts, err := s.inner.SplitText(section)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, parts...)
	}
	return chunks, nil
}
