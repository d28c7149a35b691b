package ingest

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/documentloaders"
)

// Loader reads a stored document and returns its text sections.
// A plain text file yields a single section; structured formats may
// yield one section per page.
type Loader interface {
	Load(ctx context.Context, path string) ([]string, error)
}

// TextLoader loads plain text documents from the file store.
type TextLoader struct{}

var _ Loader = (*TextLoader)(nil)

// NewTextLoader creates a loader for plain text documents.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads the file at path and returns its text sections.
func (l *TextLoader) Load(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return nil, err
	}

	sections := make([]string, 0, len(docs))
	for _, doc := range docs {
		sections = append(sections, doc.PageContent)
	}
	return sections, nil
}
