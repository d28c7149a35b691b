package mock

import (
	"github.com/poiesic/doctalk/ai"
)

// MockProvider is a test double for ai.AIProvider aggregating mock services.
type MockProvider struct {
	MockEmbedder  *MockEmbedder
	MockGenerator *MockGenerator
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider creates a provider with default deterministic doubles.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder:  NewMockEmbedder(),
		MockGenerator: NewMockGenerator(""),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Generator returns the mock generation service.
func (p *MockProvider) Generator() ai.Generator {
	return p.MockGenerator
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
