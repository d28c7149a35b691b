// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package doctalk

import (
	"log/slog"
	"path/filepath"

	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/ai/anthropic"
	"github.com/poiesic/doctalk/ai/openai"
	"github.com/poiesic/doctalk/gateway"
	"github.com/poiesic/doctalk/ingest"
	"github.com/poiesic/doctalk/storage"
	"github.com/poiesic/doctalk/storage/badger"
	"github.com/poiesic/doctalk/workflow"
)

// Database bundles the storage, AI, ingestion, and workflow layers
// behind one lifecycle. Open builds the stack bottom-up; Close tears
// it down in reverse.
type Database struct {
	backend      *badger.Backend
	documentRepo storage.DocumentRepository
	chunkRepo    storage.ChunkRepository
	provider     ai.AIProvider
	gateway      *gateway.Gateway
	files        *ingest.FileStore
	pipeline     *ingest.Pipeline
	workflow     *workflow.Workflow
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig       *ai.Config
	fileStoreDir   string
	retrievalLimit int
	provider       ai.AIProvider
	secondary      ai.Generator
	pipelineOpts   []ingest.Option
	gatewayOpts    []gateway.Option
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithFileStoreDir sets where uploaded document bytes are stored.
// Default is a "files" directory next to the database.
func WithFileStoreDir(dir string) DatabaseOption {
	return func(o *databaseOptions) {
		o.fileStoreDir = dir
	}
}

// WithRetrievalLimit sets how many chunks a question retrieves.
func WithRetrievalLimit(limit int) DatabaseOption {
	return func(o *databaseOptions) {
		o.retrievalLimit = limit
	}
}

// WithProvider injects a custom AI provider in place of the default
// OpenAI-compatible one. Used for testing with mock providers.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithSecondaryGenerator injects a custom fallback generator in place
// of the default Anthropic one.
func WithSecondaryGenerator(generator ai.Generator) DatabaseOption {
	return func(o *databaseOptions) {
		o.secondary = generator
	}
}

// WithGatewayOptions forwards options to the generation gateway.
func WithGatewayOptions(opts ...gateway.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.gatewayOpts = append(o.gatewayOpts, opts...)
	}
}

// WithPipelineOptions forwards options to the ingestion pipeline.
func WithPipelineOptions(opts ...ingest.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// Open opens a document database rooted at dir. The BadgerDB store
// lives under dir/db and uploaded files under dir/files unless
// overridden.
func Open(dir string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig:     ai.DefaultConfig(),
		fileStoreDir: filepath.Join(dir, "files"),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dir, "db"), false)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	closeStorage := func() {
		chunkRepo.Close()
		documentRepo.Close()
		backend.Close()
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			closeStorage()
			return nil, err
		}
	}

	secondary := options.secondary
	if secondary == nil {
		secondary, err = anthropic.NewGenerator(options.aiConfig)
		if err != nil {
			provider.Close()
			closeStorage()
			return nil, err
		}
	}

	gw, err := gateway.New(provider.Generator(), secondary, options.gatewayOpts...)
	if err != nil {
		provider.Close()
		closeStorage()
		return nil, err
	}

	files, err := ingest.NewFileStore(options.fileStoreDir)
	if err != nil {
		provider.Close()
		closeStorage()
		return nil, err
	}

	pipeline, err := ingest.NewPipeline(documentRepo, chunkRepo, provider, files, options.pipelineOpts...)
	if err != nil {
		provider.Close()
		closeStorage()
		return nil, err
	}

	workflowOpts := []workflow.Option{}
	if options.retrievalLimit > 0 {
		workflowOpts = append(workflowOpts, workflow.WithRetrievalLimit(options.retrievalLimit))
	}
	wf, err := workflow.NewWorkflow(chunkRepo, provider.Embedder(), gw, workflowOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		closeStorage()
		return nil, err
	}

	return &Database{
		backend:      backend,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		provider:     provider,
		gateway:      gw,
		files:        files,
		pipeline:     pipeline,
		workflow:     wf,
		logger:       slog.Default(),
	}, nil
}

// Close shuts the database down in reverse construction order.
func (db *Database) Close() error {
	db.pipeline.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.documentRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository exposes the document record store.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documentRepo
}

// ChunkRepository exposes the chunk and vector store.
func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

// Pipeline exposes the ingestion pipeline.
func (db *Database) Pipeline() *ingest.Pipeline {
	return db.pipeline
}

// Workflow exposes the question-answering workflow.
func (db *Database) Workflow() *workflow.Workflow {
	return db.workflow
}
