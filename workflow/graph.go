package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

const defaultRetrievalLimit = 5

// Workflow executes the question-answering pipeline.
type Workflow struct {
	chunkRepo      storage.ChunkRepository
	embedder       ai.Embedder
	generator      ai.Generator
	threads        *ThreadStore
	retrievalLimit int
	logger         *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow) error

// WithRetrievalLimit sets how many chunks retrieval returns.
// Default is 5. Values below 1 fall back to the default.
func WithRetrievalLimit(limit int) Option {
	return func(w *Workflow) error {
		if limit >= 1 {
			w.retrievalLimit = limit
		}
		return nil
	}
}

// WithThreadStore sets a shared thread store.
// Default is a fresh store owned by the workflow.
func WithThreadStore(threads *ThreadStore) Option {
	return func(w *Workflow) error {
		if threads != nil {
			w.threads = threads
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWorkflow creates a workflow over the given chunk repository and
// AI services. The generator is typically a gateway.Gateway so answers
// survive a primary provider outage.
func NewWorkflow(
	chunkRepo storage.ChunkRepository,
	embedder ai.Embedder,
	generator ai.Generator,
	opts ...Option,
) (*Workflow, error) {
	if chunkRepo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	w := &Workflow{
		chunkRepo:      chunkRepo,
		embedder:       embedder,
		generator:      generator,
		threads:        NewThreadStore(),
		retrievalLimit: defaultRetrievalLimit,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Threads returns the workflow's conversation store.
func (w *Workflow) Threads() *ThreadStore {
	return w.threads
}

// RunOptions holds optional parameters for a run.
type RunOptions struct {
	// DocumentId restricts retrieval to one document when set.
	DocumentId core.DocumentID
}

// Run answers a question on the given thread and returns the final state.
func (w *Workflow) Run(ctx context.Context, threadID, question string, opts *RunOptions) (*State, error) {
	return w.run(ctx, threadID, question, opts, nil)
}

// RunStream answers a question on the given thread, delivering answer
// tokens to fn as they arrive. Tokens pass through PII redaction before
// delivery; a pattern straddling a token boundary can escape the
// per-token pass but never the final state.
func (w *Workflow) RunStream(ctx context.Context, threadID, question string, opts *RunOptions, fn func(token string) error) (*State, error) {
	return w.run(ctx, threadID, question, opts, fn)
}

func (w *Workflow) run(ctx context.Context, threadID, question string, opts *RunOptions, fn func(token string) error) (*State, error) {
	if threadID == "" {
		return nil, ErrEmptyThread
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if opts == nil {
		opts = &RunOptions{}
	}

	// One run at a time per thread, so history stays an alternating
	// question-answer transcript under concurrent callers.
	unlock := w.threads.Acquire(threadID)
	defer unlock()

	state := &State{
		ThreadId:   threadID,
		Question:   question,
		DocumentId: opts.DocumentId,
	}
	history := w.threads.History(threadID)

	w.piiPreCheck(state)
	w.expandQuery(ctx, state, history)
	if err := w.retrieve(ctx, state); err != nil {
		return nil, err
	}
	if err := w.generate(ctx, state, history, fn); err != nil {
		return nil, err
	}
	w.piiPostCheck(state)

	now := time.Now().UTC()
	w.threads.Append(threadID,
		core.Message{Role: core.RoleHuman, Contents: state.RedactedQuestion, Timestamp: now},
		core.Message{Role: core.RoleAI, Contents: state.Answer, Timestamp: now},
	)
	return state, nil
}

// piiPreCheck redacts the inbound question. Only the redacted form
// reaches later stages, the providers, and the thread history.
func (w *Workflow) piiPreCheck(state *State) {
	state.RedactedQuestion = RedactPII(state.Question)
	state.Redacted = true
}

// expandQuery rewrites the question into a standalone search query
// using the conversation so far. Expansion is best-effort: any failure
// or blank rewrite falls back to the redacted question.
func (w *Workflow) expandQuery(ctx context.Context, state *State, history []core.Message) {
	state.ExpandedQuery = state.RedactedQuestion
	if len(history) == 0 {
		return
	}

	expanded, err := w.generator.Generate(ctx, expansionMessages(history, state.RedactedQuestion))
	if err != nil {
		w.logger.Warn("query expansion failed, using question verbatim",
			"thread_id", state.ThreadId, "err", err)
		return
	}
	expanded = strings.TrimSpace(expanded)
	if expanded == "" {
		return
	}
	state.ExpandedQuery = expanded
}

// retrieve runs the similarity search and fills in the context chunks.
func (w *Workflow) retrieve(ctx context.Context, state *State) error {
	vector, err := w.embedder.EmbedText(ctx, state.ExpandedQuery)
	if err != nil {
		return err
	}

	results, err := w.chunkRepo.FindSimilar(ctx, vector, w.retrievalLimit, state.DocumentId)
	if err != nil {
		return err
	}

	state.Context = make([]string, len(results))
	for i, result := range results {
		state.Context[i] = result.Chunk.Contents
	}
	return nil
}

// generate produces the grounded answer. With a stream fn, tokens are
// redacted and forwarded as they arrive while the full answer is
// accumulated for the state.
func (w *Workflow) generate(ctx context.Context, state *State, history []core.Message, fn func(token string) error) error {
	messages := generationMessages(state.Context, history, state.RedactedQuestion)

	if fn == nil {
		answer, err := w.generator.Generate(ctx, messages)
		if err != nil {
			return err
		}
		state.Answer = answer
		return nil
	}

	var answer strings.Builder
	err := w.generator.Stream(ctx, messages, func(token string) error {
		answer.WriteString(token)
		return fn(RedactPII(token))
	})
	if err != nil {
		return err
	}
	state.Answer = answer.String()
	return nil
}

// piiPostCheck redacts the outbound answer.
func (w *Workflow) piiPostCheck(state *State) {
	state.Answer = RedactPII(state.Answer)
}
