package workflow

import (
	"sync"

	"github.com/poiesic/doctalk/core"
)

// ThreadStore keeps per-thread conversation history in memory.
// History lives for the process lifetime only; threads are isolated
// from each other.
type ThreadStore struct {
	mu      sync.Mutex
	threads map[string]*thread
}

type thread struct {
	// runMu serializes whole workflow runs on the thread, so two
	// concurrent questions cannot interleave the read-history and
	// append-history steps.
	runMu sync.Mutex

	mu      sync.Mutex
	history []core.Message
}

// NewThreadStore creates an empty thread store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{threads: make(map[string]*thread)}
}

func (s *ThreadStore) get(threadID string) *thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		t = &thread{}
		s.threads[threadID] = t
	}
	return t
}

// Acquire locks the thread for an exclusive run and returns the unlock
// function. History reads and appends remain individually safe without
// it; Acquire makes a read-then-append sequence atomic.
func (s *ThreadStore) Acquire(threadID string) func() {
	t := s.get(threadID)
	t.runMu.Lock()
	return t.runMu.Unlock
}

// History returns a copy of the thread's conversation history in order.
func (s *ThreadStore) History(threadID string) []core.Message {
	t := s.get(threadID)
	t.mu.Lock()
	defer t.mu.Unlock()

	history := make([]core.Message, len(t.history))
	copy(history, t.history)
	return history
}

// Append adds messages to the end of the thread's history.
func (s *ThreadStore) Append(threadID string, messages ...core.Message) {
	t := s.get(threadID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, messages...)
}

// Clear discards the thread's history.
func (s *ThreadStore) Clear(threadID string) {
	t := s.get(threadID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = nil
}
