package ingest

import (
	"sync"

	"github.com/poiesic/doctalk/core"
)

// EventKind identifies a document lifecycle event.
type EventKind string

const (
	// EventDocumentIndexed is emitted when ingestion completes successfully.
	EventDocumentIndexed EventKind = "document_indexed"

	// EventDocumentFailed is emitted when ingestion fails.
	EventDocumentFailed EventKind = "document_failed"
)

// Event describes a document lifecycle transition.
type Event struct {
	Kind       EventKind
	DocumentId core.DocumentID
	Message    string
}

// Broadcaster fans document lifecycle events out to subscribers.
// Delivery is best-effort: a subscriber with a full channel misses
// the event rather than blocking the pipeline.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its event channel
// along with a cancel function. The channel is closed on cancel or when
// the broadcaster shuts down.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers without blocking.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
