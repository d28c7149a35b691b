package workflow

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/doctalk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadStoreIsolation(t *testing.T) {
	store := NewThreadStore()
	now := time.Now().UTC()

	store.Append("alpha", core.Message{Role: core.RoleHuman, Contents: "alpha question", Timestamp: now})
	store.Append("beta", core.Message{Role: core.RoleHuman, Contents: "beta question", Timestamp: now})

	alpha := store.History("alpha")
	require.Len(t, alpha, 1)
	assert.Equal(t, "alpha question", alpha[0].Contents)

	beta := store.History("beta")
	require.Len(t, beta, 1)
	assert.Equal(t, "beta question", beta[0].Contents)
}

func TestThreadStoreHistoryIsACopy(t *testing.T) {
	store := NewThreadStore()
	store.Append("thread", core.Message{Role: core.RoleHuman, Contents: "original"})

	history := store.History("thread")
	history[0].Contents = "mutated"

	assert.Equal(t, "original", store.History("thread")[0].Contents)
}

func TestThreadStoreClear(t *testing.T) {
	store := NewThreadStore()
	store.Append("thread", core.Message{Role: core.RoleHuman, Contents: "question"})

	store.Clear("thread")
	assert.Empty(t, store.History("thread"))
}

func TestThreadStoreSerializedRuns(t *testing.T) {
	store := NewThreadStore()

	// Each worker reads history length, then appends a question-answer
	// pair. Under the per-thread run lock the pair count must be exact
	// and every read must observe an even length.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := store.Acquire("thread")
			defer unlock()

			length := len(store.History("thread"))
			if length%2 != 0 {
				t.Errorf("Observed odd history length %d mid-run", length)
			}
			store.Append("thread",
				core.Message{Role: core.RoleHuman, Contents: fmt.Sprintf("question %d", i)},
				core.Message{Role: core.RoleAI, Contents: fmt.Sprintf("answer %d", i)},
			)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.History("thread"), 16)
}
