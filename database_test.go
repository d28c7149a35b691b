package doctalk

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/doctalk/ai/mock"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/gateway"
	"github.com/poiesic/doctalk/ingest"
	"github.com/poiesic/doctalk/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDatabase(t *testing.T, provider *mock.MockProvider, opts ...DatabaseOption) *Database {
	t.Helper()

	opts = append([]DatabaseOption{
		WithProvider(provider),
		WithSecondaryGenerator(mock.NewMockGenerator("secondary answer")),
		WithGatewayOptions(
			gateway.WithBaseDelay(time.Millisecond),
			gateway.WithMaxDelay(5*time.Millisecond),
		),
	}, opts...)

	db, err := Open(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ingestAndWait(t *testing.T, db *Database, title, body string) core.DocumentID {
	t.Helper()

	events, cancel := db.Pipeline().Subscribe()
	defer cancel()

	doc, alreadyExists, err := db.Pipeline().Accept(context.Background(), title, strings.NewReader(body))
	require.NoError(t, err)
	require.False(t, alreadyExists)

	select {
	case event := <-events:
		require.Equal(t, ingest.EventDocumentIndexed, event.Kind)
		require.Equal(t, doc.Id, event.DocumentId)
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for indexing")
	}
	return doc.Id
}

func TestAskAnswersFromIngestedDocument(t *testing.T) {
	provider := mock.NewMockProvider()
	provider.MockGenerator.GenerateFunc = func(ctx context.Context, messages []core.Message) (string, error) {
		system := messages[0].Contents
		if strings.Contains(system, "two vacation days per month") {
			return "Employees accrue two vacation days per month.", nil
		}
		return workflow.RefusalPhrase, nil
	}

	db := openTestDatabase(t, provider)
	ingestAndWait(t, db, "handbook.txt",
		"Employees accrue two vacation days per month. Unused days roll over at year end.")

	state, err := db.Workflow().Run(context.Background(), "thread-1",
		"How many vacation days do employees accrue?", nil)
	require.NoError(t, err)

	assert.Contains(t, state.Answer, "two vacation days per month")
	assert.NotEmpty(t, state.Context, "the answer must be grounded on retrieved chunks")
}

func TestAskRefusesWhenContextLacksAnswer(t *testing.T) {
	provider := mock.NewMockProvider()
	provider.MockGenerator.Response = workflow.RefusalPhrase

	db := openTestDatabase(t, provider)
	ingestAndWait(t, db, "handbook.txt", "Expense reports are due every Friday.")

	state, err := db.Workflow().Run(context.Background(), "thread-1",
		"What is the CEO's shoe size?", nil)
	require.NoError(t, err)

	assert.Equal(t, workflow.RefusalPhrase, state.Answer)
}

func TestAskRedactsPIIEndToEnd(t *testing.T) {
	provider := mock.NewMockProvider()
	provider.MockGenerator.GenerateFunc = func(ctx context.Context, messages []core.Message) (string, error) {
		for _, msg := range messages {
			if strings.Contains(msg.Contents, "hr@example.com") {
				return "", errors.New("raw email leaked to the provider")
			}
		}
		return "Forward the request to payroll@example.com.", nil
	}

	db := openTestDatabase(t, provider)
	ingestAndWait(t, db, "handbook.txt", "HR requests go through the ticketing system.")

	state, err := db.Workflow().Run(context.Background(), "thread-1",
		"Should I email hr@example.com about my raise?", nil)
	require.NoError(t, err)

	assert.NotContains(t, state.Answer, "payroll@example.com")
	assert.Contains(t, state.Answer, workflow.RedactedEmailPlaceholder)
	assert.Equal(t, "Should I email [REDACTED_EMAIL] about my raise?", state.RedactedQuestion)

	for _, msg := range db.Workflow().Threads().History("thread-1") {
		assert.NotContains(t, msg.Contents, "@example.com")
	}
}

func TestAskFallsBackToSecondaryProvider(t *testing.T) {
	provider := mock.NewMockProvider()
	provider.MockGenerator.Err = errors.New("primary provider down")

	db := openTestDatabase(t, provider)
	ingestAndWait(t, db, "handbook.txt", "Expense reports are due every Friday.")

	state, err := db.Workflow().Run(context.Background(), "thread-1",
		"When are expense reports due?", nil)
	require.NoError(t, err)

	assert.Equal(t, "secondary answer", state.Answer)
	assert.GreaterOrEqual(t, provider.MockGenerator.GenerateCalls(), 3,
		"the primary budget must be exhausted before failover")
}

func TestAskStreamsTokens(t *testing.T) {
	provider := mock.NewMockProvider()
	provider.MockGenerator.Response = "Expense reports are due every Friday."

	db := openTestDatabase(t, provider)
	ingestAndWait(t, db, "handbook.txt", "Expense reports are due every Friday.")

	var tokens []string
	state, err := db.Workflow().RunStream(context.Background(), "thread-1",
		"When are expense reports due?", nil, func(token string) error {
			tokens = append(tokens, token)
			return nil
		})
	require.NoError(t, err)

	assert.Greater(t, len(tokens), 1)
	assert.Equal(t, state.Answer, strings.Join(tokens, ""))
}

func TestDuplicateUploadReturnsExistingRecord(t *testing.T) {
	provider := mock.NewMockProvider()
	db := openTestDatabase(t, provider)

	body := "Expense reports are due every Friday."
	id := ingestAndWait(t, db, "handbook.txt", body)

	doc, alreadyExists, err := db.Pipeline().Accept(context.Background(), "copy.txt", strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, alreadyExists)
	assert.Equal(t, id, doc.Id)

	docs, err := db.DocumentRepository().ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDatabaseReopens(t *testing.T) {
	dir := t.TempDir()

	provider := mock.NewMockProvider()
	db, err := Open(dir,
		WithProvider(provider),
		WithSecondaryGenerator(mock.NewMockGenerator("secondary answer")))
	require.NoError(t, err)

	events, cancel := db.Pipeline().Subscribe()
	_, _, err = db.Pipeline().Accept(context.Background(), "handbook.txt",
		strings.NewReader("Expense reports are due every Friday."))
	require.NoError(t, err)
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for indexing")
	}
	cancel()
	require.NoError(t, db.Close())

	db, err = Open(dir,
		WithProvider(mock.NewMockProvider()),
		WithSecondaryGenerator(mock.NewMockGenerator("secondary answer")))
	require.NoError(t, err)
	defer db.Close()

	docs, err := db.DocumentRepository().ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, core.StatusIndexed, docs[0].Status)
}
