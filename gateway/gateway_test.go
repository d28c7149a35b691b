package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/doctalk/ai/mock"
	"github.com/poiesic/doctalk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastGateway(t *testing.T, primary, secondary *mock.MockGenerator) *Gateway {
	t.Helper()
	g, err := New(primary, secondary,
		WithBaseDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond))
	require.NoError(t, err)
	return g
}

func question(text string) []core.Message {
	return []core.Message{{Role: core.RoleHuman, Contents: text, Timestamp: time.Now()}}
}

func TestNew_RequiresProviders(t *testing.T) {
	secondary := mock.NewMockGenerator("fallback")

	_, err := New(nil, secondary)
	assert.ErrorIs(t, err, ErrPrimaryRequired)

	_, err = New(secondary, nil)
	assert.ErrorIs(t, err, ErrSecondaryRequired)
}

func TestGenerate_PrimarySucceeds(t *testing.T) {
	primary := mock.NewMockGenerator("primary answer")
	secondary := mock.NewMockGenerator("fallback answer")
	g := fastGateway(t, primary, secondary)

	response, err := g.Generate(context.Background(), question("hello"))
	require.NoError(t, err)
	assert.Equal(t, "primary answer", response)
	assert.Equal(t, 1, primary.GenerateCalls())
	assert.Equal(t, 0, secondary.GenerateCalls())
}

func TestGenerate_PrimarySucceedsOnSecondAttempt_NoFallback(t *testing.T) {
	primary := mock.NewMockGenerator("")
	calls := 0
	primary.GenerateFunc = func(ctx context.Context, messages []core.Message) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("rate limited")
		}
		return "recovered", nil
	}
	secondary := mock.NewMockGenerator("fallback answer")
	g := fastGateway(t, primary, secondary)

	response, err := g.Generate(context.Background(), question("hello"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", response)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, secondary.GenerateCalls(),
		"secondary must not run when the primary recovers within its budget")
}

func TestGenerate_FallsBackAfterExhaustion(t *testing.T) {
	primary := mock.NewMockGenerator("")
	primary.Err = errors.New("primary down")
	secondary := mock.NewMockGenerator("fallback answer")
	g := fastGateway(t, primary, secondary)

	response, err := g.Generate(context.Background(), question("hello"))
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", response)
	assert.Equal(t, 3, primary.GenerateCalls())
	assert.Equal(t, 1, secondary.GenerateCalls())
}

func TestGenerate_BothFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	secondaryErr := errors.New("secondary down")

	primary := mock.NewMockGenerator("")
	primary.Err = primaryErr
	secondary := mock.NewMockGenerator("")
	secondary.Err = secondaryErr
	g := fastGateway(t, primary, secondary)

	_, err := g.Generate(context.Background(), question("hello"))
	require.Error(t, err)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, secondaryErr)
}

func TestGenerate_NoFallbackOnCancelledContext(t *testing.T) {
	primary := mock.NewMockGenerator("")
	primary.Err = errors.New("primary down")
	secondary := mock.NewMockGenerator("fallback answer")
	g := fastGateway(t, primary, secondary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, question("hello"))
	require.Error(t, err)
	assert.Equal(t, 0, secondary.GenerateCalls())
}

func TestStream_PrimarySucceeds(t *testing.T) {
	primary := mock.NewMockGenerator("token stream works")
	secondary := mock.NewMockGenerator("fallback")
	g := fastGateway(t, primary, secondary)

	var sb strings.Builder
	err := g.Stream(context.Background(), question("hello"), func(token string) error {
		sb.WriteString(token)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "token stream works", sb.String())
	assert.Equal(t, 0, secondary.StreamCalls())
}

func TestStream_FailsOverOnce(t *testing.T) {
	primary := mock.NewMockGenerator("")
	primary.StreamFunc = func(ctx context.Context, messages []core.Message, fn func(string) error) error {
		// Emit a partial fragment, then die mid-stream.
		if err := fn("partial "); err != nil {
			return err
		}
		return errors.New("connection reset")
	}
	secondary := mock.NewMockGenerator("full fallback answer")
	g := fastGateway(t, primary, secondary)

	var sb strings.Builder
	err := g.Stream(context.Background(), question("hello"), func(token string) error {
		sb.WriteString(token)
		return nil
	})

	require.NoError(t, err)
	// Fragments from the primary are not rolled back.
	assert.Equal(t, "partial full fallback answer", sb.String())
	assert.Equal(t, 1, secondary.StreamCalls())
}

func TestStream_BothFail(t *testing.T) {
	primary := mock.NewMockGenerator("")
	primary.Err = errors.New("primary stream down")
	secondary := mock.NewMockGenerator("")
	secondary.Err = errors.New("secondary stream down")
	g := fastGateway(t, primary, secondary)

	err := g.Stream(context.Background(), question("hello"), func(string) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, primary.Err)
	assert.ErrorIs(t, err, secondary.Err)
}

func TestStream_ConsumerAbortDoesNotFailOver(t *testing.T) {
	abort := errors.New("consumer gone")
	primary := mock.NewMockGenerator("several tokens to send")
	secondary := mock.NewMockGenerator("fallback")
	g := fastGateway(t, primary, secondary)

	err := g.Stream(context.Background(), question("hello"), func(token string) error {
		return abort
	})

	assert.ErrorIs(t, err, abort)
	assert.Equal(t, 0, secondary.StreamCalls(),
		"a consumer abort must not restart the stream from the secondary")
}
