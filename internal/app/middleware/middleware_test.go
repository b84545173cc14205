package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/middleware"
	"villaledger/internal/app/outbox"
	"villaledger/internal/infra/storage/memory"
)

type bookResult struct {
	ID    int64 `json:"id"`
	Calls int   `json:"calls"`
}

type bookCommand struct {
	Guest   string
	IdemKey string
}

func (bookCommand) Key() string              { return "test.book" }
func (c bookCommand) IdempotencyKey() string { return c.IdemKey }
func (bookCommand) ResultPrototype() any     { return &bookResult{} }

type cancelCommand struct{ IdemKey string }

func (cancelCommand) Key() string              { return "test.cancel" }
func (c cancelCommand) IdempotencyKey() string { return c.IdemKey }
func (cancelCommand) ResultPrototype() any     { return &bookResult{} }

type countingOutbox struct{ flushes int }

func (o *countingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(context.Context) error {
	o.flushes++
	return nil
}

func newBus(t *testing.T, fail *bool) (*commands.InMemoryBus, *int) {
	t.Helper()
	calls := 0
	bus := commands.NewInMemoryBus()
	handle := func(ctx context.Context, cmd bookCommand) (bookResult, error) {
		calls++
		if fail != nil && *fail {
			return bookResult{}, errors.New("rejected")
		}
		return bookResult{ID: 7, Calls: calls}, nil
	}
	commands.RegisterHandler[bookCommand, bookResult](bus, "test.book", commands.HandlerFunc[bookCommand, bookResult](handle))
	commands.RegisterHandler[cancelCommand, bookResult](bus, "test.cancel", commands.HandlerFunc[cancelCommand, bookResult](
		func(context.Context, cancelCommand) (bookResult, error) { return bookResult{}, nil },
	))
	return bus, &calls
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	bus, calls := newBus(t, nil)
	chain := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()

	first, err := commands.Dispatch[bookCommand, bookResult](ctx, chain, bookCommand{Guest: "Ayşe", IdemKey: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[bookCommand, bookResult](ctx, chain, bookCommand{Guest: "Ayşe", IdemKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls)

	_, err = commands.Dispatch[bookCommand, bookResult](ctx, chain, bookCommand{Guest: "Ayşe"})
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "commands without a key always run")
}

func TestIdempotencyRejectsKeyReuseAcrossCommands(t *testing.T) {
	bus, _ := newBus(t, nil)
	chain := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(0), nil))
	ctx := context.Background()

	_, err := commands.Dispatch[bookCommand, bookResult](ctx, chain, bookCommand{IdemKey: "shared"})
	require.NoError(t, err)
	_, err = commands.Dispatch[cancelCommand, bookResult](ctx, chain, cancelCommand{IdemKey: "shared"})
	assert.ErrorIs(t, err, middleware.ErrIdempotencyKeyReused)
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	fail := true
	bus, calls := newBus(t, &fail)
	chain := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()

	_, err := commands.Dispatch[bookCommand, bookResult](ctx, chain, bookCommand{IdemKey: "retry"})
	require.Error(t, err)

	fail = false
	res, err := commands.Dispatch[bookCommand, bookResult](ctx, chain, bookCommand{IdemKey: "retry"})
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, 2, res.Calls)
}

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	fail := true
	bus, _ := newBus(t, &fail)
	box := &countingOutbox{}
	chain := middleware.ChainCommands(bus, middleware.OutboxFlush(box))
	ctx := context.Background()

	_, err := chain.Dispatch(ctx, bookCommand{})
	require.Error(t, err)
	assert.Zero(t, box.flushes)

	fail = false
	_, err = chain.Dispatch(ctx, bookCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
}

type rejectAll struct{}

func (rejectAll) Validate(context.Context, any) error { return middleware.ErrValidation }

func TestValidationStopsBeforeHandler(t *testing.T) {
	bus, calls := newBus(t, nil)
	chain := middleware.ChainCommands(bus, middleware.Validation(rejectAll{}))

	_, err := chain.Dispatch(context.Background(), bookCommand{})
	assert.ErrorIs(t, err, middleware.ErrValidation)
	assert.Zero(t, *calls)
}
