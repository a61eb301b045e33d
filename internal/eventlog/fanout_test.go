package eventlog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardauth/internal/eventlog"
	"cardauth/internal/eventlog/store/memory"
)

func TestFanout(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors every append and reads from the primary", func(t *testing.T) {
		primary, mirror := memory.New(10), memory.New(10)
		f := eventlog.NewFanout(primary, quietLogger(), mirror)

		require.NoError(t, f.Append(ctx, eventlog.Event{ID: "evt_1"}))

		n, err := mirror.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		events, err := f.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})

	t.Run("mirror failure is reported without losing the primary write", func(t *testing.T) {
		primary := memory.New(10)
		f := eventlog.NewFanout(primary, quietLogger(), failingSink{})

		err := f.Append(ctx, eventlog.Event{ID: "evt_2"})
		require.Error(t, err)

		n, cerr := f.Count(ctx)
		require.NoError(t, cerr)
		assert.Equal(t, 1, n)
	})

	t.Run("clear empties clearable mirrors", func(t *testing.T) {
		primary, mirror := memory.New(10), memory.New(10)
		f := eventlog.NewFanout(primary, quietLogger(), mirror, failingSink{})
		_ = f.Append(ctx, eventlog.Event{ID: "evt_3"})

		cleared, err := f.Clear(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, cleared)

		n, err := mirror.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("primary failure surfaces", func(t *testing.T) {
		f := eventlog.NewFanout(brokenStore{}, quietLogger())
		err := f.Append(ctx, eventlog.Event{ID: "evt_4"})
		assert.ErrorIs(t, err, errBroken)
	})
}

var errBroken = errors.New("broken")

type brokenStore struct{}

func (brokenStore) Append(context.Context, eventlog.Event) error { return errBroken }

func (brokenStore) List(context.Context, int) ([]eventlog.Event, error) { return nil, errBroken }

func (brokenStore) Count(context.Context) (int, error) { return 0, errBroken }

func (brokenStore) Clear(context.Context) (int, error) { return 0, errBroken }
