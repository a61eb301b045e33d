package eventlog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardauth/internal/eventlog"
	"cardauth/internal/eventlog/metrics"
	"cardauth/internal/eventlog/store/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_SyncMode(t *testing.T) {
	store := memory.New(10)
	rec := eventlog.NewRecorder(store, eventlog.WithRecorderLogger(quietLogger()))
	defer rec.Close()

	require.NoError(t, rec.Record(context.Background(), eventlog.Event{ID: "evt_1", Type: "issuing_authorization.created"}))

	events, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].ID)
}

func TestRecorder_SetsTimestamp(t *testing.T) {
	store := memory.New(10)
	rec := eventlog.NewRecorder(store)

	before := time.Now()
	require.NoError(t, rec.Record(context.Background(), eventlog.Event{ID: "evt_ts"}))
	after := time.Now()

	events, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
	assert.Equal(t, events[0].Timestamp.Unix(), events[0].Created)
}

func TestRecorder_PreservesExistingTimestamp(t *testing.T) {
	store := memory.New(10)
	rec := eventlog.NewRecorder(store)
	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Record(context.Background(), eventlog.Event{ID: "evt_c", Timestamp: custom}))

	events, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, custom, events[0].Timestamp)
}

func TestRecorder_AsyncDrainsOnClose(t *testing.T) {
	store := memory.New(100)
	rec := eventlog.NewRecorder(store,
		eventlog.WithAsyncBuffer(100),
		eventlog.WithRecorderLogger(quietLogger()),
		eventlog.WithRecorderMetrics(metrics.New(prometheus.NewRegistry())),
	)

	for range 10 {
		require.NoError(t, rec.Record(context.Background(), eventlog.Event{ID: "evt"}))
	}
	rec.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, n, "all events should be drained on close")

	err = rec.Record(context.Background(), eventlog.Event{ID: "late"})
	assert.ErrorIs(t, err, eventlog.ErrRecorderClosed)
	rec.Close()
}

// blockingSink holds the worker so the buffer can be filled deterministically.
type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     int
}

func (b *blockingSink) Append(context.Context, eventlog.Event) error {
	<-b.release
	b.mu.Lock()
	b.got++
	b.mu.Unlock()
	return nil
}

func TestRecorder_BufferFullDropsEvent(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	rec := eventlog.NewRecorder(sink,
		eventlog.WithAsyncBuffer(1),
		eventlog.WithRecorderLogger(quietLogger()),
	)

	var dropped int
	for range 5 {
		if err := rec.Record(context.Background(), eventlog.Event{ID: "evt"}); errors.Is(err, eventlog.ErrBufferFull) {
			dropped++
		}
	}
	close(sink.release)
	rec.Close()

	// One event is held by the worker and one sits in the buffer.
	assert.GreaterOrEqual(t, dropped, 3)
	assert.Equal(t, 5-dropped, sink.got)
}

type failingSink struct{}

func (failingSink) Append(context.Context, eventlog.Event) error {
	return errors.New("down")
}

func TestRecorder_SyncWriteFailure(t *testing.T) {
	rec := eventlog.NewRecorder(failingSink{}, eventlog.WithRecorderLogger(quietLogger()))
	require.Error(t, rec.Record(context.Background(), eventlog.Event{ID: "evt"}))
}
