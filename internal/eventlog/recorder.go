package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cardauth/internal/eventlog/metrics"
)

const defaultWriteTimeout = 5 * time.Second

// Recorder hands events to a store off the request path. In async mode Record
// never blocks: when the buffer is full the event is dropped.
type Recorder struct {
	store        Sink
	logger       *slog.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	buffer chan Event
	wg     sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithAsyncBuffer enables async mode with a buffer of size n.
func WithAsyncBuffer(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.buffer = make(chan Event, n)
		}
	}
}

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithRecorderMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithWriteTimeout bounds each store write made by the worker.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// NewRecorder creates a recorder. Without WithAsyncBuffer it writes
// synchronously.
func NewRecorder(store Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.buffer != nil {
		r.wg.Add(1)
		go r.run()
	}
	return r
}

// Record stores event. Missing timestamps are filled in.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Created == 0 {
		event.Created = event.Timestamp.Unix()
	}

	if r.buffer == nil {
		return r.write(ctx, event)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRecorderClosed
	}

	select {
	case r.buffer <- event:
		r.metrics.SetQueueDepth(len(r.buffer))
		return nil
	default:
		r.metrics.IncDropped()
		r.logger.WarnContext(ctx, "event log buffer full, dropping event",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return ErrBufferFull
	}
}

// Close stops accepting events and drains the buffer.
func (r *Recorder) Close() {
	if r.buffer == nil {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.buffer)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for event := range r.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		_ = r.write(ctx, event)
		cancel()
		r.metrics.SetQueueDepth(len(r.buffer))
	}
}

func (r *Recorder) write(ctx context.Context, event Event) error {
	if err := r.store.Append(ctx, event); err != nil {
		r.metrics.IncWriteFailures()
		r.logger.ErrorContext(ctx, "event log write failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
		return err
	}
	r.metrics.IncRecorded()
	r.logger.DebugContext(ctx, "event recorded",
		"event_id", event.ID,
		"event_type", event.Type,
	)
	return nil
}
