package eventlog

import (
	"context"
	"errors"
)

var (
	ErrBufferFull     = errors.New("event log buffer full")
	ErrRecorderClosed = errors.New("event log recorder closed")
)

// Sink accepts events. Streaming backends only implement this.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a bounded, newest-first event log.
type Store interface {
	Sink
	List(ctx context.Context, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) (int, error)
}

// Clearer is implemented by sinks that can be emptied alongside the primary store.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
