package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Fanout writes every event to a primary store and a set of mirror sinks in
// parallel. Reads are served by the primary.
type Fanout struct {
	primary Store
	mirrors []Sink
	logger  *slog.Logger
}

// NewFanout returns a store that mirrors appends to every sink.
func NewFanout(primary Store, logger *slog.Logger, mirrors ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger}
}

// Append writes to all sinks. A mirror failure is logged and reported, but
// does not stop the other writes.
func (f *Fanout) Append(ctx context.Context, event Event) error {
	errs := make([]error, len(f.mirrors)+1)
	var g errgroup.Group
	g.Go(func() error {
		errs[0] = f.primary.Append(ctx, event)
		return nil
	})
	for i, m := range f.mirrors {
		g.Go(func() error {
			if err := m.Append(ctx, event); err != nil {
				f.logger.WarnContext(ctx, "event log mirror append failed",
					"event_id", event.ID,
					"sink", fmt.Sprintf("%T", m),
					"error", err,
				)
				errs[i+1] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (f *Fanout) List(ctx context.Context, limit int) ([]Event, error) {
	return f.primary.List(ctx, limit)
}

func (f *Fanout) Count(ctx context.Context) (int, error) {
	return f.primary.Count(ctx)
}

// Clear empties the primary and any mirror that supports clearing. The count
// is the primary's.
func (f *Fanout) Clear(ctx context.Context) (int, error) {
	n, err := f.primary.Clear(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range f.mirrors {
		c, ok := m.(Clearer)
		if !ok {
			continue
		}
		if _, err := c.Clear(ctx); err != nil {
			f.logger.WarnContext(ctx, "event log mirror clear failed",
				"sink", fmt.Sprintf("%T", m),
				"error", err,
			)
		}
	}
	return n, nil
}
