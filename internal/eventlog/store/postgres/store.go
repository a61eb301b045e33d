package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"cardauth/internal/eventlog"
	"cardauth/pkg/platform/sentinel"
	txcontext "cardauth/pkg/platform/tx"
)

// Schema creates the event log table. Redelivered events share an ID and are
// stored once.
const Schema = `
CREATE TABLE IF NOT EXISTS webhook_events (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT        NOT NULL UNIQUE,
	type        TEXT        NOT NULL,
	created     BIGINT      NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	account     TEXT        NOT NULL DEFAULT '',
	source      TEXT        NOT NULL DEFAULT '',
	relevant    BOOLEAN     NOT NULL DEFAULT FALSE,
	data        JSONB,
	decision    JSONB
)`

// Store is a durable, bounded event log.
type Store struct {
	db       *sql.DB
	capacity int
}

// New creates a Postgres event log keeping the newest capacity events.
func New(db *sql.DB, capacity int) *Store {
	if capacity <= 0 {
		capacity = eventlog.DefaultCapacity
	}
	return &Store{db: db, capacity: capacity}
}

// EnsureSchema creates the table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create webhook_events: %w", classify(err))
	}
	return nil
}

// Append inserts the event and evicts anything beyond capacity in the same
// transaction.
func (s *Store) Append(ctx context.Context, event eventlog.Event) error {
	var decision []byte
	if event.Decision != nil {
		b, err := json.Marshal(event.Decision)
		if err != nil {
			return fmt.Errorf("marshal decision: %w", err)
		}
		decision = b
	}
	var data []byte
	if len(event.Data) > 0 {
		data = event.Data
	}

	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		exec := txcontext.ExecerFrom(ctx, s.db)
		_, err := exec.ExecContext(ctx, `
			INSERT INTO webhook_events (id, type, created, received_at, account, source, relevant, data, decision)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`, event.ID, event.Type, event.Created, event.Timestamp, event.Account, string(event.Source),
			event.Relevant, nullableJSON(data), nullableJSON(decision))
		if err != nil {
			return fmt.Errorf("insert event: %w", classify(err))
		}
		_, err = exec.ExecContext(ctx, `
			DELETE FROM webhook_events
			WHERE seq <= (SELECT seq FROM webhook_events ORDER BY seq DESC OFFSET $1 LIMIT 1)
		`, s.capacity)
		if err != nil {
			return fmt.Errorf("trim events: %w", classify(err))
		}
		return nil
	})
}

// List returns up to limit events, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]eventlog.Event, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}
	rows, err := txcontext.ExecerFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, type, created, received_at, account, source, relevant, data, decision
		FROM webhook_events
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", classify(err))
	}
	defer rows.Close()

	var events []eventlog.Event
	for rows.Next() {
		var (
			e        eventlog.Event
			source   string
			data     []byte
			decision []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Created, &e.Timestamp, &e.Account, &source, &e.Relevant, &data, &decision); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Source = eventlog.Source(source)
		if len(data) > 0 {
			e.Data = data
		}
		if len(decision) > 0 {
			e.Decision = &eventlog.DecisionRecord{}
			if err := json.Unmarshal(decision, e.Decision); err != nil {
				return nil, fmt.Errorf("decode decision: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", classify(err))
	}
	return events, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", classify(err))
	}
	return n, nil
}

func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM webhook_events`)
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	return int(n), nil
}

// nullableJSON passes JSON as text: lib/pq would encode []byte as bytea.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// classify marks connection-level failures as unavailable so callers can tell
// them apart from query bugs.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return err
}
