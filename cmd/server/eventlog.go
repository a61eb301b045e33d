package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"cardauth/internal/eventlog"
	"cardauth/internal/eventlog/kafka"
	"cardauth/internal/eventlog/store/memory"
	pgstore "cardauth/internal/eventlog/store/postgres"
	redisstore "cardauth/internal/eventlog/store/redis"
	"cardauth/internal/platform/config"
	"cardauth/internal/platform/redis"
	httptransport "cardauth/internal/transport/http"
)

// eventLog is the selected event log backend plus its mirrors and the
// resources main must release on shutdown.
type eventLog struct {
	store   eventlog.Store
	checks  []httptransport.HealthCheck
	closers []func()
}

func (e *eventLog) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// buildEventLog opens the configured primary store and, when brokers are
// configured, mirrors every append to Kafka.
func buildEventLog(ctx context.Context, cfg config.Config, log *slog.Logger) (*eventLog, error) {
	el := &eventLog{}
	var primary eventlog.Store

	switch cfg.EventLog.Backend {
	case config.EventLogRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		el.closers = append(el.closers, func() { _ = client.Close() })
		el.checks = append(el.checks, httptransport.HealthCheck{Name: "redis", Check: client.Health})
		primary = redisstore.New(client.Client, redisstore.WithCapacity(cfg.EventLog.Capacity))

	case config.EventLogPostgres:
		db, err := sql.Open("postgres", cfg.EventLog.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		el.closers = append(el.closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			el.close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		el.checks = append(el.checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		store := pgstore.New(db, cfg.EventLog.Capacity)
		if err := store.EnsureSchema(ctx); err != nil {
			el.close()
			return nil, err
		}
		primary = store

	default:
		primary = memory.New(cfg.EventLog.Capacity)
	}

	if len(cfg.EventLog.KafkaBrokers) == 0 {
		el.store = primary
		return el, nil
	}

	publisher, err := kafka.New(kafka.Config{
		Brokers: cfg.EventLog.KafkaBrokers,
		Topic:   cfg.EventLog.KafkaTopic,
	}, log)
	if err != nil {
		el.close()
		return nil, err
	}
	el.closers = append(el.closers, publisher.Close)
	if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
		// The topic may be managed elsewhere; producing still works if it exists.
		log.WarnContext(ctx, "could not ensure kafka topic", "topic", cfg.EventLog.KafkaTopic, "error", err)
	}
	el.checks = append(el.checks, httptransport.HealthCheck{Name: "kafka", Check: publisher.Ping})
	el.store = eventlog.NewFanout(primary, log, publisher)
	return el, nil
}
