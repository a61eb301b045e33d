package policy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"cardauth/internal/authorization"
)

// Source produces a freshly compiled policy snapshot.
type Source interface {
	Load(ctx context.Context) (*authorization.PolicyConfig, error)
}

// FileSource reads a YAML policy from disk. An empty path yields the embedded
// default policy.
type FileSource struct {
	Path string
}

func (f FileSource) Load(_ context.Context) (*authorization.PolicyConfig, error) {
	if f.Path == "" {
		return Parse(defaultPolicy)
	}
	// #nosec G304 -- path is operator-provided config.
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Describe names the source for logs.
func (f FileSource) Describe() string {
	if f.Path == "" {
		return "embedded"
	}
	return f.Path
}

// Store holds the active policy snapshot. Readers never observe a partially
// built policy: a reload compiles a new snapshot and swaps the pointer.
type Store struct {
	current atomic.Pointer[authorization.PolicyConfig]
	source  Source
	group   singleflight.Group
	logger  *slog.Logger
	reloads atomic.Int64
}

// NewStore loads the initial snapshot. A failing source is fatal here, unlike
// on reload where the previous snapshot stays active.
func NewStore(ctx context.Context, source Source, logger *slog.Logger) (*Store, error) {
	if source == nil {
		return nil, fmt.Errorf("policy source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load initial policy: %w", err)
	}
	s := &Store{source: source, logger: logger}
	s.current.Store(cfg)
	return s, nil
}

// NewStaticStore wraps a fixed snapshot, mainly for tests and simulations.
func NewStaticStore(cfg *authorization.PolicyConfig) *Store {
	s := &Store{source: staticSource{cfg: cfg}, logger: slog.Default()}
	s.current.Store(cfg)
	return s
}

// Current returns the active snapshot. Callers must treat it as read-only.
func (s *Store) Current() *authorization.PolicyConfig {
	return s.current.Load()
}

// Reload compiles a new snapshot from the source and swaps it in. Concurrent
// calls share one load. On failure the active snapshot is kept.
func (s *Store) Reload(ctx context.Context) (*authorization.PolicyConfig, error) {
	v, err, shared := s.group.Do("reload", func() (any, error) {
		cfg, err := s.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		prev := s.current.Swap(cfg)
		s.reloads.Add(1)
		s.logger.InfoContext(ctx, "policy reloaded",
			"name", cfg.Name,
			"version", cfg.Version,
			"previous_version", versionOf(prev),
		)
		return cfg, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "policy reload failed, keeping active policy",
			"version", versionOf(s.Current()),
			"error", err,
		)
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "policy reload shared with concurrent caller")
	}
	return v.(*authorization.PolicyConfig), nil
}

// Reloads reports how many reloads have succeeded.
func (s *Store) Reloads() int64 {
	return s.reloads.Load()
}

type staticSource struct {
	cfg *authorization.PolicyConfig
}

func (s staticSource) Load(context.Context) (*authorization.PolicyConfig, error) {
	return s.cfg, nil
}

func versionOf(cfg *authorization.PolicyConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.Version
}
