package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "cardauth/pkg/platform/strings"
)

// Event log backends.
const (
	EventLogMemory   = "memory"
	EventLogRedis    = "redis"
	EventLogPostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Server        Server
	Stripe        Stripe
	Authorization Authorization
	EventLog      EventLog
	Redis         RedisConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
	AdminToken      string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
}

// Stripe configures the issuing provider.
type Stripe struct {
	SecretKey        string
	WebhookSecret    string
	BaseURL          string
	CallTimeout      time.Duration
	WebhookTolerance time.Duration
}

// Authorization configures the decision path.
type Authorization struct {
	PolicyPath      string
	ResponseBudget  time.Duration
	ReplayCacheSize int
	ReplayCacheTTL  time.Duration
}

// EventLog selects and sizes the event log.
type EventLog struct {
	Backend     string
	Capacity    int
	AsyncBuffer int
	PostgresDSN string
	KafkaTopic  string
	// KafkaBrokers enables the decision stream when non-empty.
	KafkaBrokers []string
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	intVar := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, key+" must be a non-negative integer")
			return def
		}
		return n
	}
	durationVar := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, key+" must be a positive duration")
			return def
		}
		return d
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	cfg := Config{
		Server: Server{
			Addr:            stringVar("CARDAUTH_ADDR", ":8080"),
			ShutdownTimeout: durationVar("SHUTDOWN_TIMEOUT", 10*time.Second),
			LogLevel:        stringVar("LOG_LEVEL", "info"),
			AdminToken:      os.Getenv("ADMIN_API_TOKEN"),
			JWTSigningKey:   jwtSigningKey,
			JWTIssuer:       stringVar("JWT_ISSUER", "cardauth"),
			JWTAudience:     stringVar("JWT_AUDIENCE", "cardauth-admin"),
		},
		Stripe: Stripe{
			SecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
			BaseURL:          os.Getenv("STRIPE_API_BASE_URL"),
			CallTimeout:      durationVar("PROVIDER_CALL_TIMEOUT", 1500*time.Millisecond),
			WebhookTolerance: durationVar("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		},
		Authorization: Authorization{
			PolicyPath:      os.Getenv("POLICY_PATH"),
			ResponseBudget:  durationVar("AUTHORIZATION_RESPONSE_BUDGET", 2000*time.Millisecond),
			ReplayCacheSize: intVar("REPLAY_CACHE_SIZE", 4096),
			ReplayCacheTTL:  durationVar("REPLAY_CACHE_TTL", 24*time.Hour),
		},
		EventLog: EventLog{
			Backend:      strings.ToLower(stringVar("EVENT_LOG_BACKEND", EventLogMemory)),
			Capacity:     intVar("EVENT_LOG_CAPACITY", 50),
			AsyncBuffer:  intVar("EVENT_LOG_ASYNC_BUFFER", 256),
			PostgresDSN:  os.Getenv("DATABASE_URL"),
			KafkaTopic:   stringVar("KAFKA_DECISIONS_TOPIC", "cardauth.authorization-events"),
			KafkaBrokers: platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationVar("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  durationVar("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: durationVar("REDIS_WRITE_TIMEOUT", time.Second),
		},
	}

	switch cfg.EventLog.Backend {
	case EventLogMemory:
	case EventLogRedis:
		if cfg.Redis.URL == "" {
			errs = append(errs, "REDIS_URL is required for the redis event log")
		}
	case EventLogPostgres:
		if cfg.EventLog.PostgresDSN == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres event log")
		}
	default:
		errs = append(errs, "EVENT_LOG_BACKEND must be one of memory, redis, postgres")
	}
	if cfg.EventLog.Capacity == 0 {
		errs = append(errs, "EVENT_LOG_CAPACITY must be positive")
	}
	if cfg.Stripe.CallTimeout >= cfg.Authorization.ResponseBudget {
		errs = append(errs, "PROVIDER_CALL_TIMEOUT must be shorter than AUTHORIZATION_RESPONSE_BUDGET")
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func stringVar(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
