package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "cardauth/internal/authorization/handler"
	authmetrics "cardauth/internal/authorization/metrics"
	"cardauth/internal/authorization/policy"
	"cardauth/internal/authorization/service"
	"cardauth/internal/eventlog"
	eventloghandler "cardauth/internal/eventlog/handler"
	eventlogmetrics "cardauth/internal/eventlog/metrics"
	jwttoken "cardauth/internal/jwt_token"
	"cardauth/internal/platform/config"
	"cardauth/internal/platform/httpserver"
	"cardauth/internal/platform/logger"
	platformmetrics "cardauth/internal/platform/metrics"
	"cardauth/internal/provider"
	"cardauth/internal/provider/issuing"
	providermetrics "cardauth/internal/provider/metrics"
	"cardauth/internal/simulation"
	httptransport "cardauth/internal/transport/http"
	"cardauth/internal/webhook"
	webhookmetrics "cardauth/internal/webhook/metrics"
	"cardauth/pkg/platform/circuit"
	"cardauth/pkg/platform/middleware/admin"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		slog.Error("cardauth exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.DefaultRegisterer
	appMetrics := platformmetrics.New(reg)

	policies, err := policy.NewStore(ctx, policy.FileSource{Path: cfg.Authorization.PolicyPath}, log)
	if err != nil {
		return err
	}

	stripeClient, err := issuing.New(issuing.Config{
		SecretKey: cfg.Stripe.SecretKey,
		BaseURL:   cfg.Stripe.BaseURL,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	notifier := provider.NewGuarded(stripeClient,
		provider.WithTimeout(cfg.Stripe.CallTimeout),
		provider.WithBreaker(circuit.New("stripe-issuing")),
		provider.WithLogger(log),
		provider.WithMetrics(providermetrics.New(reg)),
	)

	authz, err := service.New(policies, notifier,
		service.WithLogger(log),
		service.WithMetrics(authmetrics.New(reg)),
		service.WithReplayCache(cfg.Authorization.ReplayCacheSize, cfg.Authorization.ReplayCacheTTL),
	)
	if err != nil {
		return err
	}

	events, err := buildEventLog(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer events.close()
	recorder := eventlog.NewRecorder(events.store,
		eventlog.WithAsyncBuffer(cfg.EventLog.AsyncBuffer),
		eventlog.WithRecorderLogger(log),
		eventlog.WithRecorderMetrics(eventlogmetrics.New(reg)),
	)
	defer recorder.Close()

	webhookOpts := []webhook.Option{
		webhook.WithResponseBudget(cfg.Authorization.ResponseBudget),
		webhook.WithMetrics(webhookmetrics.New(reg)),
	}
	if cfg.Stripe.WebhookSecret != "" {
		webhookOpts = append(webhookOpts, webhook.WithVerifier(issuing.NewVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance)))
	}
	webhookHandler := webhook.New(authz, recorder, log, webhookOpts...)
	eventsHandler := eventloghandler.New(events.store, log)
	simulationHandler := simulation.NewHandler(simulation.NewService(authz, recorder, log), log)
	adminHandler := authhandler.New(authz, policies, log)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	if cfg.Server.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN not set, admin endpoints accept bearer tokens only")
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Logger:       log,
		Public:       []httptransport.PublicRoutes{webhookHandler, eventsHandler, simulationHandler},
		Admin:        []httptransport.AdminRoutes{eventsHandler, adminHandler},
		AdminAuth:    admin.RequireAdmin(cfg.Server.AdminToken, jwtService, log),
		Metrics:      promhttp.Handler(),
		HealthChecks: events.checks,
	})
	appMetrics.SetBuildInfo(cfg.EventLog.Backend, cfg.Stripe.WebhookSecret != "")

	go reloadOnHangup(ctx, policies, appMetrics, log)

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Authorization.ResponseBudget)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting cardauth",
			"addr", cfg.Server.Addr,
			"policy", policy.FileSource{Path: cfg.Authorization.PolicyPath}.Describe(),
			"policy_version", policies.Current().Version,
			"event_log", cfg.EventLog.Backend,
			"kafka_mirror", len(cfg.EventLog.KafkaBrokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// reloadOnHangup reloads the policy on SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, policies *policy.Store, m *platformmetrics.Metrics, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			_, err := policies.Reload(ctx)
			m.IncrementPolicyReload("sighup", err)
			if err == nil {
				log.InfoContext(ctx, "policy reloaded on SIGHUP", "version", policies.Current().Version)
			}
		}
	}
}
