package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projecthub/backend/internal/audit"
	auditrepo "projecthub/backend/internal/audit/repository"
	boardrepo "projecthub/backend/internal/board/repository"
	commentrepo "projecthub/backend/internal/comment/repository"
	"projecthub/backend/internal/config"
	"projecthub/backend/internal/db"
	identityservice "projecthub/backend/internal/identity/service"
	membershipservice "projecthub/backend/internal/membership/service"
	"projecthub/backend/internal/policy/engine"
	projectrepo "projecthub/backend/internal/project/repository"
	"projecthub/backend/internal/security"
	"projecthub/backend/internal/server"
	"projecthub/backend/internal/server/middleware"
	"projecthub/backend/internal/store"
	taskrepo "projecthub/backend/internal/task/repository"
	"projecthub/backend/internal/telemetry"
	telemetryotel "projecthub/backend/internal/telemetry/otel"
	"projecthub/backend/internal/telemetry/producer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set; set DATABASE_URL or add it to .env")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Settings{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	var broker producer.Producer
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic); kp != nil {
		broker = kp
		emitters = append(emitters, kp)
		logger.Info("publishing events to kafka", "topic", kp.Topic())
	}
	events := telemetry.Multi(emitters...)

	keys, err := security.LoadKeySet(cfg.JWTAlgorithm, cfg.JWTSecret, cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return err
	}
	tokens := security.NewTokenCodec(keys, cfg.AccessTTL(), cfg.RefreshTTL())

	policySource, err := engine.LoadPolicy(cfg.AuthzPolicyFile)
	if err != nil {
		return err
	}
	policy, err := engine.NewOPAEvaluator(ctx, policySource)
	if err != nil {
		return err
	}

	pg := store.NewPostgres(conn)
	repos := pg.Repos()
	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditRepo, middleware.ClientIP, events)
	auth := identityservice.NewAuthService(repos.Users, pg, membershipservice.NewResolver(repos.Memberships),
		security.NewHasher(cfg.BcryptCost), tokens, auditLogger)

	handler := server.NewRouter(server.Deps{
		Auth:                auth,
		Tokens:              tokens,
		Users:               repos.Users,
		Orgs:                repos.Orgs,
		Members:             repos.Memberships,
		Projects:            projectrepo.NewPostgresRepository(conn),
		Boards:              boardrepo.NewPostgresRepository(conn),
		Tasks:               taskrepo.NewPostgresRepository(conn),
		Comments:            commentrepo.NewPostgresRepository(conn),
		Memberships:         repos.Memberships,
		Tx:                  pg,
		Policy:              policy,
		AuditLogs:           auditRepo,
		AuditLogger:         auditLogger,
		Events:              events,
		HealthPinger:        conn,
		HealthPolicyChecker: policy,
		Logger:              logger,
		CORSOrigins:         cfg.CORSOriginList(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	// Let in-flight async emits finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if broker != nil {
		if err := broker.Close(); err != nil {
			logger.Warn("kafka producer close", "error", err)
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
