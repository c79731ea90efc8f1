// @title Savings Circle API
// @version 1.0
// @description Group lifecycle, position draw and live reveal for savings circles.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"savingscircle/config"
	"savingscircle/internal/adapters/auth"
	"savingscircle/internal/adapters/email"
	"savingscircle/internal/broker"
	delivery "savingscircle/internal/delivery/http"
	"savingscircle/internal/delivery/http/controllers"
	"savingscircle/internal/delivery/http/middleware"
	"savingscircle/internal/domain"
	"savingscircle/internal/repository/memory"
	"savingscircle/internal/repository/postgres"
	"savingscircle/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, ping, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	notifier := services.NewEmailNotifier(services.NewEmailService(mailer, email.NewTemplateRenderer(), logger))

	snapshots := services.NewSnapshotReader(store, cfg.RequestTimeout)
	metrics := broker.NewMetrics(prometheus.DefaultRegisterer)
	b := broker.New(snapshots, broker.Config{QueueSize: cfg.WSBufferSize, WriteTimeout: cfg.WSWriteTimeout}, metrics, logger)
	defer b.Close()

	locks := services.NewGroupLocker()
	lifecycle := services.NewLifecycleService(store, services.NewDrawEngine(nil), b, notifier, locks, logger, cfg.RequestTimeout)
	memberships := services.NewMembershipService(store, b, locks, logger, cfg.RequestTimeout)
	contributions := services.NewContributionService(store, locks, logger, cfg.StrictContributionOrder, cfg.RequestTimeout)

	mux := delivery.NewRouter(delivery.RouterDeps{
		Groups:        controllers.NewGroupController(logger, lifecycle, memberships),
		Contributions: controllers.NewContributionController(logger, contributions),
		Live:          controllers.NewLiveController(logger, snapshots, b),
		Verifier:      auth.NewJWTVerifier(cfg.JWTSecret),
		Metrics:       promhttp.Handler(),
		Health:        ping,
		Logger:        logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var relay *broker.RedisRelay
	if cfg.RedisURL != "" {
		client, err := broker.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		relay = broker.NewRedisRelay(client, metrics, logger)
		b.SetForwarder(relay)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx, b) })
		logger.Info("cross-instance relay enabled")
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		// Live viewers hold hijacked connections that Shutdown does not wait for.
		b.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the configured group store, a health probe for it and a release func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.GroupStore, delivery.Pinger, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil, func() {}, nil
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("ping database: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return postgres.NewGroupStore(db), db.PingContext, func() { db.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
}
