// AngelaMos | 2026
// serve.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/admin"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/config"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/devgateway"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/gateway"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/health"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/middleware"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/server"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/session"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/web"
)

const drainDelay = 5 * time.Second

func newServeCmd() *cobra.Command {
	var withDevGateway bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front-end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flagConfig, withDevGateway)
		},
	}

	cmd.Flags().BoolVar(&withDevGateway, "dev-gateway", false,
		"start the in-memory development gateway and point the front-end at it")

	return cmd
}

//nolint:funlen // bootstrap code is inherently verbose
func runServe(parent context.Context, configPath string, withDevGateway bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized", "endpoint", cfg.Otel.Endpoint)
		}
	}

	if withDevGateway {
		if err := startDevGateway(ctx, cfg, logger); err != nil {
			return err
		}
	}

	backend, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close(logger)

	sealer, err := buildSealer(cfg.Session, logger)
	if err != nil {
		return err
	}

	client, err := gateway.NewClient(cfg.Gateway, gateway.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("gateway configured", "base_url", cfg.Gateway.BaseURL, "timeout", cfg.Gateway.Timeout)

	manager := session.NewManager(
		backend.storage,
		auth.NewDecoder(),
		client,
		session.WithSealer(sealer),
		session.WithTTL(cfg.Session.TTL),
		session.WithLogger(logger),
	)

	onError, err := guard.ParseFailurePolicy(cfg.Guard.ApprovalOnError)
	if err != nil {
		return err
	}
	onMissing, err := guard.ParseFailurePolicy(cfg.Guard.ApprovalOnMissing)
	if err != nil {
		return err
	}
	approval := guard.NewApprovalGuard(client,
		guard.OnError(onError),
		guard.OnMissing(onMissing),
		guard.WithLogger(logger),
	)
	logger.Info("approval gate configured", "on_error", onError, "on_missing", onMissing)

	if p, ok := backend.storage.(session.Purger); ok && cfg.Session.PurgeInterval > 0 {
		go session.RunJanitor(ctx, p, cfg.Session.PurgeInterval, logger)
	}

	healthHandler := health.NewHandler(
		health.Check{Name: "storage", Checker: backend.storage},
		health.Check{Name: "gateway", Checker: client},
	)

	var stats admin.StatsSource
	if sr, ok := backend.storage.(session.StatsReporter); ok {
		stats = sr
	}
	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Storage:     stats,
		StoragePing: backend.storage,
		Gateway:     client,
		Policy: admin.GuardPolicy{
			ApprovalOnError:   onError.String(),
			ApprovalOnMissing: onMissing.String(),
			UnguardedPrefixes: web.UnguardedPrefixes,
		},
	})

	ui, err := web.New(web.Config{
		Gateway:  client,
		Approval: approval,
		Admin:    adminHandler,
		Throttle: middleware.RateLimitConfig{
			Limit: middleware.Per(cfg.RateLimit.Requests, cfg.RateLimit.Burst, cfg.RateLimit.Window),
		},
		Redis:  backend.redis,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))

	healthHandler.RegisterRoutes(router)

	cookie := session.ClientCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.ClientIDMaxAge,
	}
	router.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(manager, cookie, logger))
		ui.RegisterRoutes(r)
	})

	logger.Warn("pages mounted with sign-in only, no role guard",
		"prefixes", web.UnguardedPrefixes,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func startDevGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dev, err := devgateway.New(cfg.DevGateway, cfg.Gateway, devgateway.WithLogger(logger))
	if err != nil {
		return err
	}

	go func() {
		if err := dev.ListenAndServe(ctx, cfg.DevGateway.Addr); err != nil {
			logger.Error("dev gateway stopped", "error", err)
		}
	}()

	cfg.Gateway.BaseURL = "http://" + cfg.DevGateway.Addr
	logger.Warn("using in-memory development gateway",
		"addr", cfg.DevGateway.Addr,
		"password", devgateway.SeedPassword,
	)
	return nil
}

type storageBackend struct {
	storage session.Storage
	redis   *redis.Client
	closers []func() error
}

func (b *storageBackend) close(logger *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Error("storage close error", "error", err)
		}
	}
}

// openStorage connects the configured credential store. A redis URL
// also backs the login throttle when credentials live elsewhere.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storageBackend, error) {
	b := &storageBackend{}

	if cfg.Redis.URL != "" {
		rdb, err := core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.redis = rdb.Client
		b.closers = append(b.closers, rdb.Close)
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	}

	switch cfg.Session.Storage {
	case config.StorageMemory:
		b.storage = session.NewMemoryStorage()

	case config.StorageRedis:
		b.storage = session.NewRedisStorage(b.redis)

	case config.StoragePostgres:
		db, err := core.NewPostgres(ctx, cfg.Database)
		if err != nil {
			b.close(logger)
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if err := migrate(ctx, b, db); err != nil {
			return nil, err
		}
		logger.Info("database connected",
			"driver", db.Driver,
			"max_open_conns", cfg.Database.MaxOpenConns,
		)

	case config.StorageSQLite:
		db, err := core.NewSQLite(ctx, cfg.SQLite)
		if err != nil {
			b.close(logger)
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if err := migrate(ctx, b, db); err != nil {
			return nil, err
		}
		logger.Info("database connected", "driver", db.Driver, "path", cfg.SQLite.Path)

	default:
		return nil, fmt.Errorf("unknown session storage %q", cfg.Session.Storage)
	}

	logger.Info("credential storage ready", "storage", cfg.Session.Storage)
	return b, nil
}

func migrate(ctx context.Context, b *storageBackend, db *core.Database) error {
	s := session.NewSQLStorage(db.DB)
	if err := s.Migrate(ctx); err != nil {
		b.close(slog.Default())
		return err
	}
	b.storage = s
	return nil
}

func buildSealer(cfg config.SessionConfig, logger *slog.Logger) (*core.Sealer, error) {
	if cfg.EncryptionKey != "" {
		key, err := core.ParseSealKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		return core.NewSealer(key)
	}

	key, err := core.GenerateSealKey()
	if err != nil {
		return nil, err
	}
	if cfg.Storage != config.StorageMemory {
		logger.Warn("no session.encryption_key set, stored credentials will be unreadable after restart",
			"storage", cfg.Storage,
		)
	}
	return core.NewSealer(key)
}
