package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/lock"
	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/repository/remote"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/store/memory"
	"github.com/utafrali/storefront/internal/store/postgres"
	"github.com/utafrali/storefront/internal/store/postgres/migrations"
	"github.com/utafrali/storefront/internal/store/rest"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Version is reported to the tracing backend.
var Version = "dev"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    handler.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	client, err := a.openStore(ctx)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	if cfg.NeedsRedis() {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		logger.Info("connected to Redis")
	}

	// Line locks.
	var locker lock.Locker
	switch cfg.LockMode() {
	case lock.ModeNone:
		locker = lock.Noop{}
	case lock.ModeRedis:
		lockCfg := lock.DefaultRedisConfig()
		lockCfg.TTL = cfg.LockTTL()
		locker = lock.NewRedis(a.rdb, lockCfg, logger)
	default:
		locker = lock.NewLocal()
	}
	logger.Info("line locks configured", slog.String("mode", string(cfg.LockMode())))

	// Domain events.
	var publisher event.Publisher = event.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, domain events disabled")
	}

	// Session registry.
	var registry session.Registry = session.NewMemoryRegistry()
	if cfg.SessionRegistry == config.RegistryRedis {
		registry = session.NewRedisRegistry(a.rdb)
	}

	// Build the dependency graph.
	products := remote.NewProductRepository(client)
	wishlist := remote.NewWishlistRepository(client)
	accounts := remote.NewAccountRepository(client)

	deps := page.Deps{
		LineItems: service.NewLineItemService(
			remote.NewCartRepository(client), wishlist, products, locker, publisher, logger,
		),
		Catalog:        service.NewCatalogService(products, wishlist, logger),
		Inbox:          service.NewInboxService(remote.NewNotificationRepository(client), logger),
		Account:        service.NewAccountService(accounts, logger),
		WhatsAppNumber: cfg.WhatsAppNumber,
		NoticeDuration: cfg.NoticeDuration,
		Logger:         logger,
	}
	sessions := session.NewManager(
		remote.NewCredentialRepository(client),
		accounts,
		session.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry),
		registry,
		cfg.BcryptCost,
		logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("store", client.Ping)
	if a.rdb != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(deps, sessions, healthHandler, logger, handler.RouterConfig{
		CORS:           cors,
		RequestTimeout: cfg.RequestTimeout,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthBurst:      cfg.AuthBurst,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStore connects the configured remote store backend.
func (a *App) openStore(ctx context.Context) (store.Client, error) {
	cfg := a.cfg
	tracer := database.QueryTracer{SlowThreshold: cfg.SlowQueryThreshold, Logger: a.logger}

	switch cfg.StoreBackend {
	case config.StoreREST:
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = cfg.RemoteStoreTimeout
		httpCfg.MaxRetries = cfg.RemoteStoreMaxRetries
		doer := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpCfg),
			httpclient.DefaultCircuitBreakerConfig("remote-store"),
			a.logger,
		)
		client, err := rest.New(rest.Config{
			BaseURL: cfg.RemoteStoreURL,
			APIKey:  cfg.RemoteStoreAPIKey,
			Schema:  cfg.RemoteStoreSchema,
		}, doer, tracer, a.logger)
		if err != nil {
			return nil, fmt.Errorf("create rest store: %w", err)
		}
		a.logger.Info("using rest store", slog.String("url", cfg.RemoteStoreURL))
		return client, nil

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool

		if cfg.RunMigrations {
			if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, handler.ServiceName); err != nil {
			a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		tracer.System = "postgresql"
		a.logger.Info("using postgres store")
		return postgres.New(pool, tracer), nil

	default:
		seed, err := a.loadSeed()
		if err != nil {
			return nil, err
		}
		s := memory.New()
		if err := s.Load(ctx, seed); err != nil {
			return nil, fmt.Errorf("load seed: %w", err)
		}
		a.logger.Info("using in-memory store", slog.Int("products", s.Len(store.Products)))
		return s, nil
	}
}

func (a *App) loadSeed() (*memory.Seed, error) {
	if a.cfg.StoreSeedFile == "" {
		return memory.DefaultSeed(), nil
	}
	f, err := os.Open(a.cfg.StoreSeedFile)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := memory.DecodeSeed(f)
	if err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return seed, nil
}

// Handler returns the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
		a.tracerShutdown = nil
	}
}
