package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiscalapp "github.com/erp/backoffice/internal/application/fiscal"
	salesapp "github.com/erp/backoffice/internal/application/sales"
	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/ecommerce"
	"github.com/erp/backoffice/internal/infrastructure/event"
	"github.com/erp/backoffice/internal/infrastructure/export"
	"github.com/erp/backoffice/internal/infrastructure/focusnfe"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/migration"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/scheduler"
	"github.com/erp/backoffice/internal/infrastructure/storage"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/interfaces/http/router"
	"github.com/erp/backoffice/migrations"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Back-office API
//	@version		1.0
//	@description	Marketplace order financials and NF-e emission for small sellers
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry starts first so the log bridge can be teed into the main logger
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	log, err := logger.New(logCfg, providers.Logs.ZapCore(cfg.Telemetry.ServiceName, level))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting back-office API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithTracing(cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := migrate(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	documentRepo := persistence.NewGormFiscalDocumentRepository(db.DB)

	// Coordination state: Redis when configured, process memory otherwise
	var (
		locks       shared.LockStore
		revocations auth.RevocationList
		redisLocks  *cache.RedisLockStore
	)
	if cfg.Redis.Enabled {
		redisLocks, err = cache.NewRedisLockStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		locks = redisLocks
		revocations = auth.NewRedisRevocationList(redisLocks.Client())
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locks = cache.NewInMemoryLockStore()
		revocations = auth.NewInMemoryRevocationList()
		log.Warn("Redis disabled, emission locks are local to this instance")
	}

	// Events
	bus := event.NewBus(log)
	bus.Subscribe(event.NewAuditLogHandler(log))

	// Fiscal
	focusClient, err := focusnfe.NewClient(focusnfe.ConfigFromApp(cfg.Focus), focusnfe.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create invoicing client", zap.Error(err))
	}
	defaultEnv, _ := fiscal.ParseEnvironment(cfg.Fiscal.DefaultEnvironment)
	fiscalService := fiscalapp.NewService(documentRepo, orderRepo, focusClient, locks, fiscalapp.Config{
		DefaultEnvironment: defaultEnv,
		LegacyStatusProbe:  cfg.Fiscal.LegacyStatusProbe,
		BatchConcurrency:   cfg.Fiscal.BatchConcurrency,
		BatchDelay:         cfg.Fiscal.BatchDelay,
		EmissionLockTTL:    cfg.Fiscal.EmissionLockTTL,
		Invoice: fiscalapp.InvoiceDefaults{
			IssuerCNPJ:        cfg.Fiscal.IssuerCNPJ,
			NatureOfOperation: cfg.Fiscal.NatureOfOperation,
			NCM:               cfg.Fiscal.DefaultNCM,
			CFOP:              cfg.Fiscal.DefaultCFOP,
			ICMSCode:          cfg.Fiscal.DefaultICMSCode,
		},
	}, log)
	fiscalService.SetEventPublisher(bus)
	fiscalService.SetMetrics(providers.Metrics)

	if cfg.Storage.Enabled {
		artifacts, err := storage.NewS3ArtifactStore(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize invoice storage", zap.Error(err))
		}
		fiscalService.SetArtifactStore(artifacts)
		log.Info("Invoice archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	// Orders and financials
	orderService := salesapp.NewOrderService(
		orderRepo,
		ecommerce.NewRegistry(cfg.Marketplace),
		ecommerce.NewConfigCredentialProvider(cfg.Marketplace),
		log,
	)
	orderService.SetExporter(export.NewXLSXExporter())
	orderService.SetEventPublisher(bus)
	orderService.SetMetrics(providers.Metrics)

	// Background jobs
	jobs := scheduler.New(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout}, log)
	if cfg.Scheduler.Enabled {
		companies, err := scheduler.ParseCompanies(cfg.Scheduler.Companies)
		if err != nil {
			log.Fatal("Invalid scheduler companies", zap.Error(err))
		}
		for _, job := range []scheduler.Job{
			{
				Name:     "fiscal-sync-pending",
				Interval: cfg.Scheduler.FiscalSyncInterval,
				Run:      scheduler.ForEachCompany(companies, fiscalService.SyncPendingTask),
			},
			{
				Name:       "orders-import-recent",
				Interval:   cfg.Scheduler.OrderSyncInterval,
				RunOnStart: true,
				Run:        scheduler.ForEachCompany(companies, orderService.ImportRecentTask(2*cfg.Scheduler.OrderSyncInterval)),
			},
		} {
			if err := jobs.Register(job); err != nil {
				log.Fatal("Failed to register job", zap.String("job", job.Name), zap.Error(err))
			}
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		log.Info("Scheduler started", zap.Int("companies", len(companies)))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", db.Ping)
	if redisLocks != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisLocks.Client().Ping(ctx).Err()
		})
	}

	jwtCfg := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtCfg.Revocations = revocations
	jwtCfg.Logger = log
	apiMiddleware := []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.SpanAttributes(),
	}
	if cfg.HTTP.RateLimitPerSecond > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitPerSecond, cfg.HTTP.RateLimitBurst)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
	}

	router.NewRouter(engine,
		router.WithMiddleware(apiMiddleware...),
		router.WithProbe("/health", systemHandler.Health),
		router.WithProbe("/ready", systemHandler.Ready),
	).
		Register(systemHandler).
		Register(handler.NewFiscalHandler(fiscalService)).
		Register(handler.NewFinancialsHandler(orderService)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, srv.Shutdown(shutdownCtx))
	if jobs.IsRunning() {
		errs = multierr.Append(errs, jobs.Stop(shutdownCtx))
	}
	errs = multierr.Append(errs, locks.Close())
	errs = multierr.Append(errs, db.Close())
	errs = multierr.Append(errs, providers.Shutdown(shutdownCtx))
	for _, err := range multierr.Errors(errs) {
		log.Error("Shutdown step failed", zap.Error(err))
	}

	log.Info("Server exited")
}

// migrate applies the embedded migrations. The migrator is not closed because
// closing it would close the shared connection pool.
func migrate(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}
