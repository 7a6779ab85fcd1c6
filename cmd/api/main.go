package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"chunkvault/internal/chunk"
	"chunkvault/internal/config"
	"chunkvault/internal/database"
	"chunkvault/internal/database/migration"
	handlers "chunkvault/internal/http/handler"
	"chunkvault/internal/http/middleware"
	"chunkvault/internal/logging"
	"chunkvault/internal/metrics"
	"chunkvault/internal/otel"
	"chunkvault/internal/repository"
	"chunkvault/internal/repository/postgres"
	"chunkvault/internal/service"
	"chunkvault/internal/storage"
	"chunkvault/internal/stream"
	"chunkvault/internal/token"
)

// @title chunkvault API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location())

	if err := run(cfg, log); err != nil {
		log.Error("server_exit", err, nil)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	tokens, err := token.New(cfg.Token.Secret, cfg.Token.TTL)
	if err != nil {
		return fmt.Errorf("TOKEN_SECRET: %w", err)
	}

	chunks, err := chunk.NewStore(cfg.Storage.ChunkDir)
	if err != nil {
		return err
	}

	files, err := newFileStorage(cfg)
	if err != nil {
		return fmt.Errorf("init file storage: %w", err)
	}

	health := map[string]handlers.HealthCheckFunc{"storage": files.Ping}

	// The registry is optional; without DB_HOST files are served from storage alone.
	var repo repository.FileRepository = repository.Nop{}
	if cfg.Database.Enabled() {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
		repo = postgres.NewFilePostgres(db)
		health["database"] = db.PingContext
		logDatabase(log, cfg, db)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	// Initialize services
	uploadSvc := service.NewUploadService(chunks, files, repo, tokens, rec, log)
	contentSvc := service.NewContentService(files, repo, tokens, stream.New(cfg.Stream.BufferBytes), rec, log)

	app := fiber.New(fiber.Config{
		AppName:               "chunkvault",
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler(log),
	})

	// Register global middleware. Order matters: the Prometheus middleware sits
	// outside Logger so it observes the status written by the ErrorHandler.
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Error("panic_recovered", fmt.Errorf("%v", e), map[string]any{
				"path":  c.Path(),
				"stack": string(debug.Stack()),
			})
		},
	}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(promMiddleware.Handler())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.LoggerWithWriter(os.Stdout, cfg.Location()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, handlers.Dependencies{
		Upload:   uploadSvc,
		Content:  contentSvc,
		Guard:    middleware.NewRefererGuard(cfg.Stream.AllowedReferers),
		Health:   health,
		Gatherer: reg,
		Log:      log,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", map[string]any{
			"addr":             addr,
			"storage_backend":  cfg.Storage.Backend,
			"chunk_dir":        cfg.Storage.ChunkDir,
			"allowed_referers": cfg.Stream.AllowedReferers,
			"token_ttl":        cfg.Token.TTL.String(),
		})
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_stopping", nil)
	return app.ShutdownWithTimeout(10 * time.Second)
}

// newFileStorage selects the assembled-file backend.
func newFileStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return storage.NewLocal(cfg.Storage.UploadDir)
	case "minio":
		// Initialize reusable S3-compatible object storage client (MinIO-supported)
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

func logDatabase(log *logging.Logger, cfg *config.AppConfig, db *sql.DB) {
	st := db.Stats()
	log.Info("db_connected", map[string]any{
		"component":      "database",
		"db_host":        cfg.Database.Host,
		"max_open_conns": st.MaxOpenConnections,
	})
}
