package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/oklog/run"
	"github.com/redis/go-redis/v9"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/db"
	"github.com/taskboard/backend/internal/infrastructure/events"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	transporthttp "github.com/taskboard/backend/internal/transport/http"
	httpmw "github.com/taskboard/backend/internal/transport/http/middleware"
)

func defaultConfigPath() string {
	p := "config/config.yaml"
	if _, err := os.Stat(p); os.IsNotExist(err) {
		p = "../config/config.yaml"
	}
	return p
}

func main() {
	app := kingpin.New("server", "Kanban task board API server.")
	path := app.Flag("config", "Path to the YAML config file.").Short('c').Envar("TASKBOARD_CONFIG").Default(defaultConfigPath()).String()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := Run(context.Background(), cfg, log); err != nil {
		log.Errorw("server_exited_with_error", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Info("server exited gracefully")
}

// Run starts the HTTP server and the density auditor and blocks until a
// termination signal arrives or one of them fails.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	database, err := db.NewConnection(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Errorw("db_close_failed", "error", err)
		}
	}()
	log.Infow("database_connected", "driver", cfg.Database.Driver)

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")

	var (
		publisher  ports.EventPublisher
		subscriber ports.EventSubscriber
	)
	if cfg.Redis.Addr != "" {
		rc, err := events.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func(rc *redis.Client) {
			if err := rc.Close(); err != nil {
				log.Warnw("redis_close_failed", "error", err)
			}
		}(rc)
		bus := events.NewRedisBus(rc, cfg.Redis.ChannelPrefix, log)
		publisher, subscriber = bus, bus
		log.Infow("board_events_redis", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.ChannelPrefix)
	} else {
		bus := events.NewMemoryBus()
		publisher, subscriber = bus, bus
		log.Info("board events kept in process, redis.addr is empty")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          httpmw.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "http://localhost:3000"
	if len(cfg.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Auth.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token, " + cfg.Features.RequestIDHeader,
		AllowMethods: "GET, POST, HEAD, PUT, DELETE, PATCH",
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log))
	}

	auditService := transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		DB:         database,
		Logger:     log,
		Config:     cfg,
		Publisher:  publisher,
		Subscriber: subscriber,
	})

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				log.Info("shutting down server...")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// HTTP server.
	{
		addr := cfg.Server.Address()
		g.Add(
			func() error {
				log.Infof("server started on %s", addr)
				if err := app.Listen(addr); err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			},
			func(_ error) {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := app.ShutdownWithContext(shutdownCtx); err != nil {
					log.Errorf("server forced to shutdown: %v", err)
				}
			},
		)
	}

	// Density auditor.
	if cfg.Audit.Schedule != "" {
		scheduler := services.NewAuditScheduler(auditService, log)
		if _, err := scheduler.Schedule(cfg.Audit.Schedule); err != nil {
			return err
		}
		stop := make(chan struct{})
		g.Add(
			func() error {
				log.Infow("audit_scheduler_started", "schedule", cfg.Audit.Schedule, "repair", cfg.Audit.Repair)
				scheduler.Start()
				<-stop
				return nil
			},
			func(_ error) {
				scheduler.Stop()
				close(stop)
			},
		)
	}

	if err := g.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
