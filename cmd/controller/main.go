package main

// @title           Edge Controller API
// @version         1.0
// @description     Controller for a fleet of edge proxy agents. Bootstraps agents with single-use tokens, serves their configuration on poll and resolves GeoDNS locations to live agents.
// @termsOfService  http://swagger.io/terms/
// @contact.name   API Support
// @contact.url    http://www.example.com/support
// @contact.email  support@example.com
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.basic  BasicAuth
// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       Authorization

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/Alwanly/service-edge-controller/docs/controller"
	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/handler"
	authentication "github.com/Alwanly/service-edge-controller/pkg/auth"
	"github.com/Alwanly/service-edge-controller/pkg/database"
	"github.com/Alwanly/service-edge-controller/pkg/deps"
	"github.com/Alwanly/service-edge-controller/pkg/geoip"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/metrics"
	"github.com/Alwanly/service-edge-controller/pkg/middleware"
	"github.com/Alwanly/service-edge-controller/pkg/poll"
	"github.com/Alwanly/service-edge-controller/pkg/pubsub"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	log, err := logger.NewLoggerFromEnv("controller")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting controller service")

	cfg, err := config.LoadControllerConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("server_addr", cfg.ServerAddr),
		logger.String("database_path", cfg.DatabasePath),
		logger.Duration("default_poll_interval", cfg.DefaultPollInterval),
		logger.Duration("sweep_interval", cfg.SweepInterval),
	)

	auth := middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	})
	mid := middleware.NewAuthMiddleware(auth)
	log.Info("authentication initialized")

	db, err := database.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database initialized", logger.String("path", cfg.DatabasePath))

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	log.Info("database migrations applied successfully")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	geoClient, err := geoip.NewClient(geoip.Config{
		BaseURL:       cfg.GeoIP.BaseURL,
		Timeout:       cfg.GeoIP.Timeout,
		CacheSize:     cfg.GeoIP.CacheSize,
		RatePerMinute: cfg.GeoIP.RatePerMinute,
	}, log, m)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize geoip client")
	}

	app := fiber.New(fiber.Config{
		AppName:                 "Edge Controller",
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(log),
		EnableTrustedProxyCheck: len(cfg.TrustedProxies) > 0,
		TrustedProxies:          cfg.TrustedProxies,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))

	deps := deps.App{
		Fiber:      app,
		Database:   db,
		Logger:     log,
		Middleware: mid,
		Poller:     poll.NewPoller(log),
		GeoIP:      geoClient,
		Metrics:    m,
		Registry:   registry,
	}

	if cfg.Redis != nil {
		redisCfg := pubsub.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		redisPub, err := pubsub.NewRedisPubSub(redisCfg, log)
		if err != nil {
			log.WithError(err).Error("Failed to initialize Redis pub/sub, agent events will not be published",
				logger.String("impact", "agent_events_disabled"))
		} else {
			deps.Pub = redisPub
			log.Info("Redis pub/sub initialized successfully",
				logger.String("host", cfg.Redis.Host),
				logger.Int("port", cfg.Redis.Port))
			defer redisPub.Close()
		}
	} else {
		log.Info("no Redis configuration provided; skipping pub/sub initialization")
	}

	handler.NewHandler(deps, cfg)

	app.Get("/swagger/*", swagger.HandlerDefault)

	ctx, cancel := context.WithCancel(context.Background())
	gErr, gCtx := errgroup.WithContext(ctx)

	gErr.Go(func() error {
		log.Info("controller service is running", logger.String("address", cfg.ServerAddr))
		if err := app.Listen(cfg.ServerAddr); err != nil {
			cancel()
			return err
		}
		return nil
	})

	if err := deps.Poller.Start(gCtx); err != nil {
		log.WithError(err).Fatal("failed to start liveness sweeper")
	}

	gErr.Go(func() error {
		<-gCtx.Done()

		if err := deps.Poller.Stop(); err != nil {
			log.WithError(err).Error("failed to stop liveness sweeper")
		}

		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("failed to shutdown fiber app")
			return err
		}

		conn, err := db.DB()
		if err != nil {
			log.WithError(err).Error("failed to get database connection")
			return err
		}
		if err := conn.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
			return err
		}

		return nil
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		log.Info("listening for shutdown signals")
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	if err := gErr.Wait(); err != nil {
		log.WithError(err).Fatal("controller service encountered an error")
	}

	log.Info("controller service stopped gracefully")
}
