package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/Alwanly/service-edge-controller/internal/config"
	agenthandler "github.com/Alwanly/service-edge-controller/internal/server/agent/handler"
	"github.com/Alwanly/service-edge-controller/internal/server/agent/repository"
	"github.com/Alwanly/service-edge-controller/internal/server/agent/usecase"
	controllerdto "github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/middleware"
	"github.com/Alwanly/service-edge-controller/pkg/pubsub"
)

func main() {
	log, err := logger.NewLoggerFromEnv("agent")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting agent service")

	cfg, err := config.LoadAgentConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("controller_url", cfg.ControllerURL),
		logger.String("agent_addr", cfg.AgentAddr),
		logger.Bool("has_connect_token", cfg.ConnectToken != ""),
		logger.String("credentials_file", cfg.CredentialsFile),
	)

	app := fiber.New(fiber.Config{DisableStartupMessage: true, ErrorHandler: middleware.ErrorHandler(log)})
	app.Use(recover.New())

	controllerClient := repository.NewControllerClient(cfg, log)
	uc := usecase.NewUseCase(controllerClient, repository.NewRepository(), cfg, log)

	h := agenthandler.NewHandler(uc, log)
	h.RegisterRoutes(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Health is served while connecting so orchestrators can see progress.
	g.Go(func() error {
		log.Info("starting HTTP server", logger.String("address", cfg.AgentAddr))
		if err := app.Listen(cfg.AgentAddr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	if cfg.Redis != nil {
		sub, err := pubsub.NewRedisPubSub(pubsub.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, relying on the poll interval alone")
		} else {
			defer sub.Close()
			msgs, err := sub.Subscribe(gCtx, controllerdto.AgentEventsChannel)
			if err != nil {
				log.WithError(err).Warn("failed to subscribe to agent events")
			} else {
				go uc.Listen(gCtx, msgs)
			}
		}
	}

	g.Go(func() error {
		creds, err := uc.Connect(gCtx)
		if err != nil {
			if gCtx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to connect to controller: %w", err)
		}
		log.WithAgentID(creds.AgentID).Info("agent connected, starting poll loop")
		return uc.Run(gCtx)
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("received shutdown signal", logger.String("signal", sig.String()))
		case <-gCtx.Done():
			log.Info("context cancelled")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("error during server shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("agent service stopped with error")
		os.Exit(1)
	}

	log.Info("agent service stopped gracefully")
}
