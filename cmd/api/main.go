package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/mileage-skill/internal/api/http"
	"github.com/spec-kit/mileage-skill/internal/api/http/handlers"
	"github.com/spec-kit/mileage-skill/internal/config"
	"github.com/spec-kit/mileage-skill/internal/delivery"
	"github.com/spec-kit/mileage-skill/internal/observability"
	"github.com/spec-kit/mileage-skill/internal/persistence"
	"github.com/spec-kit/mileage-skill/internal/repository"
	"github.com/spec-kit/mileage-skill/internal/service"
	"github.com/spec-kit/mileage-skill/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dependencies := map[string]handlers.Pinger{}

	var sessions repository.SessionRepository
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		dependencies["redis"] = redis
		sessions = repository.NewRedisSessionRepository(redis.Client, cfg.Session.TTL())
	case config.SessionStorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		dependencies["postgres"] = pg
		sessions = repository.NewPostgresSessionRepository(pg.PoolHandle(), cfg.Session.TTL())
	default:
		sessions = repository.NewMemorySessionRepository(cfg.Session.TTL())
	}

	sheets := persistence.NewSheets(cfg.Sheets, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		RosterRepo:  repository.NewRosterRepository(sheets, cfg.Sheets),
		SessionRepo: sessions,
		Layout:      cfg.Sheets.Roster,
	})
	pointsService := service.NewPointsService(service.PointsDependencies{
		PointsRepo:  repository.NewPointsRepository(sheets, cfg.Sheets),
		SessionRepo: sessions,
		Layout:      cfg.Sheets.Points,
	})

	runner := worker.NewDeferredRunner(logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Skill: handlers.NewSkillHandler(handlers.SkillDependencies{
			AuthService:   authService,
			PointsService: pointsService,
			Deliverer:     delivery.NewCallbackClient(cfg.Callback.Timeout(), logger, metrics),
			Runner:        runner,
			Logger:        logger,
			Metrics:       metrics,
		}),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	logger.Info("server listening",
		zap.String("addr", cfg.App.Addr()),
		zap.String("session_store", cfg.Session.Store),
		zap.String("roster_range", cfg.Sheets.RosterRange),
		zap.String("points_range", cfg.Sheets.PointsRange))

	waitForShutdown(logger)

	_ = app.Shutdown()

	drainCtx := context.Background()
	if timeout := cfg.App.ShutdownTimeout(); timeout > 0 {
		var drainCancel context.CancelFunc
		drainCtx, drainCancel = context.WithTimeout(drainCtx, timeout)
		defer drainCancel()
	}
	if err := runner.Wait(drainCtx); err != nil {
		logger.Warn("deferred callbacks still running at shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
