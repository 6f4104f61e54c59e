package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/data-collector/internal/api/http"
	"github.com/spec-kit/data-collector/internal/api/http/handlers"
	"github.com/spec-kit/data-collector/internal/auth"
	"github.com/spec-kit/data-collector/internal/config"
	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/events"
	"github.com/spec-kit/data-collector/internal/observability"
	"github.com/spec-kit/data-collector/internal/persistence"
	"github.com/spec-kit/data-collector/internal/repository"
	"github.com/spec-kit/data-collector/internal/service"
	"github.com/spec-kit/data-collector/internal/worker"
	"github.com/spec-kit/data-collector/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	var store auth.TokenStore = auth.NewMemoryTokenStore()
	if cfg.TokenStore.Driver == config.TokenStoreRedis {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		store = auth.NewRedisTokenStore(redis.Client, cfg.TokenStore.RedisKey)
	}

	httpClient := &http.Client{Transport: http.DefaultTransport}
	creds := domain.Credentials{ClientID: cfg.FranceTravail.ClientID, ClientSecret: cfg.FranceTravail.ClientSecret}
	tokens := auth.NewTokenManager(creds, auth.TokenEndpoint{
		URL:     cfg.FranceTravail.AuthURL,
		Scope:   cfg.FranceTravail.Scope,
		Timeout: cfg.FranceTravail.AuthTimeout(),
	}, store, logger.Named("token"), auth.WithHTTPClient(httpClient), auth.WithMetrics(metrics))
	tokens.Warmup(ctx)

	dispatcher := events.NewInMemoryDispatcher(logger)

	var historyRepo repository.SearchHistoryRepository
	if pg.Enabled() {
		historyRepo = repository.NewSearchHistoryRepository(pg.PoolHandle())
	}
	historyService := service.NewHistoryService(historyRepo, dispatcher, logger.Named("history"))
	pruner, err := worker.StartHistoryWorker(ctx, historyService, cfg.History.PruneSchedule, cfg.History.Retention(), logger)
	if err != nil {
		logger.Fatal("failed to start history worker", zap.Error(err))
	}
	if pruner != nil {
		defer pruner.Stop()
	}

	searchService := service.NewSearchService(service.SearchEndpoint{
		URL:     cfg.FranceTravail.SearchURL,
		Timeout: cfg.FranceTravail.SearchTimeout(),
	}, service.SearchDependencies{
		Tokens:     tokens,
		HTTPClient: httpClient,
		Cache:      service.NewResultCache(cfg.Search.CacheTTL()),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger.Named("search"),
	})

	pageHandler, err := handlers.NewPageHandler("Data Collector")
	if err != nil {
		logger.Fatal("failed to render page", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, tokens, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Page:    pageHandler,
		Search:  handlers.NewSearchHandler(searchService),
		History: handlers.NewHistoryHandler(historyService),
		Metrics: metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
