package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/portal-auth-service/internal/api/http"
	"github.com/spec-kit/portal-auth-service/internal/api/http/handlers"
	"github.com/spec-kit/portal-auth-service/internal/auth"
	"github.com/spec-kit/portal-auth-service/internal/config"
	"github.com/spec-kit/portal-auth-service/internal/observability"
	"github.com/spec-kit/portal-auth-service/internal/persistence"
	"github.com/spec-kit/portal-auth-service/internal/repository"
	"github.com/spec-kit/portal-auth-service/internal/service"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	codeRepo := newExchangeRepo(cfg, pg, redis, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		ExchangeCodeRepo: codeRepo,
	})

	cookiePolicy := auth.NewCookiePolicy(cfg.Cookie)
	authMiddleware := auth.NewAuthMiddleware(authService, cfg.Cookie)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cookiePolicy, cfg),
		Users:          handlers.NewUsersHandler(authService),
		Diagnostic:     handlers.NewDiagnosticHandler(authService, cookiePolicy, cfg.Cookie),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// newExchangeRepo picks the exchange-code store backend. Postgres is the
// default; redis keeps the same single-use semantics via an atomic script;
// memory exists for DSN-less development runs.
func newExchangeRepo(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) repository.ExchangeCodeRepository {
	switch cfg.Auth.ExchangeStore {
	case "redis":
		return repository.NewRedisExchangeRepository(redis.Client)
	case "memory":
		return repository.NewMemoryExchangeRepository()
	default:
		if pg.PoolHandle() == nil {
			logger.Warn("no postgres pool available; using in-memory exchange store")
			return repository.NewMemoryExchangeRepository()
		}
		return repository.NewExchangeCodeRepository(pg.PoolHandle())
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
