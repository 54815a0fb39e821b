package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"prepboard/internal/bootstrap"
	commonmw "prepboard/internal/common/http/middleware"
	"prepboard/internal/common/ratelimit"
	progressrepo "prepboard/internal/progress/repository"
	progressservice "prepboard/internal/progress/service"
	userrepo "prepboard/internal/user/repository"
	userservice "prepboard/internal/user/service"
	"prepboard/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()
	os.Exit(start(*configPath, os.Stderr))
}

// start runs the server until shutdown and returns the process exit code.
func start(configPath string, stderr io.Writer) int {
	appCfg, err := loadAppConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load app config failed: %v\n", err)
		return 1
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(stderr, "init logger failed: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg); err != nil {
		logger.Error(context.Background(), "prepboard server exited", zap.Error(err))
		return 1
	}
	return 0
}

func run(appCfg *AppConfig) error {
	deps, err := bootstrap.Init(context.Background(), appCfg.Database, &appCfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn(context.Background(), "release dependencies failed", zap.Error(err))
		}
	}()
	if deps.Cache == nil {
		logger.Warn(context.Background(), "redis not configured, running without cache and rate limits")
	}

	router := buildRouter(wire(appCfg, deps))
	httpServer := buildHTTPServer(appCfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "prepboard http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

// wire builds repositories, services and the router dependencies. Redis-backed
// pieces are left out when no cache is configured.
func wire(appCfg *AppConfig, deps *bootstrap.Dependencies) routerDeps {
	cacheClient := deps.CacheOrNil()

	users := userrepo.NewUserRepository(deps.Provider, cacheClient)
	var attempts userrepo.LoginAttemptRepository
	if cacheClient != nil {
		attempts = userrepo.NewLoginAttemptRepository(cacheClient)
	}
	authService := userservice.NewAuthService(deps.Provider, users, attempts, userservice.AuthServiceConfig{
		JWTSecret:      []byte(appCfg.Auth.JWTSecret),
		JWTIssuer:      appCfg.Auth.JWTIssuer,
		AccessTokenTTL: appCfg.Auth.AccessTokenTTL,
		LoginFailTTL:   appCfg.Auth.LoginFailTTL,
		LoginFailLimit: appCfg.Auth.LoginFailLimit,
	})

	catalog := progressrepo.NewCatalogRepositoryWithTTL(deps.Provider, cacheClient, appCfg.Catalog.CacheTTL, appCfg.Catalog.EmptyCacheTTL)
	statuses := progressrepo.NewStatusRepository(deps.Provider)
	reconciler := progressservice.NewReconciler(deps.Provider, statuses)
	progress := progressservice.NewProgressService(catalog, statuses, reconciler)

	var limiter commonmw.Limiter
	if cacheClient != nil {
		limiter = ratelimit.NewService(cacheClient, appCfg.RateLimit.Window, appCfg.RateLimit.RedisTimeout)
	}

	return routerDeps{
		Auth:       authService,
		Limiter:    limiter,
		RateLimit:  appCfg.RateLimit,
		Users:      authService,
		Progress:   progress,
		RequestLog: gin.Mode() != gin.TestMode,
	}
}
