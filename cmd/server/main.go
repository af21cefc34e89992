package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-auth-service/internal/api"
	"github.com/99minutos/user-auth-service/internal/api/handler"
	"github.com/99minutos/user-auth-service/internal/core/ports"
	"github.com/99minutos/user-auth-service/internal/core/service"
	"github.com/99minutos/user-auth-service/internal/infrastructure/config"
	mongostore "github.com/99minutos/user-auth-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/user-auth-service/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/user-auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/user-auth-service/pkg/logger"
)

const (
	serviceName     = "user-auth-service"
	shutdownTimeout = 10 * time.Second
)

// @title                       User Auth Service API
// @version                     1.0
// @description                 User registration and JWT authentication with role based access control.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: serviceName})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, logger.Component("server")); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exiting")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Credential store ---
	users, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("driver", cfg.Store.Driver).Msg("credential store connected")

	// --- Denylist ---
	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	denylist := redisstore.NewDenylist(rdb)

	// --- Services ---
	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	tokens := service.NewJWTService(service.TokenConfig{
		SignerKey:      []byte(cfg.JWT.SignerKey),
		Issuer:         cfg.JWT.Issuer,
		ValidFor:       cfg.JWT.ValidDuration,
		RefreshableFor: cfg.JWT.RefreshableWindow,
	}, denylist, logger.Component("tokens"))
	authService := service.NewAuthService(users, hasher, tokens, logger.Component("auth"))
	userService := service.NewUserService(users, hasher, logger.Component("users"))

	if err := userService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return err
	}

	// --- HTTP ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := api.NewRouter(api.Deps{
		Auth:   authService,
		Users:  userService,
		Tokens: tokens,
		Health: map[string]handler.Pinger{
			cfg.Store.Driver: users,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		},
		Registry:       registry,
		Logger:         logger.Component("http"),
		LoginRateLimit: cfg.LoginRateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore connects the credential store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (ports.UserRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		repo, disconnect, err := mongostore.OpenUserRepository(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = disconnect(context.Background()) }, nil
	default:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(pool), pool.Close, nil
	}
}
