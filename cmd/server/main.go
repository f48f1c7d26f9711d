package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/accountly/backend/api/handler"
	"github.com/accountly/backend/internal/config"
	"github.com/accountly/backend/internal/events"
	"github.com/accountly/backend/internal/infrastructure/buffer"
	"github.com/accountly/backend/internal/infrastructure/monitor"
	pgInfra "github.com/accountly/backend/internal/infrastructure/postgres"
	redisInfra "github.com/accountly/backend/internal/infrastructure/redis"
	"github.com/accountly/backend/internal/middleware"
	"github.com/accountly/backend/internal/router"
	"github.com/accountly/backend/internal/security"
	"github.com/accountly/backend/internal/services"
	"github.com/accountly/backend/internal/services/lifecycle"
	"github.com/accountly/backend/pkg/clock"
	"github.com/accountly/backend/pkg/httpcontext"
	"github.com/accountly/backend/pkg/logger"
	"github.com/accountly/backend/repository/postgres"
	authUC "github.com/accountly/backend/usecase/auth"
	userUC "github.com/accountly/backend/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Security.JWTSecret == "" {
		zapLogger.Fatal("JWT_SECRET must be set")
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "events")
	if err != nil {
		zapLogger.Fatal("failed to open event buffer", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, redisClient, bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	publisher := events.NewPublisher(redisClient, cfg.Events.Stream)

	dispatcher := services.NewEventDispatcher(
		publisher,
		bufferStore,
		mon,
		clock.System{},
		zapLogger,
		services.DispatcherConfig{
			Source:     cfg.Events.Source,
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	dispatcher.Start()
	manager.Register("event_dispatcher", func(ctx context.Context) error {
		dispatcher.Stop(ctx)
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	codec := security.NewJWTCodec(
		[]byte(cfg.Security.JWTSecret),
		cfg.Security.JWTIssuer,
		cfg.Security.TokenValidity,
		clock.System{},
	)

	userUseCase := userUC.New(userRepo, hasher, dispatcher, clock.System{}, userUC.Policy{
		DefaultPermissions: cfg.DefaultPermissionSet(),
		RequireAddresses:   cfg.Security.RequireAddresses,
	}, zapLogger)
	authUseCase := authUC.New(userRepo, hasher, codec, dispatcher, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.Authenticate(authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
