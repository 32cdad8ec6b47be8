package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/cliptag/cliptag/internal/infrastructure/auth"
	"github.com/cliptag/cliptag/internal/infrastructure/configs"
	"github.com/cliptag/cliptag/internal/infrastructure/events"
	"github.com/cliptag/cliptag/internal/infrastructure/logging"
	"github.com/cliptag/cliptag/internal/infrastructure/messaging"
	"github.com/cliptag/cliptag/internal/infrastructure/ratelimiter"
	"github.com/cliptag/cliptag/internal/infrastructure/repository"
	"github.com/cliptag/cliptag/internal/infrastructure/tracing"
	"github.com/cliptag/cliptag/internal/infrastructure/ws"
	"github.com/cliptag/cliptag/internal/presentation/api"
	"github.com/cliptag/cliptag/internal/presentation/handler/authn"
	"github.com/cliptag/cliptag/internal/presentation/handler/clip"
	"github.com/cliptag/cliptag/internal/presentation/handler/files"
	"github.com/cliptag/cliptag/internal/presentation/handler/health"
	"github.com/cliptag/cliptag/internal/presentation/handler/realtime"
	"github.com/cliptag/cliptag/internal/presentation/handler/rooms"
)

const (
	serviceName = "cliptag-api"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	logger.Init()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	registry := repository.NewRoomRegistry(cfg.Rooms.DefaultMaxUsers)
	users := repository.NewUserRepository()

	store := repository.NewContentStore(repository.Options{
		ClipboardTTL:      cfg.ContentStore.ClipboardTTL,
		FileTTL:           cfg.ContentStore.FileTTL,
		SweepInterval:     cfg.ContentStore.SweepInterval,
		MaxClipboardChars: cfg.ContentStore.MaxClipboardChars,
		MaxFileBytes:      cfg.ContentStore.MaxFileBytes,
	}, logger)
	go store.Run(ctx)

	hub := ws.NewHub()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	identity := auth.NewService(users, tokens)

	// Event publishing is optional; a nil publisher turns every publish
	// into a no-op.
	var publisher *events.ContentPublisher
	if cfg.Messaging.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.Messaging.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")

		publisher = events.NewContentPublisher(rabbitmq)

		consumer := events.NewContentConsumer(rabbitmq, logger)
		go consumer.Listen()
	}

	clipHandler := clip.NewHandler(store, hub, publisher)
	filesHandler := files.NewHandler(store, hub, publisher, cfg.ContentStore.MaxFileBytes)
	roomHandler := rooms.NewHandler(registry, store, hub, identity, publisher)
	authHandler := authn.NewHandler(identity)
	realtimeHandler := realtime.NewHandler(hub, registry)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(
		*cfg,
		registry,
		*clipHandler,
		*filesHandler,
		*roomHandler,
		*authHandler,
		*realtimeHandler,
		*healthHandler,
		logger,
		rl,
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
