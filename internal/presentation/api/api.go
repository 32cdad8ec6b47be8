package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/configs"
	"github.com/cliptag/cliptag/internal/infrastructure/logging"
	"github.com/cliptag/cliptag/internal/infrastructure/metrics"
	"github.com/cliptag/cliptag/internal/infrastructure/ratelimiter"
	"github.com/cliptag/cliptag/internal/presentation/handler/authn"
	"github.com/cliptag/cliptag/internal/presentation/handler/clip"
	"github.com/cliptag/cliptag/internal/presentation/handler/files"
	"github.com/cliptag/cliptag/internal/presentation/handler/health"
	"github.com/cliptag/cliptag/internal/presentation/handler/realtime"
	"github.com/cliptag/cliptag/internal/presentation/handler/rooms"
	"github.com/cliptag/cliptag/internal/presentation/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config          configs.Config
	registry        domain.RoomRegistry
	clipHandler     clip.Handler
	filesHandler    files.Handler
	roomHandler     rooms.Handler
	authHandler     authn.Handler
	realtimeHandler realtime.Handler
	healthHandler   health.Handler
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	registry domain.RoomRegistry,
	clipHandler clip.Handler,
	filesHandler files.Handler,
	roomHandler rooms.Handler,
	authHandler authn.Handler,
	realtimeHandler realtime.Handler,
	healthHandler health.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		registry:        registry,
		clipHandler:     clipHandler,
		filesHandler:    filesHandler,
		roomHandler:     roomHandler,
		authHandler:     authHandler,
		realtimeHandler: realtimeHandler,
		healthHandler:   healthHandler,
		logger:          logger,
		ratelimiter:     ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.loggerMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	// Content routes vivify the room on first touch; management routes
	// never do.
	contentGate := pipeline.RoomAccess(app.registry, pipeline.AutoVivify)

	r.Route("/api", func(r chi.Router) {
		r.Route("/clip/{tag}", func(r chi.Router) {
			r.Use(contentGate)
			r.Get("/", app.clipHandler.GetClipboardHandler)
			r.Post("/", app.clipHandler.SetClipboardHandler)
			r.Delete("/", app.clipHandler.DeleteClipboardHandler)
		})

		r.With(contentGate).Post("/upload/{tag}", app.filesHandler.UploadFileHandler)
		r.With(contentGate).Get("/files/{tag}", app.filesHandler.ListFilesHandler)

		r.Route("/file/{tag}/{fileId}", func(r chi.Router) {
			r.Use(contentGate)
			r.Get("/", app.filesHandler.GetFileHandler)
			r.Delete("/", app.filesHandler.DeleteFileHandler)
		})

		r.With(contentGate).Get("/download/{tag}/{fileId}", app.filesHandler.DownloadFileHandler)

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", app.roomHandler.CreateRoomHandler)
			r.Get("/{tag}", app.roomHandler.GetRoomHandler)
			r.Patch("/{tag}", app.roomHandler.RenameRoomHandler)
			r.Delete("/{tag}", app.roomHandler.DeleteRoomHandler)
			r.Post("/{tag}/validate", app.roomHandler.ValidatePasswordHandler)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.authHandler.RegisterHandler)
			r.Post("/login", app.authHandler.LoginHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Get("/ws", app.realtimeHandler.ServeWS)
	r.Handle("/metrics", metrics.Handler())

	return otelhttp.NewHandler(r, "cliptag-http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
