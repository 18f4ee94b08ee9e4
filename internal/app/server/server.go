package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"evaltool/internal/app"
	"evaltool/internal/platform/config"
	"evaltool/internal/platform/jobs"
	"evaltool/internal/platform/logging"
	"evaltool/internal/platform/metrics"
	employeeshandler "evaltool/internal/transport/http/handlers/employees"
	synchandler "evaltool/internal/transport/http/handlers/sync"
	"evaltool/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Runtime *app.Runtime
	Metrics *metrics.Collector
	Jobs    *jobs.Service
	Router  http.Handler

	cancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	collector := metrics.New()
	rt, err := app.Open(ctx, cfg, collector)
	if err != nil {
		return nil, err
	}

	jobsCtx, cancel := context.WithCancel(context.Background())
	jobsService := jobs.New(rt.Store, cfg.SyncInterval, collector)
	jobsService.Start(jobsCtx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "err", err)
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		body := "ready"
		if rt.Remote != nil {
			if err := rt.Remote.Probe(ctx, time.Second); err != nil {
				slog.Warn("remote store unreachable", "err", err)
				body = "ready (remote unavailable, serving local data)"
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.MutationsOnly()))

		synchandler.NewHandler(rt.Store).RegisterRoutes(r)

		r.Route("/v1", func(r chi.Router) {
			employeeshandler.NewHandler(rt.Service).RegisterRoutes(r)
		})
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
	})

	return &App{
		Config:  cfg,
		Runtime: rt,
		Metrics: collector,
		Jobs:    jobsService,
		Router:  corsHandler.Handler(router),
		cancel:  cancel,
	}, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Runtime != nil {
		a.Runtime.Close()
	}
}

// Run serves until SIGINT or SIGTERM and then shuts down gracefully.
func Run() error {
	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer application.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("evaluation server listening", "addr", cfg.Addr, "driver", cfg.StorageDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
