package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/enroll/internal"
	"github.com/DukeRupert/enroll/internal/client"
	"github.com/DukeRupert/enroll/internal/devapi"
	"github.com/DukeRupert/enroll/internal/handler"
	"github.com/DukeRupert/enroll/internal/metrics"
	"github.com/DukeRupert/enroll/internal/middleware"
	"github.com/DukeRupert/enroll/internal/signup"
)

// app is the assembled HTTP handler plus everything that needs stopping.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires the sign-up routes, the optional dev users API and the
// operational endpoints behind the shared middleware stack.
func newApp(cfg *internal.Config, logger *slog.Logger, httpClient *http.Client) (*app, error) {
	a := &app{}

	users, err := client.New(client.Config{
		BaseURL: cfg.UsersAPIURL,
		Timeout: cfg.UsersAPITimeout,
	}, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("users client initialization failed: %w", err)
	}

	forms := signup.NewStore(cfg.FormTTL, logger)
	a.closers = append(a.closers, forms.Close)

	limiter := middleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	a.closers = append(a.closers, limiter.Close)
	submitLimit := middleware.NewRateLimitMiddleware(limiter, logger)

	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, handler.SignUpPath, http.StatusFound)
	})

	signUpHandler := handler.NewSignUpHandler(forms, users, logger, cfg.IsSecure())
	signUpHandler.RegisterRoutes(mux, submitLimit.Limit)

	if cfg.DevAPIEnabled {
		devapi.New(logger, cfg.DevAPIDelay).RegisterRoutes(mux)
		logger.Info("Development users API enabled", "path", client.UsersPath, "delay", cfg.DevAPIDelay)
	}

	a.handler = middleware.Stack(
		middleware.RequestID,
		metrics.Middleware,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewSecurityHeadersMiddleware(cfg.IsSecure()).Handler,
	)(mux)

	return a, nil
}

func run() error {
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	a, err := newApp(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "users_api", cfg.UsersAPIURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	}

	// In-flight sign-up submissions finish within the users API timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.UsersAPITimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
