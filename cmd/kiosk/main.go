// Kiosk backend - serves the self-service storefront API on top of a
// Shopware 6 Store API and the Frontstack content API.
// Designed for Cloud Run deployment with stateless operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/winni-bit/sw-demo-kiosk/internal/config"
	"github.com/winni-bit/sw-demo-kiosk/internal/gateway"
	"github.com/winni-bit/sw-demo-kiosk/internal/handler"
	"github.com/winni-bit/sw-demo-kiosk/internal/middleware"
	"github.com/winni-bit/sw-demo-kiosk/internal/storefront"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Store.StoreDomain),
		slog.String("shop_name", cfg.Store.ShopName),
		slog.String("default_language", cfg.Store.DefaultLanguage),
	)

	// Shared storefront factory: one content client and screen locale,
	// per-session carts and checkouts
	factory, err := storefront.NewFactory(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("creating storefront factory: %w", err)
	}

	// Warm up the screen language so the first visitor does not pay
	// for the context negotiation
	initCtx, cancelInit := context.WithTimeout(ctx, 15*time.Second)
	factory.Locale().Init(initCtx)
	cancelInit()

	// Raw Store API passthrough for the frontend
	gw, err := gateway.New(gateway.Config{
		BackendURL: cfg.Store.ShopwareURL,
		AccessKey:  cfg.Store.AccessKey,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	h := handler.New(factory, gw, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → rate limit → logging → handler
	// Recovery must be outermost to catch panics from the other middleware
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		limiter.Middleware(),
		middleware.Logging(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
