// Command server runs the SpaceNexus demo API: experiments, postcards
// and the SPACE token behind one HTTP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/spacenexus/platform/internal/app"
	"github.com/spacenexus/platform/internal/app/fixtures"
	"github.com/spacenexus/platform/internal/app/httpapi"
	"github.com/spacenexus/platform/internal/app/metrics"
	"github.com/spacenexus/platform/internal/app/services/postcards"
	"github.com/spacenexus/platform/internal/app/storage/memory"
	"github.com/spacenexus/platform/internal/config"
	"github.com/spacenexus/platform/internal/middleware"
	"github.com/spacenexus/platform/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("server", cfg.LogLevel)

	store := memory.New()
	application, err := app.New(app.Stores{
		Experiments: store,
		Postcards:   store,
	}, fixtures.Token(100), log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDemoData {
		if err := fixtures.SeedExperiments(ctx, store, 20); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		log.Info("demo experiments seeded")
	}

	if cfg.Fulfillment.Enabled {
		interval, launch, ret, mail, err := cfg.Fulfillment.Durations()
		if err != nil {
			return err
		}
		runner := postcards.NewFulfillment(application.Postcards, interval, postcards.StageDurations{
			Launch: launch,
			Return: ret,
			Mail:   mail,
		}, log)
		if err := application.Attach(runner); err != nil {
			return fmt.Errorf("attach fulfillment runner: %w", err)
		}
	}

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("application stop")
		}
	}()

	var handler http.Handler = httpapi.NewHandler(application, cfg.UploadDir, log)
	handler = metrics.InstrumentHandler(handler)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		handler = limiter.Handler(handler)
	}
	handler = middleware.NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.WithField("port", cfg.Port).Info("SpaceNexus API service running")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
