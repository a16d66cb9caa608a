package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/Kavalar/by-kalancha/internal/cli"
	apphttp "github.com/Kavalar/by-kalancha/internal/http"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize report pipeline", applog.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	srv := apphttp.NewServer(":"+cfg.Port, app.Service, app.Backend, app.Renderer.Locale(), logger, apphttp.Options{})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting report server", "port", cfg.Port, "backend", cfg.DataBackend, "delivery", cfg.DeliveryBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		return nil
	})

	if cfg.SchedulerEnabled {
		sched, err := app.Scheduler()
		if err != nil {
			logger.Error("Invalid scheduler configuration", applog.FieldError, err)
			os.Exit(1)
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	if err := g.Wait(); !cli.IsExpectedExit(err) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
