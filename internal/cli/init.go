// Package cli holds the bootstrap shared by report-server, report-scheduler
// and reportctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Kavalar/by-kalancha/internal/backend"
	"github.com/Kavalar/by-kalancha/internal/config"
	"github.com/Kavalar/by-kalancha/internal/core"
	"github.com/Kavalar/by-kalancha/internal/delivery"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/report"
	"github.com/Kavalar/by-kalancha/internal/services"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Component: component,
		Handler:   applog.NewHandler(os.Stdout, applog.ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT")),
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development; a missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when validation fails.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// App is the assembled report pipeline and the resources behind it.
type App struct {
	Config   *config.Config
	Location *time.Location
	Backend  backend.Backend
	Channel  delivery.Channel
	Renderer *report.Renderer
	Service  *services.ReportService

	logger   *applog.Logger
	cleanups []func()
}

// NewApp opens the records backend and the delivery channel and wires the
// pipeline. Call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	renderer, err := report.NewRenderer(cfg.ReportLocale, cfg.ReportCurrency)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	app := &App{Config: cfg, Location: loc, Renderer: renderer, logger: logger}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	app.Backend = store.Backend
	app.cleanups = append(app.cleanups, func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close records backend", applog.FieldError, err)
		}
	})

	channelType, err := delivery.ParseChannelType(cfg.DeliveryBackend)
	if err != nil {
		app.Close()
		return nil, err
	}
	ch, err := delivery.New(delivery.Config{
		Type:         channelType,
		ResendAPIKey: cfg.ResendAPIKey,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}, logger.WithComponent(applog.ComponentDelivery))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Channel = ch.Channel
	app.cleanups = append(app.cleanups, ch.Cleanup)

	dispatcher := services.NewDispatcher(app.Backend, ch.Channel, cfg.ReportFromAddress, logger)
	app.Service = services.NewReportService(
		core.NewResolver(loc, renderer),
		app.Backend,
		app.Backend,
		renderer,
		dispatcher,
		logger,
	)

	logger.Info("Report pipeline ready",
		"backend", cfg.DataBackend,
		applog.FieldChannel, ch.Channel.Name(),
		"locale", renderer.Locale().Tag.String(),
		"timezone", loc.String())
	return app, nil
}

// Triggers parses the configured weekly and monthly slots.
func (a *App) Triggers() ([]services.Trigger, error) {
	weekly, err := services.ParseWeeklyTrigger(a.Config.WeeklyReportAt)
	if err != nil {
		return nil, fmt.Errorf("WEEKLY_REPORT_AT: %w", err)
	}
	monthly, err := services.ParseMonthlyTrigger(a.Config.MonthlyReportAt)
	if err != nil {
		return nil, fmt.Errorf("MONTHLY_REPORT_AT: %w", err)
	}
	return []services.Trigger{weekly, monthly}, nil
}

// Scheduler builds the scheduler over the app's report service.
func (a *App) Scheduler() (*services.Scheduler, error) {
	triggers, err := a.Triggers()
	if err != nil {
		return nil, err
	}
	return services.NewScheduler(a.Service, triggers, a.Location, a.Config.SchedulerTick, a.Config.ReportRunTimeout, a.logger), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// IsExpectedExit reports whether err is the normal result of a shutdown.
func IsExpectedExit(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
