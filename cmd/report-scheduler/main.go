package main

import (
	"os"
	_ "time/tzdata"

	"github.com/Kavalar/by-kalancha/internal/cli"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentScheduler)
	logger.Info("Starting report-scheduler")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize report pipeline", applog.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	sched, err := app.Scheduler()
	if err != nil {
		logger.Error("Invalid scheduler configuration", applog.FieldError, err)
		os.Exit(1)
	}

	if err := sched.Run(ctx); !cli.IsExpectedExit(err) {
		logger.Error("Scheduler stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report-scheduler shutdown complete")
}
