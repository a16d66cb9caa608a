package main

import (
	"os"

	"github.com/Kavalar/by-kalancha/internal/amqp"
	"github.com/Kavalar/by-kalancha/internal/cli"
	"github.com/Kavalar/by-kalancha/internal/delivery"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/worker"
)

// report-relay drains the rendered_reports queue filled by the amqp delivery
// channel and sends each report by email. Without RESEND_API_KEY it only logs.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentAMQP)
	logger.Info("Starting report-relay")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for report-relay")
		os.Exit(1)
	}

	channelType := delivery.ChannelLog
	if cfg.ResendAPIKey != "" {
		channelType = delivery.ChannelResend
	}
	out, err := delivery.New(delivery.Config{Type: channelType, ResendAPIKey: cfg.ResendAPIKey}, logger)
	if err != nil {
		logger.Error("Failed to initialize relay channel", applog.FieldError, err)
		os.Exit(1)
	}
	defer out.Cleanup()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	relay := worker.NewRelayWorker(out.Channel, logger)
	logger.Info("Relaying queued reports",
		"queue", cfg.AMQPQueue,
		applog.FieldChannel, out.Channel.Name())

	if err := client.ConsumeReports(ctx, relay.HandleReportMessage); !cli.IsExpectedExit(err) {
		logger.Error("Consumer stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report-relay shutdown complete")
}
