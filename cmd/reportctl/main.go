package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/Kavalar/by-kalancha/internal/cli"
	"github.com/Kavalar/by-kalancha/internal/config"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := applog.New(applog.Config{
		Component: applog.ComponentApp,
		Handler:   applog.NewHandler(os.Stderr, applog.ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT")),
	})

	if err := newRootCmd(loadConfig, logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd(load func() (*config.Config, error), logger *applog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Run salon revenue reports and manage report data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSendCmd(load, logger),
		newSeedCmd(load, logger),
	)
	return root
}
