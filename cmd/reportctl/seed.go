package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kavalar/by-kalancha/internal/config"
	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/records/memory"
	"github.com/Kavalar/by-kalancha/internal/storage"
)

type seedCmd struct {
	dir    string
	dbPath string

	load   func() (*config.Config, error)
	logger *applog.Logger
}

func newSeedCmd(load func() (*config.Config, error), logger *applog.Logger) *cobra.Command {
	sc := &seedCmd{load: load, logger: logger}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load seed files into the SQLite records store",
		Long: `Reads seed_services.txt, seed_recipients.txt and seed_appointments.json
from --dir and writes them into the SQLite database. Only completed
appointments are copied.`,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.dir, "dir", "data", "Directory holding the seed files")
	cmd.Flags().StringVar(&sc.dbPath, "db", "", "SQLite database path (defaults to SQLITE_DB_PATH)")

	return cmd
}

func (sc *seedCmd) run(cmd *cobra.Command, args []string) error {
	dbPath := sc.dbPath
	if dbPath == "" {
		cfg, err := sc.load()
		if err != nil {
			return err
		}
		dbPath = cfg.SQLiteDBPath
	}

	seeds, err := memory.NewFromFiles(sc.dir)
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	services, err := seeds.ListServices(ctx)
	if err != nil {
		return err
	}
	for _, svc := range services {
		if err := repo.UpsertService(ctx, svc); err != nil {
			return fmt.Errorf("service %s: %w", svc.ID, err)
		}
	}

	appts, err := seeds.CompletedBetween(ctx, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}
	for _, a := range appts {
		if err := repo.InsertAppointment(ctx, a); err != nil {
			return fmt.Errorf("appointment %s: %w", a.ID, err)
		}
	}

	recipients, err := seeds.Recipients(ctx)
	switch {
	case errors.Is(err, core.ErrSettingsNotFound):
	case err != nil:
		return err
	default:
		if err := repo.SetRecipients(ctx, recipients); err != nil {
			return err
		}
	}

	sc.logger.Info("Seed data loaded",
		"db_path", dbPath,
		applog.FieldServicesCount, len(services),
		"appointments", len(appts),
		applog.FieldRecipients, len(recipients))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d services, %d appointments, %d recipients into %s\n",
		len(services), len(appts), len(recipients), dbPath)
	return nil
}
