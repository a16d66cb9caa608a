package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kavalar/by-kalancha/internal/config"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

func seedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"seed_services.txt":   "s1;Манікюр\ns2;Педикюр\n",
		"seed_recipients.txt": "owner@example.com\nmanager@example.com\n",
		"seed_appointments.json": `[
			{"id":"a1","status":"completed","completedAt":"2024-03-14T10:00:00Z","paymentType":"card","finalPrice":"120","serviceId":"s1"},
			{"id":"a2","status":"completed","completedAt":"2024-03-14T12:00:00Z","paymentType":"cash","finalPrice":"80.5","serviceId":"s2"},
			{"id":"a3","status":"completed","completedAt":"2024-03-14T15:00:00Z","paymentType":"card","finalPrice":"60","serviceId":"s1"},
			{"id":"a4","status":"cancelled","completedAt":"2024-03-14T16:00:00Z","paymentType":"card","finalPrice":"999","serviceId":"s2"}
		]`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func sqliteConfig(dbPath string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return &config.Config{
			Port:              "8081",
			DataBackend:       "sqlite",
			SQLiteDBPath:      dbPath,
			DeliveryBackend:   "log",
			ReportFromAddress: "reports@example.com",
			ReportTimezone:    "UTC",
			ReportLocale:      "uk",
			ReportCurrency:    "zł",
			WeeklyReportAt:    "MON 09:00",
			MonthlyReportAt:   "1 09:30",
			SchedulerTick:     time.Minute,
			ReportRunTimeout:  time.Minute,
		}, nil
	}
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
}

func execute(t *testing.T, load func() (*config.Config, error), args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(load, quietLogger())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSeedThenDryRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reports.db")
	load := sqliteConfig(dbPath)

	out, err := execute(t, load, "seed", "--dir", seedDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 services, 3 appointments, 2 recipients")

	out, err = execute(t, load, "send", "--from", "2024-03-14", "--to", "2024-03-14", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "🔔 Звіт з 14 березня 2024 р. по 14 березня 2024 р.")
	assert.Contains(t, out, "💳 Карткою: 180 zł")
	assert.Contains(t, out, "💵 Готівкою: 81 zł")
	assert.Contains(t, out, "📊 Разом: 261 zł")
	assert.Contains(t, out, "Послуг надано: 3")
	assert.Contains(t, out, "Найпопулярніше: Манікюр")
}

func TestSendThroughLogChannel(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reports.db")
	load := sqliteConfig(dbPath)

	_, err := execute(t, load, "seed", "--dir", seedDir(t))
	require.NoError(t, err)

	out, err := execute(t, load, "send", "--from", "2024-03-14", "--to", "2024-03-14")
	require.NoError(t, err)
	assert.Contains(t, out, "Звіт успішно сформовано та відправлено!")
	assert.Contains(t, out, "channel=log recipients=2")
}

func TestSend_NoData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reports.db")
	load := sqliteConfig(dbPath)

	out, err := execute(t, load, "send", "--from", "2024-01-01", "--to", "2024-01-02", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "За обраний період немає оплачених записів.")
}

func TestSend_FlagValidation(t *testing.T) {
	load := sqliteConfig(filepath.Join(t.TempDir(), "reports.db"))

	_, err := execute(t, load, "send", "--from", "2024-03-14")
	assert.Error(t, err, "--from needs --to")

	_, err = execute(t, load, "send", "--period", "hourly")
	assert.Error(t, err)
}
