package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
	ports "github.com/Kavalar/by-kalancha/internal/records"

	_ "modernc.org/sqlite"
)

// settingsName is the settings record holding report recipients.
const settingsName = "reports"

type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("report schema at version %d, want %d", version, SchemaVersion)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CompletedBetween implements records.AppointmentReader
func (r *SQLiteRepository) CompletedBetween(ctx context.Context, start, end time.Time) ([]core.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, completed_at_ms, payment_type, final_price, service_id
		FROM appointments
		WHERE status = ? AND completed_at_ms BETWEEN ? AND ?
		ORDER BY completed_at_ms, id`,
		core.StatusCompleted, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query completed appointments: %w", err)
	}
	defer rows.Close()

	var out []core.Appointment
	for rows.Next() {
		var (
			a           core.Appointment
			completedMs int64
			paymentType string
			price       string
		)
		if err := rows.Scan(&a.ID, &a.Status, &completedMs, &paymentType, &price, &a.ServiceID); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		a.CompletedAt = time.UnixMilli(completedMs).In(start.Location())
		a.PaymentType = core.ParsePaymentType(paymentType)
		if a.FinalPrice, err = core.ParseAmount(price); err != nil {
			return nil, fmt.Errorf("appointment %s: final price %q: %w", a.ID, price, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	slog.DebugContext(ctx, "Loaded completed appointments from SQLite",
		"count", len(out),
		"start", start,
		"end", end)

	return out, nil
}

// ListServices implements records.ServiceCatalog
func (r *SQLiteRepository) ListServices(ctx context.Context) ([]core.Service, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var out []core.Service
	for rows.Next() {
		var s core.Service
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recipients implements records.RecipientSource
func (r *SQLiteRepository) Recipients(ctx context.Context) ([]string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM report_settings WHERE name = ?`, settingsName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report settings: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT address FROM report_recipients
		WHERE settings_name = ?
		ORDER BY position`, settingsName)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

// UpsertService inserts or renames a catalog entry.
func (r *SQLiteRepository) UpsertService(ctx context.Context, s core.Service) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO services (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("upsert service %s: %w", s.ID, err)
	}
	return nil
}

// InsertAppointment stores an appointment; an existing id is replaced.
func (r *SQLiteRepository) InsertAppointment(ctx context.Context, a core.Appointment) error {
	var completedMs sql.NullInt64
	if !a.CompletedAt.IsZero() {
		completedMs = sql.NullInt64{Int64: a.CompletedAt.UnixMilli(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO appointments (id, status, completed_at_ms, payment_type, final_price, service_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Status, completedMs, string(a.PaymentType), a.FinalPrice.String(), a.ServiceID)
	if err != nil {
		return fmt.Errorf("insert appointment %s: %w", a.ID, err)
	}
	return nil
}

// SetRecipients replaces the recipient list, creating the settings record if
// needed.
func (r *SQLiteRepository) SetRecipients(ctx context.Context, recipients []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO report_settings (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, settingsName); err != nil {
		return fmt.Errorf("upsert report settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_recipients WHERE settings_name = ?`, settingsName); err != nil {
		return fmt.Errorf("clear recipients: %w", err)
	}
	for i, addr := range recipients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_recipients (settings_name, position, address) VALUES (?, ?, ?)`,
			settingsName, i, addr); err != nil {
			return fmt.Errorf("insert recipient %s: %w", addr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recipients: %w", err)
	}

	slog.InfoContext(ctx, "Report recipients updated", "count", len(recipients))
	return nil
}
