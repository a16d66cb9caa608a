package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kavalar/by-kalancha/internal/records/google"
	"github.com/Kavalar/by-kalancha/internal/records/memory"
	"github.com/Kavalar/by-kalancha/internal/storage"
)

type constructor func(ctx context.Context, config Config) (*BackendResult, []any, error)

var constructors = map[BackendType]constructor{
	SQLiteBackend: openSQLite,
	SheetsBackend: openSheets,
	MemoryBackend: openMemory,
}

type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory logs through slog.Default when logger is nil.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	res, attrs, err := constructors[config.Type](ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", config.Type, err)
	}
	if res.Cleanup == nil {
		res.Cleanup = noCleanup
	}

	f.logger.InfoContext(ctx, "Records backend ready", append([]any{"type", config.Type}, attrs...)...)
	return res, nil
}

func openSQLite(_ context.Context, config Config) (*BackendResult, []any, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}
	return &BackendResult{Backend: repo, Cleanup: repo.Close}, []any{"db_path", config.SQLiteDBPath}, nil
}

func openSheets(ctx context.Context, config Config) (*BackendResult, []any, error) {
	client, err := google.New(ctx, config.Sheets)
	if err != nil {
		return nil, nil, err
	}
	return &BackendResult{Backend: client}, []any{"spreadsheet_id", config.Sheets.SpreadsheetID}, nil
}

func openMemory(_ context.Context, config Config) (*BackendResult, []any, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load seeds: %w", err)
	}
	return &BackendResult{Backend: store}, []any{"data_dir", dataDir}, nil
}
