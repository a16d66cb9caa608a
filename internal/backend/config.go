package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Kavalar/by-kalancha/internal/config"
	"github.com/Kavalar/by-kalancha/internal/records/google"
)

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) IsValid() bool {
	_, ok := constructors[bt]
	return ok
}

// Config selects a records backend. Only the section matching Type is read.
type Config struct {
	Type BackendType

	SQLiteDBPath  string
	DataDirectory string
	Sheets        google.Config
}

// FromAppConfig maps the process configuration onto a backend selection.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:          BackendType(appConfig.DataBackend),
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.MemoryDataDir,
		Sheets: google.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			AppointmentsSheet:  appConfig.GoogleAppointmentsSheet,
			ServicesSheet:      appConfig.GoogleServicesSheet,
			SettingsSheet:      appConfig.GoogleSettingsSheet,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		},
	}
	if !cfg.Type.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if strings.TrimSpace(c.Sheets.SpreadsheetID) == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type: %q", c.Type)
	}
	return nil
}
