package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Kavalar/by-kalancha/internal/report"
	"github.com/Kavalar/by-kalancha/internal/services"
)

type Config struct {
	// HTTP Server
	Port string

	// Records backend
	DataBackend   string
	SQLiteDBPath  string
	MemoryDataDir string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleAppointmentsSheet  string
	GoogleServicesSheet      string
	GoogleSettingsSheet      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Delivery
	DeliveryBackend   string
	ResendAPIKey      string
	ReportFromAddress string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report rendering
	ReportTimezone string
	ReportLocale   string
	ReportCurrency string

	// Scheduler
	SchedulerEnabled bool
	WeeklyReportAt   string
	MonthlyReportAt  string
	SchedulerTick    time.Duration
	ReportRunTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/reports.db"),
		MemoryDataDir: getEnv("MEMORY_DATA_DIR", "data"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAppointmentsSheet:  getEnv("GOOGLE_APPOINTMENTS_SHEET", "Appointments"),
		GoogleServicesSheet:      getEnv("GOOGLE_SERVICES_SHEET", "Services"),
		GoogleSettingsSheet:      getEnv("GOOGLE_SETTINGS_SHEET", "Settings"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		DeliveryBackend:   getEnv("DELIVERY_BACKEND", "log"),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		ReportFromAddress: getEnv("REPORT_FROM_ADDRESS", "reports@localhost"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "reports"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "rendered_reports"),

		ReportTimezone: getEnv("REPORT_TIMEZONE", "Europe/Warsaw"),
		ReportLocale:   getEnv("REPORT_LOCALE", "uk"),
		ReportCurrency: getEnv("REPORT_CURRENCY", "zł"),

		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", false),
		WeeklyReportAt:   getEnv("WEEKLY_REPORT_AT", "MON 09:00"),
		MonthlyReportAt:  getEnv("MONTHLY_REPORT_AT", "1 09:30"),
		SchedulerTick:    getEnvDuration("SCHEDULER_TICK", time.Minute),
		ReportRunTimeout: getEnvDuration("REPORT_RUN_TIMEOUT", 60*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Location returns the configured report timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.ReportTimezone, err)
	}
	return loc, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sheets", "sqlite"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		hasADC := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
		if !hasJSON && !hasFile && !hasADC {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	validDelivery := []string{"resend", "amqp", "log"}
	if !contains(validDelivery, c.DeliveryBackend) {
		errors = append(errors, fmt.Sprintf("invalid delivery backend '%s': must be one of %v", c.DeliveryBackend, validDelivery))
	}
	if c.DeliveryBackend == "resend" && c.ResendAPIKey == "" {
		errors = append(errors, "RESEND_API_KEY is required when using resend delivery")
	}
	if strings.TrimSpace(c.ReportFromAddress) == "" {
		errors = append(errors, "report sender address cannot be empty")
	}

	if c.DeliveryBackend == "amqp" && c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required when using amqp delivery")
	}
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
	}

	if _, err := report.LookupLocale(c.ReportLocale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report locale '%s': %v", c.ReportLocale, err))
	}
	if _, err := services.ParseWeeklyTrigger(c.WeeklyReportAt); err != nil {
		errors = append(errors, fmt.Sprintf("WEEKLY_REPORT_AT: %v", err))
	}
	if _, err := services.ParseMonthlyTrigger(c.MonthlyReportAt); err != nil {
		errors = append(errors, fmt.Sprintf("MONTHLY_REPORT_AT: %v", err))
	}

	if c.SchedulerTick < time.Second {
		errors = append(errors, fmt.Sprintf("invalid scheduler tick %v: must be at least 1 second", c.SchedulerTick))
	} else if c.SchedulerTick > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid scheduler tick %v: must be at most 1 hour", c.SchedulerTick))
	}
	if c.ReportRunTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report run timeout %v: must be at least 1 second", c.ReportRunTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
