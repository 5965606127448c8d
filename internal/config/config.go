// =============================================================================
// Lab Discrepancy Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. Settings come from three layers, later layers winning:
//
//   1. config.yaml            : checked-in defaults for a deployment
//   2. .env / process env     : the operational values (credentials, hosts)
//   3. applyDefaults          : hard fallbacks for anything still unset
//
// The environment variable names match the reconciler's existing deployment
// (server_name, database_name, DB_USER, DB_PASSWORD, SMTP_SERVER, ...), so
// the binary can drop into the same scheduled-task environment without any
// migration of secrets.
//
// Components never read the environment themselves; they receive a *Config
// (or a sub-struct of it) at construction.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	// Store configures the database the corrections are applied to.
	Store StoreConfig `yaml:"store"`

	// Paths configures the file-lifecycle directories.
	Paths PathsConfig `yaml:"paths"`

	// Mail configures the notification transport.
	Mail MailConfig `yaml:"mail"`

	// Engine configures reconciliation behavior.
	Engine EngineConfig `yaml:"engine"`

	// Report configures optional run-summary output.
	Report ReportConfig `yaml:"report"`
}

// StoreConfig holds the database connection settings.
type StoreConfig struct {
	// Driver selects the SQL driver.
	// Valid values: "sqlserver", "postgres"
	// Default: "sqlserver"
	Driver string `yaml:"driver"`

	// Host is the database server host.
	// Environment: server_name
	Host string `yaml:"host"`

	// Port is the database server port.
	// Default: 1433 for sqlserver, 5432 for postgres
	Port int `yaml:"port"`

	// Database is the database name.
	// Environment: database_name
	Database string `yaml:"database"`

	// User is the database login.
	// Environment: DB_USER
	User string `yaml:"user"`

	// Password is the database password.
	// Environment: DB_PASSWORD
	Password string `yaml:"password"`
}

// PathsConfig holds the lifecycle directory layout.
type PathsConfig struct {
	// BaseDir is the root directory the three lifecycle directories default
	// to living under.
	// Default: "IDEXX Discrepancy files"
	BaseDir string `yaml:"base_dir"`

	// IncomingDir is where new spreadsheets land and are picked up from.
	// Default: <base_dir>/New
	IncomingDir string `yaml:"incoming_dir"`

	// CompletedDir is where successfully processed spreadsheets are moved.
	// Default: <base_dir>/Completed
	CompletedDir string `yaml:"completed_dir"`

	// ErrorDir is where failed spreadsheets are moved.
	// Default: <base_dir>/Error
	ErrorDir string `yaml:"error_dir"`
}

// MailConfig holds the notification transport settings.
//
// Delivery is attempted only when Configured() reports true; otherwise the
// notification step is skipped and logged, never fatal.
type MailConfig struct {
	// SMTPHost is the SMTP server host. A value of "localhost" (the
	// conventional unconfigured placeholder) disables delivery.
	// Environment: SMTP_SERVER
	SMTPHost string `yaml:"smtp_host"`

	// SMTPPort is the SMTP server port.
	// Environment: SMTP_PORT
	// Default: 587
	SMTPPort int `yaml:"smtp_port"`

	// Sender is the From address on outgoing reports.
	// Environment: EMAIL_SENDER
	// Default: "noreply@example.com"
	Sender string `yaml:"sender"`

	// Username is the SMTP login. In the reference deployment this is the
	// same mailbox as Sender, but it carries no fallback: an empty username
	// means delivery is not configured.
	// Environment: EMAIL_SENDER
	Username string `yaml:"username"`

	// Password is the SMTP password.
	// Environment: EMAIL_PASSWORD
	Password string `yaml:"password"`

	// Recipient is the address the report is sent to.
	// Environment: EMAIL_RECIPIENT
	Recipient string `yaml:"recipient"`
}

// Configured reports whether the transport is actively configured: a real
// host (not the localhost placeholder) plus credentials.
func (m MailConfig) Configured() bool {
	return m.SMTPHost != "" &&
		!strings.EqualFold(m.SMTPHost, "localhost") &&
		m.Username != "" &&
		m.Password != ""
}

// EngineConfig holds reconciliation behavior settings.
type EngineConfig struct {
	// HeaderScanLimit is the number of leading rows of the latest sheet that
	// are searched for the header row.
	// Default: 10
	HeaderScanLimit int `yaml:"header_scan_limit"`

	// AuditUserID is the GUID stamped into UpdatedBy on every corrected
	// database row. Must parse as a UUID.
	// Default: "13F6B7B1-A934-4019-B97C-2FBC493CFDF3"
	AuditUserID string `yaml:"audit_user_id"`
}

// ReportConfig holds run-summary output settings.
type ReportConfig struct {
	// SummaryDir is the directory run-summary text files are written to.
	// Empty disables summary files.
	SummaryDir string `yaml:"summary_dir"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads the configuration from a YAML file and the environment.
//
// A missing config file is not an error: the reference deployment runs on
// environment variables alone, so defaults plus the environment must be a
// complete configuration. Any other read failure is fatal.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the validated Config struct.
//   - An error if the file cannot be parsed or validation fails.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	var config Config

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env; both are optional.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// applyEnvOverrides copies the deployment's environment variables over the
// file values. Environment wins over the file so secrets never have to be
// written to disk in config.yaml.
func applyEnvOverrides(config *Config) {
	config.Store.Host = strEnv("server_name", config.Store.Host)
	config.Store.Database = strEnv("database_name", config.Store.Database)
	config.Store.User = strEnv("DB_USER", config.Store.User)
	config.Store.Password = strEnv("DB_PASSWORD", config.Store.Password)

	config.Mail.SMTPHost = strEnv("SMTP_SERVER", config.Mail.SMTPHost)
	config.Mail.SMTPPort = intEnv("SMTP_PORT", config.Mail.SMTPPort)
	config.Mail.Sender = strEnv("EMAIL_SENDER", config.Mail.Sender)
	config.Mail.Username = strEnv("EMAIL_SENDER", config.Mail.Username)
	config.Mail.Password = strEnv("EMAIL_PASSWORD", config.Mail.Password)
	config.Mail.Recipient = strEnv("EMAIL_RECIPIENT", config.Mail.Recipient)
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.Store.Driver == "" {
		config.Store.Driver = "sqlserver"
	}
	if config.Store.Port == 0 {
		switch config.Store.Driver {
		case "postgres":
			config.Store.Port = 5432
		default:
			config.Store.Port = 1433
		}
	}

	if config.Paths.BaseDir == "" {
		config.Paths.BaseDir = "IDEXX Discrepancy files"
	}
	if config.Paths.IncomingDir == "" {
		config.Paths.IncomingDir = filepath.Join(config.Paths.BaseDir, "New")
	}
	if config.Paths.CompletedDir == "" {
		config.Paths.CompletedDir = filepath.Join(config.Paths.BaseDir, "Completed")
	}
	if config.Paths.ErrorDir == "" {
		config.Paths.ErrorDir = filepath.Join(config.Paths.BaseDir, "Error")
	}

	if config.Mail.SMTPPort == 0 {
		config.Mail.SMTPPort = 587
	}
	if config.Mail.Sender == "" {
		config.Mail.Sender = "noreply@example.com"
	}

	if config.Engine.HeaderScanLimit == 0 {
		config.Engine.HeaderScanLimit = 10
	}
	if config.Engine.AuditUserID == "" {
		config.Engine.AuditUserID = "13F6B7B1-A934-4019-B97C-2FBC493CFDF3"
	}
}

// validate checks the configuration for values the pipeline cannot run with.
func validate(config *Config) error {
	switch config.Store.Driver {
	case "sqlserver", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q (want sqlserver or postgres)", config.Store.Driver)
	}

	if config.Engine.HeaderScanLimit < 1 {
		return fmt.Errorf("header_scan_limit must be at least 1, got %d", config.Engine.HeaderScanLimit)
	}

	if _, err := uuid.Parse(config.Engine.AuditUserID); err != nil {
		return fmt.Errorf("audit_user_id is not a valid UUID: %w", err)
	}

	return nil
}

// =============================================================================
// ENVIRONMENT HELPERS
// =============================================================================

// strEnv returns the environment value for key, or fallback when unset.
func strEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// intEnv returns the environment value for key parsed as an integer, or
// fallback when unset or unparsable.
func intEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
