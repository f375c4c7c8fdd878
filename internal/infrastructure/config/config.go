// Package config loads application configuration with viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"billing/internal/core/numerator"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Metrics   MetricsConfig
	Numbering NumberingConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver         string // postgres or sqlite
	DSN            string // postgres connection string
	SQLitePath     string
	MaxConns       int32
	MinConns       int32
	AutoMigrate    bool
	MigrationsPath string
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// NumberingConfig holds document numbering settings.
type NumberingConfig struct {
	Org         string
	CompanyName string
	Timezone    string
	MaxAttempts int
	Types       map[numerator.DocumentType]TypeConfig
}

// TypeConfig overrides numbering for one document type.
type TypeConfig struct {
	Style  string // bare or padded
	Width  int
	Finder string // scan or latest
	Floor  int64
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BILLING_ prefix (e.g., BILLING_DATABASE_DSN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches
// the usual locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/billing")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file: defaults and env vars only
	}

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("database.driver")),
			DSN:            v.GetString("database.dsn"),
			SQLitePath:     v.GetString("database.sqlite_path"),
			MaxConns:       v.GetInt32("database.max_conns"),
			MinConns:       v.GetInt32("database.min_conns"),
			AutoMigrate:    v.GetBool("database.auto_migrate"),
			MigrationsPath: v.GetString("database.migrations_path"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		Numbering: NumberingConfig{
			Org:         v.GetString("numbering.org"),
			CompanyName: v.GetString("numbering.company_name"),
			Timezone:    v.GetString("numbering.timezone"),
			MaxAttempts: v.GetInt("numbering.max_attempts"),
			Types:       make(map[numerator.DocumentType]TypeConfig, len(numerator.DocumentTypes)),
		},
	}

	for _, dt := range numerator.DocumentTypes {
		key := "numbering." + string(dt) + "."
		cfg.Numbering.Types[dt] = TypeConfig{
			Style:  strings.ToLower(v.GetString(key + "style")),
			Width:  v.GetInt(key + "width"),
			Finder: strings.ToLower(v.GetString(key + "finder")),
			Floor:  v.GetInt64(key + "floor"),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "billing")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite_path", "data/billing.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("numbering.org", "JMD")
	v.SetDefault("numbering.timezone", "Asia/Kolkata")
	v.SetDefault("numbering.max_attempts", numerator.DefaultMaxAttempts)

	for _, dt := range numerator.DocumentTypes {
		def := numerator.DefaultConfig(dt, "")
		key := "numbering." + string(dt) + "."
		style := "bare"
		if def.Style.Kind == numerator.StyleZeroPadded {
			style = "padded"
		}
		v.SetDefault(key+"style", style)
		v.SetDefault(key+"width", def.Style.Width)
		v.SetDefault(key+"finder", def.Finder.String())
		v.SetDefault(key+"floor", def.Floor)
	}
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn is required for the postgres driver")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}

	if strings.TrimSpace(c.Numbering.Org) == "" {
		return errors.New("config: numbering.org is required")
	}
	if strings.Contains(c.Numbering.Org, "/") {
		return fmt.Errorf("config: numbering.org %q must not contain '/'", c.Numbering.Org)
	}
	if c.Numbering.MaxAttempts < 1 {
		return fmt.Errorf("config: numbering.max_attempts must be positive, got %d", c.Numbering.MaxAttempts)
	}
	if _, err := c.Numbering.Location(); err != nil {
		return err
	}
	if _, err := c.Numbering.NumeratorConfigs(); err != nil {
		return err
	}
	return nil
}

// Location returns the business time zone used to pick fiscal years.
func (n NumberingConfig) Location() (*time.Location, error) {
	if n.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: numbering.timezone: %w", err)
	}
	return loc, nil
}

// NumeratorConfigs converts per-type settings into numerator configs.
func (n NumberingConfig) NumeratorConfigs() (map[numerator.DocumentType]numerator.Config, error) {
	out := make(map[numerator.DocumentType]numerator.Config, len(n.Types))
	for dt, tc := range n.Types {
		cfg := numerator.DefaultConfig(dt, n.Org)

		switch tc.Style {
		case "", "bare":
			cfg.Style = numerator.Bare()
		case "padded", "zero_padded":
			if tc.Width <= 0 {
				return nil, fmt.Errorf("config: numbering.%s.width must be positive for padded style", dt)
			}
			cfg.Style = numerator.ZeroPadded(tc.Width)
		default:
			return nil, fmt.Errorf("config: numbering.%s.style: unknown style %q", dt, tc.Style)
		}

		switch tc.Finder {
		case "", "scan":
			cfg.Finder = numerator.FinderPrefixScan
		case "latest":
			cfg.Finder = numerator.FinderLatest
		default:
			return nil, fmt.Errorf("config: numbering.%s.finder: unknown finder %q", dt, tc.Finder)
		}

		if tc.Floor < 0 {
			return nil, fmt.Errorf("config: numbering.%s.floor cannot be negative", dt)
		}
		cfg.Floor = tc.Floor
		out[dt] = cfg
	}
	return out, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.App.Port
}
