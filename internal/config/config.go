package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ppodrugin/silver-greek-bot/internal/storage"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env string `mapstructure:"env" validate:"required"` // current application environment (local, dev, prod etc)
	DB  DB     `mapstructure:"database"`                // database configuration section
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                                   // Postgres connection string loaded from environment
	SQLitePath      string        `mapstructure:"sqlite_path" validate:"required"`     // SQLite file used when no Postgres URL is set
	MaxConnections  int           `mapstructure:"max_connections" validate:"min=1"`    // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" validate:"min=1s"` // maximum lifetime of a single connection
}

// Engine picks the database engine: Postgres when a connection string is
// configured, the bundled SQLite file otherwise.
func (db DB) Engine() string {
	if db.URL != "" {
		return storage.EnginePostgres
	}
	return storage.EngineSQLite
}

// DSN returns the connection string for the selected engine.
func (db DB) DSN() string {
	if db.URL != "" {
		return db.URL
	}
	return db.SQLitePath
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("database.sqlite_path", "vocabulary.db")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("database.sqlite_path", "SQLITE_PATH")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// The Postgres URL is optional; without it the app runs on SQLite.
	cfg.DB.URL = v.GetString("database_url")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}
