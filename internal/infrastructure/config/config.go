package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	AI       AIConfig       `mapstructure:"ai"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	HTTPPort    int      `mapstructure:"http_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds the card catalogue database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	LogSQL bool   `mapstructure:"log_sql"`
}

// SessionConfig selects the session store
type SessionConfig struct {
	Store       string `mapstructure:"store"`
	PostgresURL string `mapstructure:"postgres_url"`
}

// AIConfig holds the AI provider configuration
type AIConfig struct {
	Provider              string        `mapstructure:"provider"`
	APIKey                string        `mapstructure:"api_key"`
	Model                 string        `mapstructure:"model"`
	Timeout               time.Duration `mapstructure:"timeout"`
	InputPricePerMillion  float64       `mapstructure:"input_price_per_million"`
	OutputPricePerMillion float64       `mapstructure:"output_price_per_million"`
}

// GameConfig holds gameplay tuning
type GameConfig struct {
	SourceLanguage        string        `mapstructure:"source_language"`
	SessionTimeout        time.Duration `mapstructure:"session_timeout"`
	SweepInterval         time.Duration `mapstructure:"sweep_interval"`
	IncludeExampleDefault bool          `mapstructure:"include_example_default"`
	MaxDescriptionLength  int           `mapstructure:"max_description_length"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"

	AIProviderNone   = "none"
	AIProviderGemini = "gemini"
)

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.driver", DriverSQLite)
	viper.SetDefault("database.dsn", "file:taboo.db?cache=shared")
	viper.SetDefault("database.log_sql", false)

	// Session store defaults
	viper.SetDefault("session.store", SessionStoreMemory)
	viper.SetDefault("session.postgres_url", "")

	// AI defaults
	viper.SetDefault("ai.provider", AIProviderNone)
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.model", "gemini-2.0-flash")
	viper.SetDefault("ai.timeout", 15*time.Second)
	viper.SetDefault("ai.input_price_per_million", 0.10)
	viper.SetDefault("ai.output_price_per_million", 0.40)

	// Game defaults
	viper.SetDefault("game.source_language", "en")
	viper.SetDefault("game.session_timeout", 30*time.Minute)
	viper.SetDefault("game.sweep_interval", time.Minute)
	viper.SetDefault("game.include_example_default", false)
	viper.SetDefault("game.max_description_length", 2000)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

func (c *Config) validate() error {
	switch c.DatabaseDriver() {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.SessionStore() {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if c.SessionPostgresURL() == "" {
			return fmt.Errorf("session.store=postgres requires session.postgres_url or a postgres database.dsn")
		}
	default:
		return fmt.Errorf("unsupported session store %q", c.Session.Store)
	}
	switch c.AIProvider() {
	case AIProviderNone:
	case AIProviderGemini:
		if strings.TrimSpace(c.AI.APIKey) == "" {
			return fmt.Errorf("ai.provider=gemini requires ai.api_key")
		}
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}
	return nil
}

// DatabaseDriver returns the normalised card database driver name.
func (c *Config) DatabaseDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if driver == "sqlite" {
		return DriverSQLite
	}
	if driver == "postgresql" || driver == "pgx" {
		return DriverPostgres
	}
	return driver
}

// DatabaseURL returns the card database connection string
func (c *Config) DatabaseURL() string {
	return strings.TrimSpace(c.Database.DSN)
}

// SessionStore returns the normalised session store name.
func (c *Config) SessionStore() string {
	return strings.ToLower(strings.TrimSpace(c.Session.Store))
}

// SessionPostgresURL falls back to the card database DSN when that is Postgres.
func (c *Config) SessionPostgresURL() string {
	if url := strings.TrimSpace(c.Session.PostgresURL); url != "" {
		return url
	}
	if c.DatabaseDriver() == DriverPostgres {
		return c.DatabaseURL()
	}
	return ""
}

// AIProvider returns the normalised AI provider name.
func (c *Config) AIProvider() string {
	return strings.ToLower(strings.TrimSpace(c.AI.Provider))
}
