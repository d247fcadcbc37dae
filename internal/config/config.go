package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Widths of the posts.slug and posts.title columns in the schema
const (
	SlugColumnWidth  = 250
	TitleColumnWidth = 200
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Engagement and discovery tuning
	Engagement EngagementConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string        `env:"DB_HOST" envDefault:"localhost"`
	Port           string        `env:"DB_PORT" envDefault:"5432"`
	User           string        `env:"DB_USER" envDefault:"postgres"`
	Password       string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name           string        `env:"DB_NAME" envDefault:"blog_engagement"`
	SSLMode        string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxLifetime    time.Duration `env:"DB_MAX_LIFETIME" envDefault:"5m"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
	// Attempts per transaction when the store reports a serialization failure or deadlock
	TxMaxAttempts uint `env:"DB_TX_MAX_ATTEMPTS" envDefault:"5"`
}

// EngagementConfig holds the constants of the derivation, counting and ranking rules
type EngagementConfig struct {
	ViewCooldown          time.Duration `env:"VIEW_COOLDOWN" envDefault:"24h"`
	DashboardTopK         int           `env:"DASHBOARD_TOP_K" envDefault:"5"`
	DashboardRecentLimit  int           `env:"DASHBOARD_RECENT_COMMENTS" envDefault:"5"`
	SearchDefaultPageSize int           `env:"SEARCH_DEFAULT_PAGE_SIZE" envDefault:"9"`
	SearchMaxPageSize     int           `env:"SEARCH_MAX_PAGE_SIZE" envDefault:"100"`
	SlugMaxLength         int           `env:"SLUG_MAX_LENGTH" envDefault:"250"`
	SlugMaxSuffix         int           `env:"SLUG_MAX_SUFFIX" envDefault:"100"`
	WordsPerMinute        int           `env:"READING_WORDS_PER_MINUTE" envDefault:"200"`
	ExcerptLength         int           `env:"EXCERPT_LENGTH" envDefault:"297"`
	TitleMaxLength        int           `env:"TITLE_MAX_LENGTH" envDefault:"200"`
	MaxCommentWords       int           `env:"MAX_COMMENT_WORDS" envDefault:"500"`
	SlugInsertAttempts    int           `env:"SLUG_INSERT_ATTEMPTS" envDefault:"3"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "pretty"
}

// Load reads configuration from the environment, after loading a .env file if one exists
func Load() (*Config, error) {
	// A missing .env file is normal outside development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in defaults, ignoring the process environment
func Default() *Config {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.TxMaxAttempts == 0 {
		return fmt.Errorf("DB_TX_MAX_ATTEMPTS must be at least 1")
	}
	e := c.Engagement
	if e.ViewCooldown < 0 {
		return fmt.Errorf("VIEW_COOLDOWN must not be negative")
	}
	if e.DashboardTopK < 1 || e.DashboardTopK > e.SearchMaxPageSize {
		return fmt.Errorf("DASHBOARD_TOP_K must be between 1 and SEARCH_MAX_PAGE_SIZE")
	}
	if e.DashboardRecentLimit < 0 {
		return fmt.Errorf("DASHBOARD_RECENT_COMMENTS must not be negative")
	}
	if e.SearchDefaultPageSize < 1 || e.SearchDefaultPageSize > e.SearchMaxPageSize {
		return fmt.Errorf("SEARCH_DEFAULT_PAGE_SIZE must be between 1 and SEARCH_MAX_PAGE_SIZE")
	}
	if e.SlugMaxLength < 8 || e.SlugMaxLength > SlugColumnWidth {
		return fmt.Errorf("SLUG_MAX_LENGTH must be between 8 and %d", SlugColumnWidth)
	}
	if e.TitleMaxLength < 1 || e.TitleMaxLength > TitleColumnWidth {
		return fmt.Errorf("TITLE_MAX_LENGTH must be between 1 and %d", TitleColumnWidth)
	}
	if e.SlugMaxSuffix < 2 {
		return fmt.Errorf("SLUG_MAX_SUFFIX must be at least 2")
	}
	if e.WordsPerMinute < 1 {
		return fmt.Errorf("READING_WORDS_PER_MINUTE must be at least 1")
	}
	if e.ExcerptLength < 1 {
		return fmt.Errorf("EXCERPT_LENGTH must be at least 1")
	}
	if e.SlugInsertAttempts < 1 {
		return fmt.Errorf("SLUG_INSERT_ATTEMPTS must be at least 1")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
