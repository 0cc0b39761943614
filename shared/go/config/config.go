package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is the optional dotenv file read before the process environment.
const DefaultEnvFile = "config/local.env"

// Config holds all application configuration
type Config struct {
	// Environment is development, staging or production.
	Environment string `env:"ENV" envDefault:"development"`

	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Seed     SeedConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"` // Full PostgreSQL URL
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int    `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
}

// SecurityConfig holds bearer token verification settings
type SecurityConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173,http://localhost:8080"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, text
}

// CacheConfig holds the optional Redis location cache settings
type CacheConfig struct {
	RedisURL    string        `env:"REDIS_URL"`
	LocationTTL time.Duration `env:"LOCATION_CACHE_TTL" envDefault:"1h"`
}

// SeedConfig points at an optional YAML file of demo users
type SeedConfig struct {
	File string `env:"SEED_FILE"`
}

// Load reads DefaultEnvFile when present and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}
	return parse(env.Options{})
}

// LoadDatabase reads only the database settings. Tools that never serve
// traffic use it so they do not need the server secrets.
func LoadDatabase() (DatabaseConfig, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return DatabaseConfig{}, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}

	var db DatabaseConfig
	if err := env.Parse(&db); err != nil {
		return DatabaseConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	db.buildURL()
	if db.URL == "" {
		return DatabaseConfig{}, errors.New("DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	return db, nil
}

// FromMap builds a Config from an explicit environment, ignoring the process.
func FromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Database.buildURL()
	for i, origin := range cfg.CORS.AllowedOrigins {
		cfg.CORS.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// buildURL assembles DATABASE_URL from the individual DB_* settings when it
// was not given directly.
func (d *DatabaseConfig) buildURL() {
	if d.URL != "" || d.User == "" || d.Name == "" {
		return
	}
	d.URL = fmt.Sprintf(
		"postgresql://%s:%s@%s/%s?sslmode=%s",
		d.User,
		d.Password,
		net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		d.Name,
		d.SSLMode,
	)
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}

	if c.Security.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if c.Cache.LocationTTL <= 0 {
		problems = append(problems, "LOCATION_CACHE_TTL must be positive")
	}
	if c.Cache.RedisURL != "" && !strings.HasPrefix(c.Cache.RedisURL, "redis://") && !strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
		problems = append(problems, "REDIS_URL must use the redis:// or rediss:// scheme")
	}

	if c.Seed.File != "" {
		if _, err := os.Stat(c.Seed.File); err != nil {
			problems = append(problems, fmt.Sprintf("SEED_FILE %q is not readable", c.Seed.File))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	e := strings.ToLower(c.Environment)
	return e == "" || e == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}
