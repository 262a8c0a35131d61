// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Port      int
	BaseURL   string // External URL used for the logout returnTo parameter
	LogLevel  string
	LogPretty bool
	DevMode   bool

	Auth    AuthConfig
	Data    DataConfig
	Session SessionConfig
}

// AuthConfig holds the identity provider settings
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	Domain       string
	CallbackURL  string
	Audience     string
}

// DataConfig locates the CSV snapshots on disk
type DataConfig struct {
	EquityDir        string // Contains kclass/ and oi/
	EquityConfigFile string // eodhistoricaldata_tickers_config.csv
	RRGDir           string // sector_*.csv and {sector}-{industry}.csv
	MarketDir        string // {TICKER}.US.csv
	SectorsFile      string // Optional YAML override of the sector mapping
}

// SessionConfig selects and configures the server-side session store
type SessionConfig struct {
	Secret        string
	Backend       string
	TTL           time.Duration
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SecureCookie  bool
}

// MissingError lists required settings that were not provided
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg, err := LoadData()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadData reads configuration without requiring the Auth0 and session
// secrets. Offline tools that only inspect the data directories use it.
func LoadData() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	equityDir, err := expandPath(getEnv("EQUITY_DATA_DIR", "~/Downloads/EquityProcessing"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve equity data directory: %w", err)
	}

	rrgDir, err := expandPath(getEnv("RRG_DATA_DIR", filepath.Join(equityDir, "rrg")))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rrg data directory: %w", err)
	}

	marketDir, err := expandPath(getEnv("MARKET_DATA_DIR", filepath.Join(equityDir, "market")))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve market data directory: %w", err)
	}

	port := getEnvAsInt("GO_PORT", 8050)

	cfg := &Config{
		Port:      port,
		BaseURL:   strings.TrimRight(getEnv("BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		Auth: AuthConfig{
			ClientID:     getEnv("AUTH0_CLIENT_ID", ""),
			ClientSecret: getEnv("AUTH0_CLIENT_SECRET", ""),
			Domain:       getEnv("AUTH0_DOMAIN", ""),
			CallbackURL:  getEnv("AUTH0_CALLBACK_URL", ""),
			Audience:     getEnv("AUTH0_AUDIENCE", ""),
		},
		Data: DataConfig{
			EquityDir:        equityDir,
			EquityConfigFile: getEnv("EQUITY_CONFIG_FILE", "./data/eodhistoricaldata_tickers_config.csv"),
			RRGDir:           rrgDir,
			MarketDir:        marketDir,
			SectorsFile:      getEnv("SECTORS_FILE", ""),
		},
		Session: SessionConfig{
			Secret:        getEnv("SECRET_KEY", ""),
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
			TTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			DBPath:        getEnv("SESSION_DB_PATH", "./data/sessions.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			SecureCookie:  getEnvAsBool("SESSION_SECURE_COOKIE", false),
		},
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{"AUTH0_CLIENT_ID", c.Auth.ClientID},
		{"AUTH0_CLIENT_SECRET", c.Auth.ClientSecret},
		{"AUTH0_DOMAIN", c.Auth.Domain},
		{"AUTH0_CALLBACK_URL", c.Auth.CallbackURL},
		{"SECRET_KEY", c.Session.Secret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendSQLite, SessionBackendRedis:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q (must be memory, sqlite or redis)", c.Session.Backend)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	return nil
}

// KClassDir is the directory holding ticker classification snapshots
func (d DataConfig) KClassDir() string {
	return filepath.Join(d.EquityDir, "kclass")
}

// OIDir is the directory holding open-interest snapshots
func (d DataConfig) OIDir() string {
	return filepath.Join(d.EquityDir, "oi")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// expandPath resolves a leading ~ and makes the path absolute
func expandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
