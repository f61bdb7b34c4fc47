package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Bookjiradech/CARCOM/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	Env         string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	OpenAI      OpenAIConfig
	Scraper     ScraperConfig
	Translation TranslationConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	// ReadTimeout bounds request reads; WriteTimeout must outlive a full
	// search, which runs every source before answering.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Path is the sqlite database file, used when Driver is "sqlite3".
	Path string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OpenAIConfig holds configuration for the reasoning service used by the
// selector and the translator.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RateLimitRPM   int
	RateLimitBurst int
	Timeout        time.Duration
}

// ScraperConfig holds per-source extraction settings
type ScraperConfig struct {
	Sources        []string
	AllowOne2Car   bool
	Limit          int
	LimitPerSource int
	DisplayLimit   int
	Timeout        time.Duration
	// Fetcher is "chrome" (rendered pages) or "http" (plain GET)
	Fetcher         string
	Headless        bool
	DebugDump       bool
	DumpDir         string
	ChromePath      string
	UserAgent       string
	RequestInterval time.Duration
	MaxConcurrency  int
}

// TranslationConfig holds attribute translation settings
type TranslationConfig struct {
	Enabled        bool
	SourceLanguage string
	TargetLanguage string
	CacheTTL       time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Load loads configuration from a .env file (when present) and the environment
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Vault values fill in secrets the environment does not already set.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := secrets.ApplyVaultSecrets(ctx, secrets.VaultConfigFromEnv(), nil); err != nil {
		return nil, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
			ReadTimeout:    getEnvAsSeconds("SERVER_READ_TIMEOUT_SEC", 15),
			WriteTimeout:   getEnvAsSeconds("SERVER_WRITE_TIMEOUT_SEC", 600),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "carcom"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "carcom.db"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
			Timeout:        getEnvAsSeconds("OPENAI_TIMEOUT_SEC", 20),
		},
		Scraper: ScraperConfig{
			Sources:         getEnvAsList("SCRAPER_SOURCES", []string{"kaidee", "carsome", "roddonjai"}),
			AllowOne2Car:    getEnvAsBool("SCRAPER_ALLOW_ONE2CAR", false),
			Limit:           getEnvAsInt("SCRAPER_LIMIT", 20),
			DisplayLimit:    getEnvAsInt("SEARCH_DISPLAY_LIMIT", 20),
			Timeout:         getEnvAsSeconds("SCRAPER_TIMEOUT_SEC", 480),
			Fetcher:         getEnv("SCRAPER_FETCHER", "chrome"),
			Headless:        getEnvAsBool("SCRAPER_HEADLESS", true),
			DebugDump:       getEnvAsBool("SCRAPER_DEBUG_DUMP", false),
			DumpDir:         getEnv("SCRAPER_DUMP_DIR", "dumps"),
			ChromePath:      getEnv("SCRAPER_CHROME_PATH", ""),
			UserAgent:       getEnv("SCRAPER_USER_AGENT", defaultUserAgent),
			RequestInterval: time.Duration(getEnvAsInt("SCRAPER_REQUEST_INTERVAL_MS", 800)) * time.Millisecond,
			MaxConcurrency:  getEnvAsInt("SCRAPER_MAX_CONCURRENCY", 3),
		},
		Translation: TranslationConfig{
			Enabled:        getEnvAsBool("TRANSLATION_ENABLED", false),
			SourceLanguage: getEnv("TRANSLATION_SOURCE_LANG", "th"),
			TargetLanguage: getEnv("TRANSLATION_TARGET_LANG", "en"),
			CacheTTL:       time.Duration(getEnvAsInt("TRANSLATION_CACHE_TTL_HOURS", 24*30)) * time.Hour,
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "carcom"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	// The per-source cap falls back to the overall scraper limit.
	cfg.Scraper.LimitPerSource = getEnvAsInt("SCRAPER_LIMIT_PER_SOURCE", cfg.Scraper.Limit)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite3)", c.Database.Driver)
	}
	switch c.Scraper.Fetcher {
	case "chrome", "http":
	default:
		return fmt.Errorf("unsupported SCRAPER_FETCHER %q (want chrome or http)", c.Scraper.Fetcher)
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT_SEC must be positive")
	}
	if c.Scraper.MaxConcurrency <= 0 {
		c.Scraper.MaxConcurrency = 1
	}
	return nil
}

// EnabledSources returns the configured sources with one2car removed unless
// it was explicitly allowed. The default set is used when nothing remains.
func (c *ScraperConfig) EnabledSources() []string {
	var out []string
	for _, s := range c.Sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if s == "one2car" && !c.AllowOne2Car {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return []string{"kaidee", "carsome", "roddonjai"}
	}
	return out
}

// DatabaseDSN returns the connection string for the configured driver
func (c *DatabaseConfig) DatabaseDSN() string {
	if c.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
