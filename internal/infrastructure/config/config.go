// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogFile    string
	LogLevel   string

	// Metrics
	MetricsAddr string

	// Portal
	PortalBaseURL    string
	PortalAPIPath    string
	PortalTargetPath string
	PortalCookie     string
	UserAgent        string

	// Fetch
	FetchConcurrency int
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration
	FetchTimeout     time.Duration
	MaxConns         int
	MaxConnsPerHost  int

	// Raw storage
	RawStore string
	RawDir   string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresDSN      string
	PostgresMaxConns int
	SinkBatchSize    int
	AutoMigrate      bool

	// Redis
	RedisURL  string
	CookieTTL time.Duration

	// Flat file
	FlatFile string

	// Gmail
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	ReportTo          []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogFile:    getEnv("LOG_FILE", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		MetricsAddr: getEnv("METRICS_ADDR", ""),

		PortalBaseURL:    getEnv("PORTAL_BASE_URL", "https://www.airport.co.kr"),
		PortalAPIPath:    getEnv("PORTAL_API_PATH", "/booking/ajaxf/frAirticketSvc/getData.do"),
		PortalTargetPath: getEnv("PORTAL_TARGET_PATH", "/booking/cms/frCon/index.do?MENU_ID=80"),
		PortalCookie:     getEnv("PORTAL_COOKIE", ""),
		UserAgent: getEnv("PORTAL_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"),

		FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 50),
		FetchMaxAttempts: getEnvAsInt("FETCH_MAX_ATTEMPTS", 3),
		FetchBaseDelay:   getEnvAsDuration("FETCH_BASE_DELAY", 2*time.Second),
		FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT", 15*time.Second),
		MaxConns:         getEnvAsInt("MAX_CONNS", 100),
		MaxConnsPerHost:  getEnvAsInt("MAX_CONNS_PER_HOST", 50),

		RawStore: getEnv("RAW_STORE", "file"),
		RawDir:   getEnv("RAW_DIR", "data/raw"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "airfare"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		PostgresMaxConns: getEnvAsInt("POSTGRES_MAX_CONNS", 10),
		SinkBatchSize:    getEnvAsInt("SINK_BATCH_SIZE", 5000),
		AutoMigrate:      getEnvAsBool("AUTO_MIGRATE", true),

		RedisURL:  getEnv("REDIS_URL", ""),
		CookieTTL: getEnvAsDuration("COOKIE_TTL", 30*time.Minute),

		FlatFile: getEnv("FLAT_FILE", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		ReportTo:          getEnvAsList("REPORT_TO"),
	}

	return config, nil
}

// PortalAPIURL is the search endpoint
func (c *Config) PortalAPIURL() string {
	return strings.TrimRight(c.PortalBaseURL, "/") + c.PortalAPIPath
}

// PortalTargetURL is the page that issues session cookies
func (c *Config) PortalTargetURL() string {
	return strings.TrimRight(c.PortalBaseURL, "/") + c.PortalTargetPath
}

// ReportingEnabled reports whether run summaries should be mailed
func (c *Config) ReportingEnabled() bool {
	return c.GmailRefreshToken != "" && len(c.ReportTo) > 0
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("2s") or plain seconds ("2")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
