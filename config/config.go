package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// DefaultUserAgent impersonates a common desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	StoreDriver      string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	FetchMode      string
	ChromeBin      string
	UserAgent      string
	AcceptLanguage string
	ReviewBaseURL  string
	HTTPTimeout    time.Duration

	ProfilePath   string
	CatalogPath   string
	CSVOutputPath string
	HTTPAddr      string

	LogLevel    string
	LogEncoding string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "radar"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "radar123"),
		PostgresDB:       getEnv("POSTGRES_DB", "competitor_radar"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		FetchMode:      strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		UserAgent:      getEnv("USER_AGENT", DefaultUserAgent),
		AcceptLanguage: getEnv("ACCEPT_LANGUAGE", "ja,en-US;q=0.9,en;q=0.8"),
		ReviewBaseURL:  strings.TrimRight(getEnv("REVIEW_BASE_URL", "https://www.amazon.co.jp"), "/"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 0),

		ProfilePath:   getEnv("PROFILE_PATH", ""),
		CatalogPath:   getEnv("CATALOG_PATH", ""),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/snapshots.csv"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "console"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s") or bare milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
