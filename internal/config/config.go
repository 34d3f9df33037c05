package config

import (
	"errors"  // For validation errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list splitting
	"time"    // For durations

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For the starting balance
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // Database driver: mysql, postgres or sqlite
	DBDSN      string // Full DSN, overrides the individual DB fields when set
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name (file path for sqlite)
	JWTSecret  string // Session token signing key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	LogLevel  string // logrus level name
	LogFormat string // "text" or "json"

	SessionTTL      time.Duration   // Lifetime of a login session
	StartingBalance decimal.Decimal // Cash credited to new accounts

	PriceAPIURL          string        // Alpha Vantage compatible endpoint
	PriceAPIKey          string        // API key for the price service
	PriceAPITimeout      time.Duration // Per request timeout for the price service
	QuoteCacheTTL        time.Duration // How long a latest price stays cached
	HistoryCacheTTL      time.Duration // How long a daily series stays cached
	PriceRefreshSchedule string        // cron schedule for the cache warmer, empty disables it

	CORSOrigins []string // Allowed CORS origins, empty disables CORS

	SMTPHost     string // SMTP server, empty disables mail
	SMTPPort     string // SMTP port
	SMTPUsername string // SMTP user
	SMTPPassword string // SMTP password
	MailFrom     string // Sender address
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:      os.Getenv("DB_DSN"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     getEnv("DB_NAME", "mock_trading"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		RedisAddr:  getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		RedisDB:    redisDB,
		IsProd:     os.Getenv("IS_PROD") == "true",

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SessionTTL:      getDuration("SESSION_TTL", 24*time.Hour),
		StartingBalance: getDecimal("STARTING_BALANCE", decimal.NewFromInt(10000)),

		PriceAPIURL:          getEnv("PRICE_API_URL", "https://www.alphavantage.co/query"),
		PriceAPIKey:          os.Getenv("PRICE_API_KEY"),
		PriceAPITimeout:      getDuration("PRICE_API_TIMEOUT", 10*time.Second),
		QuoteCacheTTL:        getDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		HistoryCacheTTL:      getDuration("HISTORY_CACHE_TTL", 24*time.Hour),
		PriceRefreshSchedule: os.Getenv("PRICE_REFRESH_SCHEDULE"),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@mock-trading.local"),
	}
}

// Validate reports configuration that the server cannot run without
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be one of mysql, postgres, sqlite"))
	}
	if c.StartingBalance.IsNegative() {
		errs = append(errs, errors.New("STARTING_BALANCE must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}

func getDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
