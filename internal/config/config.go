package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	AutoMigrate bool

	// Redis
	RedisURL string

	// CORS
	AllowedOrigins []string

	// Storage
	StorageDriver  string
	UploadDir      string
	UploadMaxBytes int64
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string

	// Analytics
	AnalyticsYearSource string
	AnalyticsCacheTTL   time.Duration

	// Orphan sweeper
	SweepInterval time.Duration
	SweepGrace    time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port: getEnv("PORT", "5000"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBDriver:    getEnv("DB_DRIVER", DriverPostgres),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", ""),
		DBUser:      getEnv("DB_USER", "gallery"),
		DBPassword:  getEnv("DB_PASSWORD", "gallery"),
		DBName:      getEnv("DB_NAME", "gallery"),
		AutoMigrate: parseBool(getEnv("AUTO_MIGRATE", "true"), true),

		// Redis is optional
		RedisURL: getEnv("REDIS_URL", ""),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "*")),

		// Storage
		StorageDriver:  getEnv("STORAGE_DRIVER", "local"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: parseInt64(getEnv("UPLOAD_MAX_BYTES", "5242880"), 5<<20),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", "gallery-uploads"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),

		// Analytics
		AnalyticsYearSource: getEnv("ANALYTICS_YEAR_SOURCE", "year"),
		AnalyticsCacheTTL:   parseDuration(getEnv("ANALYTICS_CACHE_TTL", "30s"), 30*time.Second),

		// Sweeper
		SweepInterval: parseDuration(getEnv("SWEEP_INTERVAL", "0"), 0),
		SweepGrace:    parseDuration(getEnv("SWEEP_GRACE", "1h"), time.Hour),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

// DSN returns the data source name for the configured driver.
// DATABASE_URL wins over the individual DB_* parts.
func (c *Config) DSN() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}

	switch c.DBDriver {
	case DriverPostgres:
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     c.DBHost + ":" + port,
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case DriverMySQL:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, port)
		mc.DBName = c.DBName
		mc.ParseTime = true
		// Report matched rows, not changed ones, so updates can detect a missing row
		mc.ClientFoundRows = true
		if err := mc.Apply(mysql.Charset("utf8mb4", "")); err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		return mc.FormatDSN(), nil
	case DriverSQLite:
		// DB_NAME doubles as the database file
		name := c.DBName
		if !strings.HasSuffix(name, ".db") && name != ":memory:" {
			name += ".db"
		}
		return "file:" + name + "?_foreign_keys=on&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt64(s string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
