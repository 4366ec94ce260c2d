package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port           string
	DatabasePath   string
	MigrationsPath string
	LogLevel       string

	// Security settings
	SessionSecret      string
	SessionExpiry      time.Duration
	CSRFAuthKey        []byte
	MaxUploadSizeBytes int64
	AllowedOrigins     []string

	// Ingestion settings
	HeaderScanLines int
	ReportingPeriod string

	// Per-session roster cache
	RosterCacheExpiry time.Duration
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// DefaultHeaderScanLines is how many leading lines of an export are searched for the header row.
const DefaultHeaderScanLines = 20

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	sessionSecret := getRequiredEnv("SESSION_SECRET")
	csrfAuthKey := getRequiredEnv("CSRF_AUTH_KEY")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "5242880") // 5MB
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil || maxUploadSizeBytes <= 0 {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES '%s'. Using default 5MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 5 * 1024 * 1024
	}

	headerScanLines := getEnvAsInt("HEADER_SCAN_LINES", DefaultHeaderScanLines)
	if headerScanLines <= 0 {
		log.Printf("WARNING: HEADER_SCAN_LINES must be positive, got %d. Using %d.", headerScanLines, DefaultHeaderScanLines)
		headerScanLines = DefaultHeaderScanLines
	}

	Cfg = &AppConfig{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./strperformance.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		SessionSecret:      sessionSecret,
		SessionExpiry:      getEnvAsDuration("SESSION_EXPIRY", 12*time.Hour),
		CSRFAuthKey:        []byte(csrfAuthKey),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),

		HeaderScanLines: headerScanLines,
		ReportingPeriod: getEnv("REPORTING_PERIOD", "January 2026"),

		RosterCacheExpiry: getEnvAsDuration("ROSTER_CACHE_EXPIRY", 12*time.Hour),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, Period=%s, HeaderScanLines=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ReportingPeriod, Cfg.HeaderScanLines)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
