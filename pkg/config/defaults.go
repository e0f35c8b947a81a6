// Package config provides centralized default values for PixPage
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, redact(key, val), defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// redact keeps secrets out of the override log lines.
func redact(key, value string) string {
	upper := strings.ToUpper(key)
	if strings.Contains(upper, "KEY") || strings.Contains(upper, "TOKEN") || strings.Contains(upper, "SECRET") {
		return "****"
	}
	return value
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// ServerShutdownTimeout bounds graceful shutdown of the HTTP server.
	ServerShutdownTimeout time.Duration

	CORSOrigins   []string
	GinMode       string
	PublicBaseURL string

	// Database
	DatabasePath             string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Cache
	PageCacheTTL    time.Duration
	HTMLChunkTTL    time.Duration
	CleanupInterval time.Duration
	CleanupVerbose  bool

	// Payment gateway
	GatewayAPIURL         string
	GatewaySecretKey      string
	GatewayTimeout        time.Duration
	PaymentPollInterval   time.Duration
	PaymentExpiration     time.Duration
	PaymentTokenSecret    string
	SettingsEncryptionKey string

	// AI template editing
	AIProvider string
	AIModel    string
	AIAPIKey   string
	AIBaseURL  string
	AITimeout  time.Duration

	// Email
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	// Media
	MediaDir            string
	MediaURLPrefix      string
	ImagePlaceholderURL string
	MediaMaxUploadBytes int
	MediaMaxWidth       int
	MediaWebPQuality    int

	// Logging
	LogDirectory string
	LogLevel     string
	LogJSON      bool
	LogToFile    bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	ServerShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	CORSOrigins = getEnvList("CORS_ORIGINS", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
		"http://[::1]:3000",
		"http://[::1]:5173",
	})

	GinMode = getEnvString("GIN_MODE", "release")
	PublicBaseURL = strings.TrimRight(getEnvString("PUBLIC_BASE_URL", "http://localhost:8080"), "/")

	// Database
	DatabasePath = getEnvString("DATABASE_PATH", "data/pixpage.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Cache
	PageCacheTTL = time.Duration(getEnvInt("PAGE_CACHE_TTL_MINUTES", 60)) * time.Minute
	HTMLChunkTTL = time.Duration(getEnvInt("HTML_CHUNK_TTL_MINUTES", 15)) * time.Minute
	CleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute
	CleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", false)

	// Payment gateway
	GatewayAPIURL = getEnvString("FOR4PAYMENTS_API_URL", "https://app.for4payments.com.br/api/v1")
	GatewaySecretKey = getEnvString("FOR4PAYMENTS_SECRET_KEY", "")
	GatewayTimeout = getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second)
	PaymentPollInterval = time.Duration(getEnvInt("PAYMENT_POLL_INTERVAL_SECONDS", 5)) * time.Second
	PaymentExpiration = time.Duration(getEnvInt("PAYMENT_EXPIRATION_MINUTES", 30)) * time.Minute
	PaymentTokenSecret = getEnvString("PAYMENT_TOKEN_SECRET", "")
	SettingsEncryptionKey = getEnvString("SETTINGS_ENCRYPTION_KEY", "")

	// AI template editing
	AIProvider = getEnvString("AI_PROVIDER", "none")
	AIModel = getEnvString("AI_MODEL", "gpt-4o-mini")
	AIAPIKey = getEnvString("AI_API_KEY", "")
	AIBaseURL = getEnvString("AI_BASE_URL", "")
	AITimeout = getEnvDuration("AI_TIMEOUT", 60*time.Second)

	// Email
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFrom = getEnvString("EMAIL_FROM", "noreply@pixpage.app")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "PixPage")

	// Media
	MediaDir = getEnvString("MEDIA_DIR", "data/media")
	MediaURLPrefix = getEnvString("MEDIA_URL_PREFIX", "/media")
	ImagePlaceholderURL = getEnvString("IMAGE_PLACEHOLDER_URL", "https://placehold.co/200x100?text=Image+not+found")
	MediaMaxUploadBytes = getEnvInt("MEDIA_MAX_UPLOAD_BYTES", 5*1024*1024)
	MediaMaxWidth = getEnvInt("MEDIA_MAX_WIDTH", 1200)
	MediaWebPQuality = getEnvInt("MEDIA_WEBP_QUALITY", 85)

	// Logging
	LogDirectory = getEnvString("LOG_DIR", "logs")
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogJSON = getEnvBool("LOG_JSON", true)
	LogToFile = getEnvBool("LOG_TO_FILE", false)
}
