package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL settings for the assembled-file registry.
// The registry is disabled when Host is empty.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a registry database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects where chunks and assembled files live.
type StorageConfig struct {
	// Backend is "local" (UploadDir on disk) or "minio".
	Backend   string
	ChunkDir  string
	UploadDir string
}

// TokenConfig holds capability token settings.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// StreamConfig holds range streaming settings.
type StreamConfig struct {
	BufferBytes     int
	AllowedReferers []string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost          string
	Port             string
	Timezone         string
	BodyLimitBytes   int
	CORSAllowOrigins string
	Storage          StorageConfig
	Token            TokenConfig
	Stream           StreamConfig
	Database         DatabaseConfig
	MinIO            MinIOConfig
}

// DefaultAllowedReferers are the origins allowed to embed streams when ALLOWED_REFERERS is unset.
var DefaultAllowedReferers = []string{
	"http://127.0.0.1:8000",
	"http://localhost:8000",
	"http://192.168.29.76:8000",
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:          getEnv("APP_HOST", "localhost:8000"),
		Port:             getEnv("PORT", "8000"),
		Timezone:         getEnv("APP_TIMEZONE", "UTC"),
		BodyLimitBytes:   getEnvInt("BODY_LIMIT_BYTES", 64<<20),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "local"),
			ChunkDir:  getEnv("CHUNK_DIR", "./chunks"),
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		},
		Token: TokenConfig{
			Secret: getEnv("TOKEN_SECRET", ""), // required, no default
			TTL:    getEnvDuration("TOKEN_TTL", time.Hour),
		},
		Stream: StreamConfig{
			BufferBytes:     getEnvInt("STREAM_BUFFER_BYTES", 1<<20),
			AllowedReferers: getEnvList("ALLOWED_REFERERS", DefaultAllowedReferers),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("90m") or plain seconds ("3600").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
