// Package config provides application configuration loaded from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob"
)

// Config holds all application configuration.
type Config struct {
	Blob    blob.Config
	Prefix  string // key prefix for every persisted blob
	Log     LogConfig
	Metrics MetricsConfig
	Auth    AuthConfig
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level slog.Level
	JSON  bool
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Namespace string
	Textfile  string // when set, metrics are written here on exit
}

// AuthConfig holds user directory settings.
type AuthConfig struct {
	BcryptCost int
}

// Load reads the given .env files (default ".env") when present, then builds
// the configuration from the environment. Variables already set in the
// process win over the files.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (Config, error) {
	driver := blob.Driver(strings.ToLower(getEnv("SARC_BLOB_DRIVER", string(blob.DriverFilesystem))))
	cfg := Config{
		Blob: blob.Config{
			Driver: driver,
			FSRoot: getEnv("SARC_BLOB_FS_ROOT", "./sarcdata"),
			S3: blob.S3Config{
				Region:          getEnv("SARC_BLOB_S3_REGION", "us-east-1"),
				Bucket:          os.Getenv("SARC_BLOB_S3_BUCKET"),
				Endpoint:        os.Getenv("SARC_BLOB_S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("SARC_BLOB_S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("SARC_BLOB_S3_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("SARC_BLOB_S3_SESSION_TOKEN"),
				PathStyle:       getEnvBool("SARC_BLOB_S3_PATH_STYLE", false),
			},
			Redis: blob.RedisConfig{
				Addr:      getEnv("SARC_REDIS_ADDR", "localhost:6379"),
				Password:  os.Getenv("SARC_REDIS_PASSWORD"),
				DB:        getEnvInt("SARC_REDIS_DB", 0),
				Namespace: getEnv("SARC_REDIS_NAMESPACE", "sarc:blob"),
			},
		},
		Prefix: getEnv("SARC_BLOB_PREFIX", "sarc/"),
		Log:    LogConfig{JSON: getEnvBool("SARC_LOG_JSON", false)},
		Metrics: MetricsConfig{
			Namespace: getEnv("SARC_METRICS_NAMESPACE", "sarc"),
			Textfile:  os.Getenv("SARC_METRICS_TEXTFILE"),
		},
		Auth: AuthConfig{BcryptCost: getEnvInt("SARC_BCRYPT_COST", 10)},
	}
	switch driver {
	case blob.DriverSQLite:
		cfg.Blob.DSN = getEnv("SARC_SQLITE_PATH", "sarc.db")
	case blob.DriverPostgres:
		cfg.Blob.DSN = getEnv("SARC_POSTGRES_DSN", "postgres://localhost/sarc?sslmode=disable")
	case blob.DriverMySQL:
		cfg.Blob.DSN = getEnv("SARC_MYSQL_DSN", "sarc:sarc@tcp(localhost:3306)/sarc?charset=utf8mb4&parseTime=true&loc=UTC")
	case blob.DriverS3:
		if cfg.Blob.S3.Bucket == "" {
			return Config{}, fmt.Errorf("SARC_BLOB_S3_BUCKET required for s3 driver")
		}
	case blob.DriverFilesystem, blob.DriverMemory, blob.DriverRedis:
	default:
		return Config{}, fmt.Errorf("unknown SARC_BLOB_DRIVER %q", driver)
	}
	if err := cfg.Log.Level.UnmarshalText([]byte(getEnv("SARC_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("SARC_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool accepts "1", "true", "yes" as true.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
