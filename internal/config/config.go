// Package config loads application configuration from command-line flags,
// environment variables and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Auth       AuthConfig
	Blog       BlogConfig
	Generation GenerationConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the on-disk location of the database, search index,
// auth key and locally stored images.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// CORSOrigins lists browser origins allowed to call the API. Empty allows any.
	CORSOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key, set by auth.LoadOrGenerateKey in main.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	// SessionTTL bounds how long a persisted currentUser record lives in
	// backends that support expiry.
	SessionTTL time.Duration
}

// BlogConfig holds listing behaviour.
type BlogConfig struct {
	PageSize int
}

// GenerationConfig holds the content generation backend configuration.
type GenerationConfig struct {
	// APIKey is the generative language API credential. Empty selects
	// placeholder output.
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int
}

// StorageConfig selects where uploaded images live.
type StorageConfig struct {
	Backend   string // local or s3
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig enables the Redis session backend when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig enables post event publication when Brokers is set.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// TelemetryConfig enables OTLP tracing when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database and uploads")
	serverName := fs.String("server-name", "", "Name for the server")
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	sessionTTL := fs.String("session-ttl", "", "Persisted session lifetime (e.g., 720h)")
	pageSize := fs.String("page-size", "", "Posts per page (default: 6)")
	storageBackend := fs.String("storage", "", "Image storage backend: local or s3")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine; variables already set win.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:        getConfigValue(*serverName, "SERVER_NAME", "Inkwell"),
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
		},
		Blog: BlogConfig{
			PageSize: getIntConfigValue(*pageSize, "PAGE_SIZE", 6),
		},
		Generation: GenerationConfig{
			APIKey:        getConfigValue("", "API_KEY", ""),
			Model:         getConfigValue("", "GENERATION_MODEL", "gemini-2.5-flash"),
			BaseURL:       getConfigValue("", "GENERATION_BASE_URL", "https://generativelanguage.googleapis.com"),
			RatePerMinute: getIntConfigValue("", "GENERATION_RATE_PER_MINUTE", 30),
		},
		Storage: StorageConfig{
			Backend:   getConfigValue(*storageBackend, "STORAGE_BACKEND", "local"),
			Endpoint:  getConfigValue("", "S3_ENDPOINT", ""),
			AccessKey: getConfigValue("", "S3_ACCESS_KEY", ""),
			SecretKey: getConfigValue("", "S3_SECRET_KEY", ""),
			Bucket:    getConfigValue("", "S3_BUCKET", "inkwell-images"),
			UseSSL:    getBoolConfigValue("", "S3_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getConfigValue("", "REDIS_ADDR", ""),
			Password: getConfigValue("", "REDIS_PASSWORD", ""),
			DB:       getIntConfigValue("", "REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getConfigValue("", "KAFKA_BROKERS", "")),
			Topic:   getConfigValue("", "KAFKA_TOPIC", "inkwell.posts"),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    getConfigValue("", "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getConfigValue("", "OTEL_SERVICE_NAME", "inkwell-server"),
			SampleRatio: getFloatConfigValue("", "OTEL_SAMPLE_RATIO", 1.0),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		target                 *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		// Generation requests can take well over the default read budget.
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h", &cfg.Auth.AccessTokenDuration},
		{*sessionTTL, "SESSION_TTL", "720h", &cfg.Auth.SessionTTL},
		{"", "GENERATION_TIMEOUT", "45s", &cfg.Generation.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Blog.PageSize < 1 {
		return fmt.Errorf("invalid page size: %d (must be at least 1)", c.Blog.PageSize)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return errors.New("s3 storage requires S3_ENDPOINT and S3_BUCKET")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be local or s3)", c.Storage.Backend)
	}

	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("invalid sample ratio: %v (must be between 0 and 1)", c.Telemetry.SampleRatio)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Inkwell", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
