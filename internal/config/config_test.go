package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Data:      DataConfig{BasePath: "/some/path"},
		Blog:      BlogConfig{PageSize: 6},
		Storage:   StorageConfig{Backend: "local"},
		Telemetry: TelemetryConfig{SampleRatio: 1},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "uppercase log level accepted", mutate: func(c *Config) { c.Logger.Level = "DEBUG" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logger.Level = "verbose" }, wantErr: "invalid log level"},
		{name: "empty data path", mutate: func(c *Config) { c.Data.BasePath = "" }, wantErr: "data base path"},
		{name: "zero page size", mutate: func(c *Config) { c.Blog.PageSize = 0 }, wantErr: "invalid page size"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: "invalid storage backend"},
		{name: "s3 without endpoint", mutate: func(c *Config) { c.Storage.Backend = "s3"; c.Storage.Bucket = "b" }, wantErr: "S3_ENDPOINT"},
		{
			name: "s3 configured",
			mutate: func(c *Config) {
				c.Storage = StorageConfig{Backend: "s3", Endpoint: "localhost:9000", Bucket: "images"}
			},
		},
		{name: "kafka without topic", mutate: func(c *Config) { c.Kafka.Brokers = []string{"k:9092"} }, wantErr: "KAFKA_TOPIC"},
		{name: "sample ratio above one", mutate: func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, wantErr: "sample ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty uses default", in: "", want: filepath.Join(homeDir, "Inkwell", "data")},
		{name: "tilde expands", in: "~/blog", want: filepath.Join(homeDir, "blog")},
		{name: "absolute kept", in: "/var/lib/inkwell", want: "/var/lib/inkwell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Data: DataConfig{BasePath: tt.in}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.want, cfg.Data.BasePath)
		})
	}
}

func TestExpandDataPath_RelativeBecomesAbsolute(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "relative/data"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("INKWELL_TEST_VALUE", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "INKWELL_TEST_VALUE", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "INKWELL_TEST_VALUE", "default"))
	assert.Equal(t, "default", getConfigValue("", "INKWELL_TEST_UNSET", "default"))
}

func TestTypedConfigValues(t *testing.T) {
	t.Setenv("INKWELL_TEST_BOOL", "YES")
	t.Setenv("INKWELL_TEST_INT", "not-a-number")
	t.Setenv("INKWELL_TEST_FLOAT", "0.25")

	assert.True(t, getBoolConfigValue("", "INKWELL_TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("no", "INKWELL_TEST_BOOL", true))
	assert.Equal(t, 7, getIntConfigValue("", "INKWELL_TEST_INT", 7))
	assert.Equal(t, 12, getIntConfigValue("12", "INKWELL_TEST_INT", 7))
	assert.InDelta(t, 0.25, getFloatConfigValue("", "INKWELL_TEST_FLOAT", 1), 1e-9)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
}

func TestLoad_DefaultsAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("ACCESS_TOKEN_DURATION", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load([]string{
		"-data-path", dir,
		"-env-file", filepath.Join(dir, "missing.env"),
		"-port", "9090",
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 6, cfg.Blog.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, "local", cfg.Storage.Backend)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# comment\nINKWELL_TEST_FROM_FILE=file\nLOG_LEVEL=error\n\nSERVER_NAME=\"Quoted Name\"\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("LOG_LEVEL", "debug")
	// t.Setenv restores the original value; unsetting lets the file supply it.
	t.Setenv("SERVER_NAME", "")
	require.NoError(t, os.Unsetenv("SERVER_NAME"))
	t.Cleanup(func() { _ = os.Unsetenv("INKWELL_TEST_FROM_FILE") })

	cfg, err := Load([]string{"-data-path", dir, "-env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "file", os.Getenv("INKWELL_TEST_FROM_FILE"))
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "Quoted Name", cfg.Server.Name)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	_, err := Load([]string{
		"-data-path", dir,
		"-env-file", filepath.Join(dir, "missing.env"),
		"-access-token-duration", "soon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token_duration")
}
