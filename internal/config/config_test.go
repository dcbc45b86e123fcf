package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int{19, 24}, cfg.Decoder.ValidLengths)
	assert.Equal(t, 10, cfg.Decoder.FallbackMinLength)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "cellscan.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.True(t, cfg.ScanLog.Enabled)
	assert.Equal(t, "scanlogs", cfg.ScanLog.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.Burst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.False(t, cfg.S3.PathStyle)

	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
decoder:
  valid_lengths: [19, 24, 25]
store:
  driver: postgres
  database_url: postgres://localhost/cellscan
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int{19, 24, 25}, cfg.Decoder.ValidLengths)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/cellscan", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Decoder.FallbackMinLength)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CELLSCAN_STORE_DRIVER", "memory")
	t.Setenv("CELLSCAN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CELLSCAN_SERVER_PORT", "3000")
	t.Setenv("CELLSCAN_DECODER_FALLBACK_MIN_LENGTH", "12")
	t.Setenv("CELLSCAN_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("CELLSCAN_S3_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Decoder.FallbackMinLength)
	assert.Equal(t, "http://minio:9000", cfg.S3.Endpoint)
	assert.True(t, cfg.S3.PathStyle)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("decoder: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Decoder.ValidLengths = []int{19, 24}
	cfg.Decoder.FallbackMinLength = 10
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "cellscan.db"
	cfg.Server.Port = 8080
	cfg.Batch.Concurrency = 8
	return cfg
}

func TestValidateDecode_IgnoresStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"

	assert.NoError(t, cfg.Validate("decode"))
}

func TestValidateDecoderLengths(t *testing.T) {
	cfg := validDefaults()
	cfg.Decoder.ValidLengths = []int{19, 12}

	err := cfg.Validate("decode")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "12 is shorter than 17")

	cfg.Decoder.ValidLengths = nil
	err = cfg.Validate("decode")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decoder.valid_lengths is empty")

	cfg.Decoder.ValidLengths = []int{19, 24, 25}
	assert.NoError(t, cfg.Validate("decode"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"
	err := cfg.Validate("store")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store.driver "mongo"`)

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err = cfg.Validate("store")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "memory"
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateBatchConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 256")

	cfg.Batch.Concurrency = 257
	assert.Error(t, cfg.Validate("batch"))

	cfg.Batch.Concurrency = 256
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
