package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// minStructuredLength is the shortest code the structured layout can slice.
const minStructuredLength = 17

// Config holds the full application configuration.
type Config struct {
	Decoder DecoderConfig `yaml:"decoder" mapstructure:"decoder"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	ScanLog ScanLogConfig `yaml:"scanlog" mapstructure:"scanlog"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	S3      S3Config      `yaml:"s3" mapstructure:"s3"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DecoderConfig configures code validation.
type DecoderConfig struct {
	ValidLengths      []int `yaml:"valid_lengths" mapstructure:"valid_lengths"`
	FallbackMinLength int   `yaml:"fallback_min_length" mapstructure:"fallback_min_length"`
}

// StoreConfig configures the scan history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ScanLogConfig configures the daily CSV scan log.
type ScanLogConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir       string `yaml:"dir" mapstructure:"dir"`
	ExportDir string `yaml:"export_dir" mapstructure:"export_dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int      `yaml:"burst" mapstructure:"burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BatchConfig configures file decoding.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// S3Config configures s3:// batch inputs and export destinations. Empty
// credentials use the default AWS chain.
type S3Config struct {
	Region          string `yaml:"region" mapstructure:"region"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	PathStyle       bool   `yaml:"path_style" mapstructure:"path_style"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

var storeDrivers = []string{"sqlite", "postgres", "memory"}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CELLSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("decoder.valid_lengths", []int{19, 24})
	v.SetDefault("decoder.fallback_min_length", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "cellscan.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("scanlog.enabled", true)
	v.SetDefault("scanlog.dir", "scanlogs")
	v.SetDefault("scanlog.export_dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values the given command mode cannot run without.
// Mode is one of "decode", "batch", "serve" or "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	if len(c.Decoder.ValidLengths) == 0 {
		errs = append(errs, "decoder.valid_lengths is empty")
	}
	for _, n := range c.Decoder.ValidLengths {
		if n < minStructuredLength {
			errs = append(errs, fmt.Sprintf("decoder.valid_lengths: %d is shorter than %d", n, minStructuredLength))
		}
	}
	if c.Decoder.FallbackMinLength < 1 {
		errs = append(errs, "decoder.fallback_min_length must be > 0")
	}

	switch mode {
	case "decode":
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 256 {
			errs = append(errs, "batch.concurrency must be between 1 and 256")
		}
		errs = append(errs, c.validateStore()...)
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
			errs = append(errs, "server.rate_limit and server.burst must be >= 0")
		}
		errs = append(errs, c.validateStore()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	if !slices.Contains(storeDrivers, c.Store.Driver) {
		return []string{fmt.Sprintf("unknown store.driver %q", c.Store.Driver)}
	}
	if c.Store.Driver != "memory" && c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
