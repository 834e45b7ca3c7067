// Package config loads application configuration from file and
// environment and initialises the global logger.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tpscan/internal/patterns"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Worker   WorkerConfig   `yaml:"worker" mapstructure:"worker"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Patterns PatternsConfig `yaml:"patterns" mapstructure:"patterns"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// WorkerConfig configures the job-queue worker loop.
type WorkerConfig struct {
	PollIntervalSecs int    `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	DocumentDir      string `yaml:"document_dir" mapstructure:"document_dir"`
}

// BatchConfig configures register batch processing.
type BatchConfig struct {
	MaxConcurrentFilings int `yaml:"max_concurrent_filings" mapstructure:"max_concurrent_filings"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// PatternsConfig points at an optional YAML file overriding the
// built-in validation thresholds.
type PatternsConfig struct {
	ThresholdsFile string `yaml:"thresholds_file" mapstructure:"thresholds_file"`
	// Zero means keep the built-in scan window.
	SubItemWindow int `yaml:"sub_item_window" mapstructure:"sub_item_window"`
	AmountWindow  int `yaml:"amount_window" mapstructure:"amount_window"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TPSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tpscan.db")
	v.SetDefault("worker.poll_interval_secs", 3)
	v.SetDefault("worker.document_dir", ".")
	v.SetDefault("batch.max_concurrent_filings", 5)
	v.SetDefault("server.port", 8080)
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

// LoadLibrary returns the pattern library, applying threshold overrides
// from the configured YAML file when present. The library is built once
// at startup and shared read-only.
func (c *Config) LoadLibrary() (*patterns.Library, error) {
	lib := patterns.Default()
	if c.Patterns.SubItemWindow > 0 {
		lib.Windows.SubItem = c.Patterns.SubItemWindow
	}
	if c.Patterns.AmountWindow > 0 {
		lib.Windows.Amount = c.Patterns.AmountWindow
	}
	if c.Patterns.ThresholdsFile == "" {
		return lib, nil
	}

	data, err := os.ReadFile(c.Patterns.ThresholdsFile)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read thresholds file %s", c.Patterns.ThresholdsFile)
	}
	overrides := lib.Thresholds
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "config: parse thresholds file")
	}
	lib.Thresholds = overrides
	return lib, nil
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
