package config

// Configuration loading and validation for blecal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tturner/blecal/internal/errors"
	"github.com/tturner/blecal/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. BLECAL_LOGGING_LEVEL=debug.
const EnvPrefix = "BLECAL"

// DefaultPath is used when --config is not given and the file exists.
const DefaultPath = "blecal.yaml"

// LoggingConfig controls log output and rotation
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // silent, error, info, verbose, debug
	Format     string `mapstructure:"format" yaml:"format"` // text or json
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	HexDump    bool   `mapstructure:"hex_dump" yaml:"hex_dump"` // dump frames at debug level
}

// ServerConfig controls the HTTP codec service
type ServerConfig struct {
	Listen             string `mapstructure:"listen" yaml:"listen"`
	Mode               string `mapstructure:"mode" yaml:"mode"` // gin mode: release, debug or test
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
}

// CaptureConfig controls pcap recording
type CaptureConfig struct {
	Snaplen int `mapstructure:"snaplen" yaml:"snaplen"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // text, json or yaml
	Color  bool   `mapstructure:"color" yaml:"color"`
}

// Config is the complete tool configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// CreateDefaultConfig returns the built-in defaults
func CreateDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{
			Listen:             "127.0.0.1:8086",
			Mode:               "release",
			ShutdownTimeoutSec: 5,
		},
		Capture: CaptureConfig{
			Snaplen: 512,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// WriteDefaultConfig writes a default configuration to a file
func WriteDefaultConfig(path string) error {
	data, err := yaml.Marshal(CreateDefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Load reads configuration from path, applying defaults and BLECAL_*
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
			}
			return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
		}
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapConfigError(fmt.Errorf("parse config: %w", err), path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("unmarshal config: %w", err), path)
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("validate config: %w", err), path)
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults register every key so environment overrides reach Unmarshal.
	def := CreateDefaultConfig()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.max_size_mb", def.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", def.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", def.Logging.Compress)
	v.SetDefault("logging.hex_dump", def.Logging.HexDump)
	v.SetDefault("server.listen", def.Server.Listen)
	v.SetDefault("server.mode", def.Server.Mode)
	v.SetDefault("server.shutdown_timeout_sec", def.Server.ShutdownTimeoutSec)
	v.SetDefault("capture.snaplen", def.Capture.Snaplen)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.color", def.Output.Color)
	return v
}

// Validate checks enumerated values and ranges
func Validate(cfg *Config) error {
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.MaxSizeMB < 0 || cfg.Logging.MaxBackups < 0 || cfg.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation values must not be negative")
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	switch cfg.Server.Mode {
	case "release", "debug", "test":
	default:
		return fmt.Errorf("server.mode must be 'release', 'debug' or 'test', got %q", cfg.Server.Mode)
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}

	if cfg.Capture.Snaplen <= 0 || cfg.Capture.Snaplen > 65535 {
		return fmt.Errorf("capture.snaplen must be 1..65535, got %d", cfg.Capture.Snaplen)
	}

	switch strings.ToLower(cfg.Output.Format) {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be 'text', 'json' or 'yaml', got %q", cfg.Output.Format)
	}
	return nil
}

// LoggerOptions converts the logging section for logging.NewLoggerWithOptions
func (c LoggingConfig) LoggerOptions() (logging.Options, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return logging.Options{}, err
	}
	return logging.Options{
		Level:      level,
		File:       c.File,
		Format:     c.Format,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		HexDump:    c.HexDump,
	}, nil
}
