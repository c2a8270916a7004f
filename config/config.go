package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Device  DeviceConfig  `mapstructure:"device"`
	Sort    SortConfig    `mapstructure:"sort"`
	Bench   BenchConfig   `mapstructure:"bench"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

type DeviceConfig struct {
	// Fallback lets commands sort on the CPU when no adapter or device is usable.
	Fallback bool `mapstructure:"fallback"`
}

type SortConfig struct {
	Kind    string        `mapstructure:"kind"`
	Timeout time.Duration `mapstructure:"timeout"`
	Verify  bool          `mapstructure:"verify"`
}

type BenchConfig struct {
	Jobs        int   `mapstructure:"jobs"`
	Size        int   `mapstructure:"size"`
	Concurrency int   `mapstructure:"concurrency"`
	Seed        int64 `mapstructure:"seed"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Device: DeviceConfig{
			Fallback: true,
		},
		Sort: SortConfig{
			Kind:    "u32",
			Timeout: 10 * time.Second,
			Verify:  true,
		},
		Bench: BenchConfig{
			Jobs: 1000,
			Size: 1000,
			Seed: 1,
		},
	}
}

// Load loads configuration from file, environment, and defaults.
// v may carry flag bindings; a fresh instance is used when nil.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ranksort"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("RANKSORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Logging.File = expandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	validKinds := []string{"u32", "uint32", "i32", "int32", "f32", "float32"}
	if !contains(validKinds, strings.ToLower(c.Sort.Kind)) {
		return fmt.Errorf("sort.kind must be one of: %v", validKinds)
	}
	if c.Sort.Timeout <= 0 {
		return errors.New("sort.timeout must be positive")
	}

	if c.Bench.Jobs < 1 {
		return errors.New("bench.jobs must be at least 1")
	}
	if c.Bench.Size < 0 {
		return errors.New("bench.size must not be negative")
	}
	if c.Bench.Concurrency < 0 {
		return errors.New("bench.concurrency must not be negative")
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)

	v.SetDefault("device.fallback", cfg.Device.Fallback)

	v.SetDefault("sort.kind", cfg.Sort.Kind)
	v.SetDefault("sort.timeout", cfg.Sort.Timeout)
	v.SetDefault("sort.verify", cfg.Sort.Verify)

	v.SetDefault("bench.jobs", cfg.Bench.Jobs)
	v.SetDefault("bench.size", cfg.Bench.Size)
	v.SetDefault("bench.concurrency", cfg.Bench.Concurrency)
	v.SetDefault("bench.seed", cfg.Bench.Seed)
}
