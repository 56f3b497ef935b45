// Package config loads texbench settings from defaults, an optional YAML
// file, TEXBENCH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix. Nested keys use '_', so
// bench.refresh is TEXBENCH_BENCH_REFRESH.
const EnvPrefix = "TEXBENCH"

// Config is the complete texbench configuration.
type Config struct {
	// Backend names a registered device backend. Empty selects the best
	// available one.
	Backend string        `mapstructure:"backend"`
	Bench   BenchConfig   `mapstructure:"bench"`
	Kernel  KernelConfig  `mapstructure:"kernel"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BenchConfig controls the benchmark loop: pattern refresh, report window
// and stop conditions.
type BenchConfig struct {
	Refresh    time.Duration `mapstructure:"refresh"`
	Report     time.Duration `mapstructure:"report"`
	Iterations int64         `mapstructure:"iterations"`
	Duration   time.Duration `mapstructure:"duration"`
}

// KernelConfig holds kernel compilation settings.
type KernelConfig struct {
	ShaderDumpDir string `mapstructure:"shader_dump_dir"`
}

// OutputConfig names optional output files.
type OutputConfig struct {
	DumpFrame string `mapstructure:"dump_frame"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Bench: BenchConfig{
			Refresh: 2 * time.Second,
			Report:  time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration into v and decodes it. cfgFile may be empty,
// in which case texbench.yaml in the working directory is used if present.
// Flags bound to v with BindPFlag take precedence over everything else.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := Default()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("texbench")
	}

	v.SetEnvPrefix(EnvPrefix)
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
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Bench.Refresh <= 0 {
		return errors.New("bench.refresh must be positive")
	}
	if c.Bench.Report <= 0 {
		return errors.New("bench.report must be positive")
	}
	if c.Bench.Iterations < 0 {
		return errors.New("bench.iterations must not be negative")
	}
	if c.Bench.Duration < 0 {
		return errors.New("bench.duration must not be negative")
	}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

// SlogLevel maps Logging.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("backend", cfg.Backend)

	v.SetDefault("bench.refresh", cfg.Bench.Refresh)
	v.SetDefault("bench.report", cfg.Bench.Report)
	v.SetDefault("bench.iterations", cfg.Bench.Iterations)
	v.SetDefault("bench.duration", cfg.Bench.Duration)

	v.SetDefault("kernel.shader_dump_dir", cfg.Kernel.ShaderDumpDir)
	v.SetDefault("output.dump_frame", cfg.Output.DumpFrame)

	v.SetDefault("logging.level", cfg.Logging.Level)
}
