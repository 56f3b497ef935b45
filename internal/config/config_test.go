package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// inTempDir keeps Load from picking up a texbench.yaml in the package dir.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "bench.yaml")
	data := `
backend: software
bench:
  refresh: 500ms
  iterations: 10
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "software" {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.Bench.Refresh != 500*time.Millisecond {
		t.Errorf("Refresh = %v", cfg.Bench.Refresh)
	}
	if cfg.Bench.Report != time.Second {
		t.Errorf("Report = %v, want default", cfg.Bench.Report)
	}
	if cfg.Bench.Iterations != 10 {
		t.Errorf("Iterations = %d", cfg.Bench.Iterations)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v", cfg.SlogLevel())
	}
}

func TestLoadEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("TEXBENCH_BENCH_REPORT", "250ms")
	t.Setenv("TEXBENCH_KERNEL_SHADER_DUMP_DIR", "/tmp/shaders")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bench.Report != 250*time.Millisecond {
		t.Errorf("Report = %v", cfg.Bench.Report)
	}
	if cfg.Kernel.ShaderDumpDir != "/tmp/shaders" {
		t.Errorf("ShaderDumpDir = %q", cfg.Kernel.ShaderDumpDir)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("TEXBENCH_BACKEND", "vulkan")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("backend", "", "")
	if err := fs.Parse([]string{"--backend", "software"}); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	if err := v.BindPFlag("backend", fs.Lookup("backend")); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "software" {
		t.Errorf("Backend = %q, want flag value", cfg.Backend)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := inTempDir(t)
	_, err := Load(viper.New(), filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Errorf("Load() error = %v, want reading config error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"default", func(*Config) {}, ""},
		{"zero refresh", func(c *Config) { c.Bench.Refresh = 0 }, "bench.refresh"},
		{"negative report", func(c *Config) { c.Bench.Report = -time.Second }, "bench.report"},
		{"negative iterations", func(c *Config) { c.Bench.Iterations = -1 }, "bench.iterations"},
		{"negative duration", func(c *Config) { c.Bench.Duration = -1 }, "bench.duration"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.errSub)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for level, want := range tests {
		cfg := Default()
		cfg.Logging.Level = level
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
