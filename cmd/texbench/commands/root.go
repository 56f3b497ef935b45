package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/image/bmp"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/backend"
	_ "github.com/gogpu/texdecode/backend/wgpu" // registers vulkan and noop
	"github.com/gogpu/texdecode/bench"
	"github.com/gogpu/texdecode/gpucore"
	"github.com/gogpu/texdecode/internal/config"
	"github.com/gogpu/texdecode/kernel"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"backend":         "backend",
	"refresh":         "bench.refresh",
	"report":          "bench.report",
	"iterations":      "bench.iterations",
	"duration":        "bench.duration",
	"shader-dump-dir": "kernel.shader_dump_dir",
	"dump-frame":      "output.dump_frame",
	"log-level":       "logging.level",
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}

// NewRootCommand builds the texbench command. Reports and usage go to out,
// logs and errors to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "texbench <dim>",
		Short: "Benchmark RGB565 texture decoding on CPU and GPU",
		Long: `texbench decodes a dim x dim RGB565 test image with a compute kernel,
a scalar CPU decoder and a vector CPU decoder, and reports the mean time
of each path once per report interval.`,
		Version:       texdecode.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, ok := parseDim(args)
			if !ok {
				// A missing or unusable dimension is not a failure.
				return cmd.Usage()
			}
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				fmt.Fprintln(errOut, "texbench:", err)
				return err
			}
			texdecode.SetLogger(slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			})))
			defer texdecode.SetLogger(nil)

			if err := run(cmd.Context(), cfg, dim, out); err != nil {
				fmt.Fprintln(errOut, "texbench:", err)
				return err
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ./texbench.yaml)")
	f.String("backend", "", fmt.Sprintf("device backend %v (default: best available)", backend.Available()))
	f.Duration("refresh", bench.DefaultRefreshInterval, "source pattern refresh interval")
	f.Duration("report", bench.DefaultReportInterval, "report window length")
	f.Int64("iterations", 0, "stop after this many iterations (0 = unlimited)")
	f.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	f.String("shader-dump-dir", "", "write failing kernel sources to this directory")
	f.String("dump-frame", "", "write the last kernel output to this BMP file")
	f.String("log-level", "info", "log level: debug, info, warn, error")

	if err := bindFlags(v, f); err != nil {
		panic(err)
	}
	return cmd
}

// bindFlags binds every flag in flagKeys to its configuration key.
func bindFlags(v *viper.Viper, f *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag --%s to %s: %w", flag, key, err)
		}
	}
	return nil
}

func parseDim(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	dim, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	if texdecode.ValidateDimensions(dim, dim) != nil {
		return 0, false
	}
	return dim, true
}

func openDevice(name string) (gpucore.Device, error) {
	if name == "" {
		return backend.OpenDefault()
	}
	return backend.Open(name)
}

func run(ctx context.Context, cfg *config.Config, dim int, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if cfg.Bench.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Bench.Duration)
		defer cancel()
	}

	dev, err := openDevice(cfg.Backend)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			texdecode.Logger().Warn("device close failed", "err", err)
		}
	}()

	kd, err := kernel.New(dev, dim, dim, kernel.WithShaderDumpDir(cfg.Kernel.ShaderDumpDir))
	if err != nil {
		return err
	}
	defer kd.Close()

	b, err := bench.New(bench.Config{
		Width:           dim,
		Height:          dim,
		RefreshInterval: cfg.Bench.Refresh,
		ReportInterval:  cfg.Bench.Report,
		MaxIterations:   cfg.Bench.Iterations,
	}, kd, bench.WithReportFunc(func(r bench.Report) {
		fmt.Fprintln(out, r)
		fmt.Fprintln(out, "iterated:", r.Iterations)
	}))
	if err != nil {
		return err
	}

	texdecode.Logger().Info("benchmark started", "dim", dim, "device", dev.Name())
	if err := b.Run(ctx); err != nil {
		return err
	}
	texdecode.Logger().Info("benchmark finished", "iterations", b.Iterations())

	if cfg.Output.DumpFrame != "" && b.Iterations() > 0 {
		return dumpFrame(kd, cfg.Output.DumpFrame)
	}
	return nil
}

func dumpFrame(kd *kernel.Decoder, path string) error {
	frame := texdecode.NewDecodedBuffer(kd.Width(), kd.Height())
	if err := kd.Readback(frame); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dump frame: %w", err)
	}
	if err := bmp.Encode(f, frame.Image(kd.Width(), kd.Height())); err != nil {
		_ = f.Close()
		return fmt.Errorf("dump frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dump frame: %w", err)
	}
	texdecode.Logger().Info("frame written", "path", path)
	return nil
}
