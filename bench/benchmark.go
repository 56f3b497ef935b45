package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
)

// Defaults for Config.
const (
	DefaultRefreshInterval = 2 * time.Second
	DefaultReportInterval  = time.Second
)

// ErrNoKernel is returned by New when no kernel path is given.
var ErrNoKernel = errors.New("bench: kernel path is required")

// State is the benchmark lifecycle state.
type State int

const (
	// StateIdle is the state before the first Step.
	StateIdle State = iota
	// StateRunning is the steady loop.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a Benchmark.
type Config struct {
	// Width and Height are the image dimensions in texels.
	Width, Height int

	// RefreshInterval is how often the source pattern changes.
	// Zero means DefaultRefreshInterval.
	RefreshInterval time.Duration

	// ReportInterval is the length of a statistics window.
	// Zero means DefaultReportInterval.
	ReportInterval time.Duration

	// MaxIterations stops Run after this many iterations. Zero means no limit.
	MaxIterations int64
}

func (c *Config) applyDefaults() {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = DefaultReportInterval
	}
}

// KernelPath is the device decode path. *kernel.Decoder implements it.
type KernelPath interface {
	Decode(src texdecode.EncodedBuffer) (gpucore.DispatchStats, error)
}

// ReportFunc receives every window report.
type ReportFunc func(Report)

// Option configures a Benchmark.
type Option func(*Benchmark)

// WithClock replaces the wall clock used by the timers and CPU paths.
func WithClock(c Clock) Option {
	return func(b *Benchmark) {
		b.clock = c
	}
}

// WithReportFunc registers a callback for window reports.
func WithReportFunc(f ReportFunc) Option {
	return func(b *Benchmark) {
		b.onReport = f
	}
}

// WithVectorDecoder overrides the vector path, e.g. to force the scalar
// fallback.
func WithVectorDecoder(d texdecode.Decoder) Option {
	return func(b *Benchmark) {
		b.vector = d
	}
}

// Benchmark drives the decode paths against a shared, periodically
// refreshed source and reports their mean latencies.
//
// A Benchmark is driven by one goroutine.
type Benchmark struct {
	cfg    Config
	clock  Clock
	kernel KernelPath
	scalar texdecode.Decoder
	vector texdecode.Decoder

	gen *Generator
	src texdecode.EncodedBuffer
	dst texdecode.DecodedBuffer

	state        State
	refreshTimer *Stopwatch
	reportTimer  *Stopwatch
	stats        Stats
	iterations   int64
	onReport     ReportFunc
}

// New creates a benchmark and fills the source with the initial pattern.
func New(cfg Config, kd KernelPath, opts ...Option) (*Benchmark, error) {
	if kd == nil {
		return nil, ErrNoKernel
	}
	cfg.applyDefaults()
	gen, err := NewGenerator(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	b := &Benchmark{
		cfg:    cfg,
		clock:  SystemClock,
		kernel: kd,
		scalar: texdecode.ScalarDecoder{},
		gen:    gen,
		src:    texdecode.NewEncodedBuffer(cfg.Width, cfg.Height),
		dst:    texdecode.NewDecodedBuffer(cfg.Width, cfg.Height),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.vector == nil {
		b.vector = texdecode.NewDecoder(texdecode.KindVector)
	}

	gen.Fill(b.src)
	return b, nil
}

// State returns the lifecycle state.
func (b *Benchmark) State() State { return b.state }

// Iterations returns the number of completed steps.
func (b *Benchmark) Iterations() int64 { return b.iterations }

// Source returns the current encoded source.
func (b *Benchmark) Source() texdecode.EncodedBuffer { return b.src }

// Decoded returns the output of the most recent CPU decode.
func (b *Benchmark) Decoded() texdecode.DecodedBuffer { return b.dst }

// Generator returns the source pattern generator.
func (b *Benchmark) Generator() *Generator { return b.gen }

// Step runs one iteration: refresh the source if due, run the kernel,
// scalar and vector paths in order, accumulate their times, and report if
// the window has elapsed.
func (b *Benchmark) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.state == StateIdle {
		b.refreshTimer = NewStopwatch(b.clock)
		b.reportTimer = NewStopwatch(b.clock)
		b.state = StateRunning
		texdecode.Logger().Debug("bench: running",
			"width", b.cfg.Width, "height", b.cfg.Height, "vector", b.vector.Kind().String())
	}

	if b.refreshTimer.Elapsed() >= b.cfg.RefreshInterval {
		b.refreshTimer.Restart()
		b.gen.Refresh(b.src)
		texdecode.Logger().Debug("bench: source refreshed", "shift", b.gen.Shift())
	}

	ks, err := b.kernel.Decode(b.src)
	if err != nil {
		return fmt.Errorf("bench: kernel decode: %w", err)
	}
	scalar, err := b.timeCPU(b.scalar)
	if err != nil {
		return err
	}
	vector, err := b.timeCPU(b.vector)
	if err != nil {
		return err
	}

	b.stats.Add(ks.Elapsed, scalar, vector)
	b.iterations++

	if window := b.reportTimer.Elapsed(); window >= b.cfg.ReportInterval {
		b.report(window)
	}
	return nil
}

func (b *Benchmark) timeCPU(d texdecode.Decoder) (time.Duration, error) {
	start := b.clock.Now()
	if err := d.Decode(b.dst, b.src, b.cfg.Width, b.cfg.Height); err != nil {
		return 0, fmt.Errorf("bench: %s decode: %w", d.Kind(), err)
	}
	return b.clock.Now().Sub(start), nil
}

func (b *Benchmark) report(window time.Duration) {
	r := b.stats.Report(window)
	r.Iterations = b.iterations
	texdecode.Logger().Info("bench: report", "report", r)
	if b.onReport != nil {
		b.onReport(r)
	}
	b.stats.Reset()
	b.reportTimer.Restart()
}

// Run calls Step until ctx is done or MaxIterations is reached. Context
// cancellation is checked between iterations only; it returns nil in that
// case.
func (b *Benchmark) Run(ctx context.Context) error {
	for b.cfg.MaxIterations <= 0 || b.iterations < b.cfg.MaxIterations {
		if err := b.Step(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
	}
	return nil
}
