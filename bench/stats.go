package bench

import (
	"fmt"
	"log/slog"
	"time"
)

// Path identifies one decode implementation.
type Path int

// Decode paths, in the order the benchmark runs them.
const (
	PathKernel Path = iota
	PathScalar
	PathVector
	numPaths
)

// String returns the path name used in reports.
func (p Path) String() string {
	switch p {
	case PathKernel:
		return "kernel"
	case PathScalar:
		return "scalar"
	case PathVector:
		return "vector"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// Stats accumulates per-path decode times over one report window.
type Stats struct {
	totals [numPaths]time.Duration
	runs   int64
}

// Add records one iteration.
func (s *Stats) Add(kernel, scalar, vector time.Duration) {
	s.totals[PathKernel] += kernel
	s.totals[PathScalar] += scalar
	s.totals[PathVector] += vector
	s.runs++
}

// Runs returns the number of iterations in the window.
func (s *Stats) Runs() int64 { return s.runs }

// Mean returns the mean time of path over the window, or 0 if empty.
func (s *Stats) Mean(p Path) time.Duration {
	if s.runs == 0 {
		return 0
	}
	return s.totals[p] / time.Duration(s.runs)
}

// Report summarizes the window. It does not reset the totals.
func (s *Stats) Report(window time.Duration) Report {
	return Report{
		Kernel: s.Mean(PathKernel),
		Scalar: s.Mean(PathScalar),
		Vector: s.Mean(PathVector),
		Runs:   s.runs,
		Window: window,
	}
}

// Reset clears the window.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Report is the per-window benchmark summary.
//
// Kernel is device-measured (submission to completion); Scalar and Vector
// are host wall-clock. The two kinds of timing are not directly comparable
// without calibration.
type Report struct {
	Kernel time.Duration
	Scalar time.Duration
	Vector time.Duration

	// Runs is the number of iterations in the window.
	Runs int64

	// Window is the wall-clock length of the window.
	Window time.Duration

	// Iterations is the total iteration count since the benchmark started.
	Iterations int64
}

// LogValue implements slog.LogValuer.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("kernel", r.Kernel),
		slog.Duration("scalar", r.Scalar),
		slog.Duration("vector", r.Vector),
		slog.Int64("runs", r.Runs),
		slog.Duration("window", r.Window),
		slog.Int64("iterations", r.Iterations),
	)
}

// String formats the report as a single line.
func (r Report) String() string {
	return fmt.Sprintf("kernel %v, scalar %v, vector %v: %d runs in %v",
		r.Kernel, r.Scalar, r.Vector, r.Runs, r.Window.Round(time.Millisecond))
}
