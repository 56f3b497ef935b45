package bench

import "time"

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Stopwatch measures time since its last restart.
// Stopwatches sharing a Clock are independent: restarting one never
// affects another.
type Stopwatch struct {
	clock Clock
	start time.Time
}

// NewStopwatch returns a stopwatch started now.
func NewStopwatch(c Clock) *Stopwatch {
	return &Stopwatch{clock: c, start: c.Now()}
}

// Restart resets the stopwatch to zero.
func (s *Stopwatch) Restart() {
	s.start = s.clock.Now()
}

// Elapsed returns the time since the last restart.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}
