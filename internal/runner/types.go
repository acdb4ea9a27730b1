package runner

import (
	"time"
)

// Config is the immutable per-run configuration the orchestrator consumes.
type Config struct {
	ToolName string
	ToolArgs map[string]any

	Workers  int
	Duration time.Duration

	// SharedSession keeps one session per worker for the whole run;
	// otherwise every iteration dials and closes its own session.
	SharedSession bool

	// Throttle is the pause between iterations of one worker. Zero means
	// DefaultThrottle; it bounds per-worker request rate and keeps the
	// stop-flag check from spinning.
	Throttle time.Duration
}

const DefaultThrottle = 10 * time.Millisecond

func (c Config) throttle() time.Duration {
	if c.Throttle > 0 {
		return c.Throttle
	}
	return DefaultThrottle
}

// Outcome is one request's raw record, kept for post-run export.
type Outcome struct {
	WorkerID  string
	TimeStamp time.Time
	Latency   time.Duration
	Timed     bool
	Success   bool
	Err       string
}
