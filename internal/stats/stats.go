package stats

import (
	"sync"
	"time"
)

// Stats accumulates outcome records from every worker in a run. All mutations
// go through the mutex so no update is lost under concurrent writers; the
// histogram carries its own lock (see histogram.go).
//
// Invariants, after every record operation:
//
//	RequestsSent == Successes + Failures
//	RequestsReceived == len(Latencies) <= RequestsSent
//	len(Errors) == Failures
type Stats struct {
	mu sync.Mutex

	RequestsSent     uint64
	RequestsReceived uint64
	Successes        uint64
	Failures         uint64
	SessionsCreated  uint64

	// Seconds, one sample per request that received a timed outcome.
	Latencies []float64
	// One label per failure.
	Errors []string

	StartTime time.Time
	EndTime   time.Time

	// Latency histogram for live percentiles (microseconds).
	ResponseTime *SafeHistogram
}

func New() *Stats {
	return &Stats{
		ResponseTime: NewSafeHistogram(),
	}
}

// RecordSuccess records a request that completed without error.
func (s *Stats) RecordSuccess(latency time.Duration) {
	s.mu.Lock()
	s.RequestsSent++
	s.RequestsReceived++
	s.Successes++
	s.Latencies = append(s.Latencies, latency.Seconds())
	s.mu.Unlock()

	s.ResponseTime.RecordValue(latency.Microseconds())
}

// RecordFailure records a failure that produced no timed response,
// e.g. a connection that could not be established.
func (s *Stats) RecordFailure(label string) {
	s.mu.Lock()
	s.RequestsSent++
	s.Failures++
	s.Errors = append(s.Errors, label)
	s.mu.Unlock()
}

// RecordFailureLatency records a failure for which a round trip was timed.
func (s *Stats) RecordFailureLatency(label string, latency time.Duration) {
	s.mu.Lock()
	s.RequestsSent++
	s.RequestsReceived++
	s.Failures++
	s.Errors = append(s.Errors, label)
	s.Latencies = append(s.Latencies, latency.Seconds())
	s.mu.Unlock()

	s.ResponseTime.RecordValue(latency.Microseconds())
}

// RecordSessionCreated counts one invocation-session establishment.
func (s *Stats) RecordSessionCreated() {
	s.mu.Lock()
	s.SessionsCreated++
	s.mu.Unlock()
}

// MarkStart sets the wall-clock start timestamp. First call wins.
func (s *Stats) MarkStart(t time.Time) {
	s.mu.Lock()
	if s.StartTime.IsZero() {
		s.StartTime = t
	}
	s.mu.Unlock()
}

// MarkEnd sets the wall-clock end timestamp. First call wins.
func (s *Stats) MarkEnd(t time.Time) {
	s.mu.Lock()
	if s.EndTime.IsZero() {
		s.EndTime = t
	}
	s.mu.Unlock()
}

// Snapshot is a cheap copy of the counters plus pre-computed percentiles,
// pushed over a channel to the progress UIs.
type Snapshot struct {
	RequestsSent     uint64
	RequestsReceived uint64
	Successes        uint64
	Failures         uint64
	SessionsCreated  uint64

	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		RequestsSent:     s.RequestsSent,
		RequestsReceived: s.RequestsReceived,
		Successes:        s.Successes,
		Failures:         s.Failures,
		SessionsCreated:  s.SessionsCreated,
	}
	s.mu.Unlock()

	snap.P50Ms = float64(s.ResponseTime.ValueAtQuantile(50)) / 1000.0
	snap.P90Ms = float64(s.ResponseTime.ValueAtQuantile(90)) / 1000.0
	snap.P99Ms = float64(s.ResponseTime.ValueAtQuantile(99)) / 1000.0
	snap.MaxMs = float64(s.ResponseTime.Max()) / 1000.0
	return snap
}
