package stats

import (
	"math"
)

// ResponseTimes reports latency aggregates in milliseconds over every timed
// request, failures included. Zeroes when no latency was recorded.
type ResponseTimes struct {
	MinMs float64 `yaml:"min_ms" json:"min_ms"`
	MaxMs float64 `yaml:"max_ms" json:"max_ms"`
	AvgMs float64 `yaml:"avg_ms" json:"avg_ms"`
	P50Ms float64 `yaml:"p50_ms" json:"p50_ms"`
	P90Ms float64 `yaml:"p90_ms" json:"p90_ms"`
	P99Ms float64 `yaml:"p99_ms" json:"p99_ms"`
}

type ExecutionTime struct {
	TotalSeconds float64 `yaml:"total_seconds" json:"total_seconds"`
	StartTime    string  `yaml:"start_time" json:"start_time"`
	EndTime      string  `yaml:"end_time" json:"end_time"`
}

type Throughput struct {
	RequestsPerSecond  float64 `yaml:"requests_per_second" json:"requests_per_second"`
	SuccessesPerSecond float64 `yaml:"successes_per_second" json:"successes_per_second"`
}

// Summary is the final, read-only result of a run, produced once after all
// workers have joined. execution_time and throughput are omitted unless both
// timestamps were set and the elapsed time is strictly positive.
type Summary struct {
	RequestsSent     uint64         `yaml:"requests_sent" json:"requests_sent"`
	RequestsReceived uint64         `yaml:"requests_received" json:"requests_received"`
	Successes        uint64         `yaml:"successes" json:"successes"`
	Failures         uint64         `yaml:"failures" json:"failures"`
	SessionsCreated  uint64         `yaml:"sessions_created" json:"sessions_created"`
	ResponseTimes    ResponseTimes  `yaml:"response_times" json:"response_times"`
	ErrorSummary     map[string]int `yaml:"error_summary,omitempty" json:"error_summary,omitempty"`
	ExecutionTime    *ExecutionTime `yaml:"execution_time,omitempty" json:"execution_time,omitempty"`
	Throughput       *Throughput    `yaml:"throughput,omitempty" json:"throughput,omitempty"`
}

// Summarize derives the run summary. Callers must not record concurrently;
// it is meant for the finalization step after the workers have joined.
func (s *Stats) Summarize() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := &Summary{
		RequestsSent:     s.RequestsSent,
		RequestsReceived: s.RequestsReceived,
		Successes:        s.Successes,
		Failures:         s.Failures,
		SessionsCreated:  s.SessionsCreated,
	}

	if len(s.Latencies) > 0 {
		min, max, total := s.Latencies[0], s.Latencies[0], 0.0
		for _, l := range s.Latencies {
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
			total += l
		}
		sum.ResponseTimes = ResponseTimes{
			MinMs: min * 1000,
			MaxMs: max * 1000,
			AvgMs: total / float64(len(s.Latencies)) * 1000,
			P50Ms: s.ResponseTime.PercentileMs(50),
			P90Ms: s.ResponseTime.PercentileMs(90),
			P99Ms: s.ResponseTime.PercentileMs(99),
		}
	}

	if len(s.Errors) > 0 {
		sum.ErrorSummary = make(map[string]int, len(s.Errors))
		for _, label := range s.Errors {
			sum.ErrorSummary[label]++
		}
	}

	if !s.StartTime.IsZero() && !s.EndTime.IsZero() {
		elapsed := s.EndTime.Sub(s.StartTime).Seconds()
		if elapsed > 0 {
			sum.ExecutionTime = &ExecutionTime{
				TotalSeconds: elapsed,
				StartTime:    s.StartTime.Format("2006-01-02T15:04:05.000Z07:00"),
				EndTime:      s.EndTime.Format("2006-01-02T15:04:05.000Z07:00"),
			}
			sum.Throughput = &Throughput{
				RequestsPerSecond:  round2(float64(s.RequestsSent) / elapsed),
				SuccessesPerSecond: round2(float64(s.Successes) / elapsed),
			}
		}
	}

	return sum
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
