package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram wraps an HDR histogram of response times behind a mutex so
// workers can record concurrently. Values are stored in microseconds; tool
// invocations over stdio can land well under a millisecond.
type SafeHistogram struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// RecordValue records one response time in microseconds.
func (h *SafeHistogram) RecordValue(us int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.RecordValue(us)
}

// ValueAtQuantile returns the response time at quantile q, in microseconds.
func (h *SafeHistogram) ValueAtQuantile(q float64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.ValueAtQuantile(q)
}

func (h *SafeHistogram) Max() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Max()
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

// PercentileMs is a convenience for summaries and the live view.
func (h *SafeHistogram) PercentileMs(q float64) float64 {
	return float64(h.ValueAtQuantile(q)) / 1000.0
}
