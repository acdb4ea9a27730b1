package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mcpblast/internal/expand"
	"mcpblast/internal/mcpclient"
	"mcpblast/internal/stats"
)

// StatsUpdateChan carries periodic snapshots to the progress UIs.
type StatsUpdateChan chan stats.Snapshot

// Runner drives one load test: it spawns Config.Workers concurrent workers,
// arms a one-shot duration timer that raises the stop flag, and records every
// outcome into Stats. Shutdown is cooperative: workers observe the flag at
// the top of their loop and finish the iteration in flight.
type Runner struct {
	Cfg      Config
	Stats    *stats.Stats
	Dialer   mcpclient.Dialer
	Expander *expand.Expander

	Results []Outcome
	mu      sync.Mutex

	stopped  atomic.Bool
	inflight int64

	runErr  error
	errOnce sync.Once

	Updates StatsUpdateChan

	log zerolog.Logger
}

func NewRunner(cfg Config, dialer mcpclient.Dialer, updates StatsUpdateChan, log zerolog.Logger) *Runner {
	if updates == nil {
		// Avoid nil panics if no UI is attached
		updates = make(StatsUpdateChan, 10)
	}

	return &Runner{
		Cfg:      cfg,
		Stats:    stats.New(),
		Dialer:   dialer,
		Expander: expand.New(),
		Updates:  updates,
		log:      log,
	}
}

// StartTickLoop starts a goroutine that pushes stats snapshots until ctx ends.
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

func (r *Runner) sendUpdate() {
	// Non-blocking send
	select {
	case r.Updates <- r.Stats.Snapshot():
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Run executes the whole lifecycle and returns the finalized summary.
// Per-request and per-connection failures are recorded, never escalated; the
// only early abort is a malformed argument template, which would corrupt
// every subsequent sample.
func (r *Runner) Run(ctx context.Context) (*stats.Summary, error) {
	r.log.Info().
		Int("workers", r.Cfg.Workers).
		Dur("duration", r.Cfg.Duration).
		Bool("shared_session", r.Cfg.SharedSession).
		Str("tool", r.Cfg.ToolName).
		Msg("starting load test")

	r.Stats.MarkStart(time.Now())

	timerCtx, cancelTimer := context.WithCancel(ctx)
	defer cancelTimer()
	go r.timer(timerCtx)

	var wg sync.WaitGroup
	for i := 0; i < r.Cfg.Workers; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("worker-%d", i)
		go func() {
			defer wg.Done()
			r.worker(ctx, workerID)
		}()
	}
	wg.Wait()

	r.Stats.MarkEnd(time.Now())
	r.sendUpdate()

	snap := r.Stats.Snapshot()
	r.log.Info().
		Uint64("sent", snap.RequestsSent).
		Uint64("successes", snap.Successes).
		Uint64("failures", snap.Failures).
		Msg("load test finished")

	return r.Stats.Summarize(), r.runErr
}

// timer raises the stop flag exactly once after the configured duration.
func (r *Runner) timer(ctx context.Context) {
	select {
	case <-time.After(r.Cfg.Duration):
		r.stopped.Store(true)
	case <-ctx.Done():
	}
}

// abort records a fatal run error and stops every worker. First error wins.
func (r *Runner) abort(err error) {
	r.errOnce.Do(func() {
		r.runErr = err
		r.log.Error().Err(err).Msg("aborting run")
	})
	r.stopped.Store(true)
}

func (r *Runner) shouldStop(ctx context.Context) bool {
	return r.stopped.Load() || ctx.Err() != nil
}

func (r *Runner) worker(ctx context.Context, id string) {
	if r.Cfg.SharedSession {
		r.runShared(ctx, id)
	} else {
		r.runPerRequest(ctx, id)
	}
}

// runShared dials once and reuses the session for every iteration. A failed
// dial ends this worker's participation; it does not retry.
func (r *Runner) runShared(ctx context.Context, id string) {
	sess, err := r.Dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.Stats.RecordFailure(fmt.Sprintf("worker %s connection error: %v", id, err))
		r.log.Warn().Str("worker", id).Err(err).Msg("connect failed, worker exiting")
		return
	}
	r.Stats.RecordSessionCreated()
	defer sess.Close()

	for !r.shouldStop(ctx) {
		if !r.invoke(ctx, id, sess) {
			return
		}
		r.throttle(ctx)
	}
}

// runPerRequest opens and closes a fresh session around every call. Dial
// failures are recorded per occurrence and the loop keeps going.
func (r *Runner) runPerRequest(ctx context.Context, id string) {
	for !r.shouldStop(ctx) {
		sess, err := r.Dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.Stats.RecordFailure(fmt.Sprintf("worker %s connection error: %v", id, err))
			r.record(Outcome{WorkerID: id, TimeStamp: time.Now(), Err: err.Error()})
			r.throttle(ctx)
			continue
		}
		r.Stats.RecordSessionCreated()

		ok := r.invoke(ctx, id, sess)
		sess.Close()
		if !ok {
			return
		}
		r.throttle(ctx)
	}
}

// invoke runs one expand-call-record iteration. The false return means the
// worker must exit immediately (fatal template error or cancellation).
func (r *Runner) invoke(ctx context.Context, id string, sess mcpclient.Session) bool {
	args, err := r.Expander.Expand(r.Cfg.ToolArgs)
	if err != nil {
		r.abort(fmt.Errorf("expanding tool arguments: %w", err))
		return false
	}

	atomic.AddInt64(&r.inflight, 1)
	start := time.Now()
	callErr := sess.CallTool(ctx, r.Cfg.ToolName, args)
	latency := time.Since(start)
	atomic.AddInt64(&r.inflight, -1)

	if callErr != nil {
		if ctx.Err() != nil {
			// External cancellation mid-call is a benign termination,
			// not a failure of the server under test.
			return false
		}
		r.Stats.RecordFailureLatency(fmt.Sprintf("request error: %v", callErr), latency)
		r.record(Outcome{
			WorkerID:  id,
			TimeStamp: start,
			Latency:   latency,
			Timed:     true,
			Err:       callErr.Error(),
		})
		return true
	}

	r.Stats.RecordSuccess(latency)
	r.record(Outcome{
		WorkerID:  id,
		TimeStamp: start,
		Latency:   latency,
		Timed:     true,
		Success:   true,
	})
	return true
}

func (r *Runner) record(o Outcome) {
	r.mu.Lock()
	r.Results = append(r.Results, o)
	r.mu.Unlock()
}

// throttle pauses between iterations without outliving the context.
func (r *Runner) throttle(ctx context.Context) {
	t := time.NewTimer(r.Cfg.throttle())
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (r *Runner) GetInflight() int64 {
	return atomic.LoadInt64(&r.inflight)
}
