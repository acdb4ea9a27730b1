// Package cli runs a load test headlessly: a single progress line on stdout
// while the run executes, then the summary block.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mcpblast/internal/config"
	"mcpblast/internal/runner"
	"mcpblast/internal/stats"
)

type runResult struct {
	summary *stats.Summary
	err     error
}

// Run drives the runner to completion, painting progress from its snapshot
// channel, and returns the final summary.
func Run(ctx context.Context, r *runner.Runner, cfg *config.Config) (*stats.Summary, error) {
	printHeader(cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.StartTickLoop(ctx, 200*time.Millisecond)

	done := make(chan runResult, 1)
	go func() {
		summary, err := r.Run(ctx)
		done <- runResult{summary, err}
	}()

	startTime := time.Now()
	totalDuration := cfg.Duration()

	for {
		select {
		case res := <-done:
			fmt.Println()
			if res.err != nil {
				return res.summary, res.err
			}
			printSummary(res.summary)
			return res.summary, nil

		case snap := <-r.Updates:
			elapsed := time.Since(startTime)
			pct := elapsed.Seconds() / totalDuration.Seconds()
			if pct > 1.0 {
				pct = 1.0
			}

			fmt.Printf("\r%s %3.0f%% | %s/%s | Inf: %3d | OK: %d | Err: %d",
				progressBar(pct, 20), pct*100,
				elapsed.Round(time.Second), totalDuration,
				r.GetInflight(),
				snap.Successes,
				snap.Failures,
			)
		}
	}
}

func printHeader(cfg *config.Config) {
	mode := "per-request sessions"
	if cfg.Test.SharedSession {
		mode = "shared sessions"
	}

	fmt.Printf("\n🚀 STARTING MCP LOAD TEST\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Transport  : %s\n", cfg.Server.Transport)
	if cfg.Server.Transport == config.TransportStdio {
		fmt.Printf("Command    : %s\n", cfg.Server.Host)
	} else {
		fmt.Printf("Endpoint   : %s\n", cfg.Server.Endpoint())
	}
	fmt.Printf("Tool       : %s\n", cfg.Test.ToolName)
	fmt.Printf("Workers    : %d (%s)\n", cfg.Test.ConcurrentRequests, mode)
	fmt.Printf("Duration   : %ds\n", cfg.Test.DurationSeconds)
	fmt.Printf("======================================================================\n\n")
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(s *stats.Summary) {
	fmt.Printf("\n📊 LOAD TEST RESULTS\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Requests Sent     : %d\n", s.RequestsSent)
	fmt.Printf("Requests Received : %d\n", s.RequestsReceived)
	fmt.Printf("Successes         : %d\n", s.Successes)
	fmt.Printf("Failures          : %d\n", s.Failures)
	fmt.Printf("Sessions Created  : %d\n", s.SessionsCreated)
	if s.ExecutionTime != nil {
		fmt.Printf("Total Duration    : %.2fs\n", s.ExecutionTime.TotalSeconds)
	}
	if s.Throughput != nil {
		fmt.Printf("Requests/s        : %.2f\n", s.Throughput.RequestsPerSecond)
		fmt.Printf("Successes/s       : %.2f\n", s.Throughput.SuccessesPerSecond)
	}

	fmt.Printf("\n⏱️  RESPONSE TIMES (ms)\n")
	fmt.Printf("   Min : %.2f\n", s.ResponseTimes.MinMs)
	fmt.Printf("   Avg : %.2f\n", s.ResponseTimes.AvgMs)
	fmt.Printf("   P50 : %.2f\n", s.ResponseTimes.P50Ms)
	fmt.Printf("   P90 : %.2f\n", s.ResponseTimes.P90Ms)
	fmt.Printf("   P99 : %.2f\n", s.ResponseTimes.P99Ms)
	fmt.Printf("   Max : %.2f\n", s.ResponseTimes.MaxMs)

	if len(s.ErrorSummary) > 0 {
		labels := make([]string, 0, len(s.ErrorSummary))
		for label := range s.ErrorSummary {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		fmt.Printf("\n❌ FAILURE SUMMARY\n")
		for _, label := range labels {
			fmt.Printf("   %d x %s\n", s.ErrorSummary[label], label)
		}
	}
	fmt.Printf("======================================================================\n")
}
