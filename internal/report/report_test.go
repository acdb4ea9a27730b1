package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"mcpblast/internal/config"
	"mcpblast/internal/runner"
	"mcpblast/internal/stats"
)

func sampleDocument() Document {
	cfg := &config.Config{
		Server: config.ServerConfig{Transport: config.TransportSSE, Host: "localhost", Port: 9000},
		Test:   config.TestConfig{ToolName: "echo", ConcurrentRequests: 5, DurationSeconds: 10},
	}

	s := stats.New()
	s.RecordSuccess(100 * time.Millisecond)
	s.RecordFailureLatency("request error: boom", 200*time.Millisecond)
	s.MarkStart(time.Unix(1000, 0))
	s.MarkEnd(time.Unix(1010, 0))

	return Document{TestConfig: cfg, Results: s.Summarize()}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sampleDocument()))
	out := buf.String()

	assert.Contains(t, out, "test_config:")
	assert.Contains(t, out, "transport: sse")
	assert.Contains(t, out, "results:")
	assert.Contains(t, out, "requests_sent: 2")
	assert.Contains(t, out, "min_ms: 100")
	assert.Contains(t, out, "error_summary:")
	assert.Contains(t, out, "throughput:")

	// Round-trips as valid YAML.
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))
}

func TestWriteYAMLOmitsEmptySections(t *testing.T) {
	doc := Document{
		TestConfig: &config.Config{
			Server: config.ServerConfig{Transport: config.TransportStdio, Host: "./srv"},
			Test:   config.TestConfig{ToolName: "ping", ConcurrentRequests: 1, DurationSeconds: 1},
		},
		Results: stats.New().Summarize(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, doc))
	out := buf.String()

	assert.NotContains(t, out, "error_summary")
	assert.NotContains(t, out, "execution_time")
	assert.NotContains(t, out, "throughput")
	assert.Contains(t, out, "min_ms: 0")
}

func TestSaveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, SaveYAML(path, sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "requests_sent: 2")
}

func TestSaveCSV(t *testing.T) {
	now := time.Now()
	outcomes := []runner.Outcome{
		{WorkerID: "worker-0", TimeStamp: now, Latency: 120 * time.Millisecond, Timed: true, Success: true},
		{WorkerID: "worker-1", TimeStamp: now, Err: "connection refused"},
	}

	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, SaveCSV(path, outcomes))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timeStamp,elapsedMs,worker,success,timed,error", lines[0])
	assert.Contains(t, lines[1], "worker-0")
	assert.Contains(t, lines[1], "120")
	assert.Contains(t, lines[2], "connection refused")
}
