package runner

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpblast/internal/dummy"
	"mcpblast/internal/mcpclient"
)

// inMemoryDialer spins up a fresh in-process dummy server per dial, driving
// the real SDK handshake and call path with no subprocess or listener.
type inMemoryDialer struct{}

func (d *inMemoryDialer) Dial(ctx context.Context) (mcpclient.Session, error) {
	clientT, serverT := mcp.NewInMemoryTransports()
	if _, err := dummy.Connect(ctx, serverT); err != nil {
		return nil, err
	}
	return mcpclient.Connect(ctx, clientT)
}

func TestRunAgainstDummyServer(t *testing.T) {
	cfg := Config{
		ToolName: "echo",
		ToolArgs: map[string]any{
			"id":      "{{counter}}",
			"sent_at": "{{timestamp}}",
		},
		Workers:       4,
		Duration:      300 * time.Millisecond,
		SharedSession: true,
		Throttle:      5 * time.Millisecond,
	}

	r := NewRunner(cfg, &inMemoryDialer{}, nil, zerolog.Nop())
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(4), sum.SessionsCreated)
	assert.Greater(t, sum.Successes, uint64(0))
	assert.Equal(t, uint64(0), sum.Failures)
	assert.Equal(t, sum.RequestsSent, sum.RequestsReceived)
	assert.Greater(t, sum.ResponseTimes.MaxMs, 0.0)
	require.NotNil(t, sum.Throughput)
	assert.Greater(t, sum.Throughput.RequestsPerSecond, 0.0)
}

func TestRunAgainstFailingTool(t *testing.T) {
	cfg := Config{
		ToolName: "fail",
		Workers:  2,
		Duration: 200 * time.Millisecond,
		Throttle: 5 * time.Millisecond,
	}

	r := NewRunner(cfg, &inMemoryDialer{}, nil, zerolog.Nop())
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), sum.Successes)
	assert.Greater(t, sum.Failures, uint64(0))
	require.NotEmpty(t, sum.ErrorSummary)
	// Per-request mode opened one session per call.
	assert.Equal(t, sum.RequestsSent, sum.SessionsCreated)
}
