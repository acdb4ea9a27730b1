package mcpclient

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpblast/internal/config"
	"mcpblast/internal/dummy"
)

func TestNewDialerRejectsUnknownTransport(t *testing.T) {
	_, err := NewDialer(config.ServerConfig{Transport: "websocket"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestTransportSelection(t *testing.T) {
	cases := []struct {
		cfg  config.ServerConfig
		want any
	}{
		{
			config.ServerConfig{Transport: config.TransportStdio, Host: "./server --flag"},
			&mcp.CommandTransport{},
		},
		{
			config.ServerConfig{Transport: config.TransportSSE, Host: "localhost", Port: 9000},
			&mcp.SSEClientTransport{},
		},
		{
			config.ServerConfig{Transport: config.TransportStreamableHTTP, Host: "localhost", Port: 9000, Path: "/mcp"},
			&mcp.StreamableClientTransport{},
		},
	}

	for _, tc := range cases {
		d := &sdkDialer{cfg: tc.cfg, connectTimeout: DefaultConnectTimeout, log: zerolog.Nop()}
		tr, err := d.transport()
		require.NoError(t, err)
		assert.IsType(t, tc.want, tr)
	}
}

func TestStdioTransportNeedsCommand(t *testing.T) {
	d := &sdkDialer{cfg: config.ServerConfig{Transport: config.TransportStdio, Host: "   "}}
	_, err := d.transport()
	require.Error(t, err)
}

func TestEndpointTransportsUseConfigURL(t *testing.T) {
	d := &sdkDialer{cfg: config.ServerConfig{
		Transport: config.TransportStreamableHTTP,
		Host:      "localhost",
		Port:      8080,
		Path:      "/mcp",
	}}
	tr, err := d.transport()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/mcp", tr.(*mcp.StreamableClientTransport).Endpoint)
}

// TestCallToolInMemory runs the full handshake and call path against the
// built-in dummy server over an in-process transport pair.
func TestCallToolInMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientT, serverT := mcp.NewInMemoryTransports()
	_, err := dummy.Connect(ctx, serverT)
	require.NoError(t, err)

	sess, err := Connect(ctx, clientT)
	require.NoError(t, err)
	defer sess.Close()

	err = sess.CallTool(ctx, "echo", map[string]any{"message": "hi"})
	assert.NoError(t, err)

	// Tool-level errors surface as call failures, not silent successes.
	err = sess.CallTool(ctx, "fail", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail tool always fails")
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientT, serverT := mcp.NewInMemoryTransports()
	_, err := dummy.Connect(ctx, serverT)
	require.NoError(t, err)

	sess, err := Connect(ctx, clientT)
	require.NoError(t, err)

	// Close never propagates errors, even when called repeatedly.
	sess.Close()
	sess.Close()
}
