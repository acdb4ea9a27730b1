package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  transport: streamable_http
  host: localhost
  port: 8080
  path: /mcp
test:
  tool_name: echo
  tool_args:
    query: "search {{counter}}"
    userId: "{{random.randint(1,100)}}"
  concurrent_requests: 10
  duration_seconds: 30
  shared_session: true
`

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, TransportStreamableHTTP, cfg.Server.Transport)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/mcp", cfg.Server.Path)

	assert.Equal(t, "echo", cfg.Test.ToolName)
	assert.Equal(t, 10, cfg.Test.ConcurrentRequests)
	assert.Equal(t, 30, cfg.Test.DurationSeconds)
	assert.True(t, cfg.Test.SharedSession)
	assert.Equal(t, 30*time.Second, cfg.Duration())

	// Argument keys keep their case and nesting.
	assert.Equal(t, "search {{counter}}", cfg.Test.ToolArgs["query"])
	assert.Contains(t, cfg.Test.ToolArgs, "userId")
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  transport: sse
test:
  tool_name: ping
`))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 1, cfg.Test.ConcurrentRequests)
	assert.Equal(t, 60, cfg.Test.DurationSeconds)
	assert.False(t, cfg.Test.SharedSession)
	assert.Empty(t, cfg.Test.ToolArgs)
}

func TestParseNestedArgs(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  transport: stdio
  host: ./server --flag
test:
  tool_name: search
  tool_args:
    filters:
      - "category_{{random.randint(1,5)}}"
    metadata:
      requestId: "req-{{counter}}"
`))
	require.NoError(t, err)

	filters, ok := cfg.Test.ToolArgs["filters"].([]any)
	require.True(t, ok, "sequences decode as []any")
	assert.Equal(t, "category_{{random.randint(1,5)}}", filters[0])

	metadata, ok := cfg.Test.ToolArgs["metadata"].(map[string]any)
	require.True(t, ok, "nested maps decode as map[string]any")
	assert.Equal(t, "req-{{counter}}", metadata["requestId"])
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing transport",
			yaml: "test:\n  tool_name: x\n",
			want: "transport is required",
		},
		{
			name: "bad transport",
			yaml: "server:\n  transport: websocket\ntest:\n  tool_name: x\n",
			want: "unsupported transport",
		},
		{
			name: "missing tool name",
			yaml: "server:\n  transport: sse\n",
			want: "tool_name is required",
		},
		{
			name: "negative concurrency",
			yaml: "server:\n  transport: sse\ntest:\n  tool_name: x\n  concurrent_requests: -2\n",
			want: "concurrent_requests",
		},
		{
			name: "negative duration",
			yaml: "server:\n  transport: sse\ntest:\n  tool_name: x\n  duration_seconds: -1\n",
			want: "duration_seconds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "echo", cfg.Test.ToolName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEndpoint(t *testing.T) {
	cases := []struct {
		cfg  ServerConfig
		want string
	}{
		{ServerConfig{Host: "localhost", Port: 8080, Path: "/mcp"}, "http://localhost:8080/mcp"},
		{ServerConfig{Host: "example.com"}, "http://example.com"},
		{ServerConfig{Host: "example.com", Path: "/sse"}, "http://example.com/sse"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.cfg.Endpoint())
	}
}
