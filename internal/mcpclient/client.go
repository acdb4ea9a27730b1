// Package mcpclient provides the tool-invocation capability for load runs:
// dial an MCP server over one of the supported transports, call a named tool,
// and tear the session down again.
package mcpclient

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"mcpblast/internal/config"
)

const clientName = "mcpblast"

// DefaultConnectTimeout bounds each connect/initialize handshake. It is
// deliberately much shorter than any realistic run duration so a dead server
// fails the dial fast instead of stalling workers.
const DefaultConnectTimeout = 10 * time.Second

// Session is one established invocation session. CallTool returns nil on a
// successful tool call and an error otherwise; Close is safe to call after
// any failure and never reports an error.
type Session interface {
	CallTool(ctx context.Context, tool string, args map[string]any) error
	Close()
}

// Dialer establishes sessions against a fixed server.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

type sdkDialer struct {
	cfg            config.ServerConfig
	connectTimeout time.Duration
	log            zerolog.Logger
}

// NewDialer returns a Dialer for the configured transport, or an error for
// an unsupported transport value.
func NewDialer(cfg config.ServerConfig, log zerolog.Logger) (Dialer, error) {
	switch cfg.Transport {
	case config.TransportStdio, config.TransportSSE, config.TransportStreamableHTTP:
	default:
		return nil, fmt.Errorf("unsupported transport: %q", cfg.Transport)
	}
	return &sdkDialer{
		cfg:            cfg,
		connectTimeout: DefaultConnectTimeout,
		log:            log,
	}, nil
}

// transport builds a fresh SDK transport. Stdio transports wrap an exec.Cmd,
// which is single-use, so this runs once per dial.
func (d *sdkDialer) transport() (mcp.Transport, error) {
	switch d.cfg.Transport {
	case config.TransportStdio:
		parts := strings.Fields(d.cfg.Host)
		if len(parts) == 0 {
			return nil, fmt.Errorf("stdio transport needs a server command in host")
		}
		cmd := exec.Command(parts[0], parts[1:]...)
		return &mcp.CommandTransport{Command: cmd}, nil

	case config.TransportSSE:
		return &mcp.SSEClientTransport{Endpoint: d.cfg.Endpoint()}, nil

	case config.TransportStreamableHTTP:
		return &mcp.StreamableClientTransport{Endpoint: d.cfg.Endpoint()}, nil

	default:
		return nil, fmt.Errorf("unsupported transport: %q", d.cfg.Transport)
	}
}

func (d *sdkDialer) Dial(ctx context.Context) (Session, error) {
	t, err := d.transport()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.connectTimeout)
	defer cancel()

	d.log.Debug().
		Str("transport", string(d.cfg.Transport)).
		Str("host", d.cfg.Host).
		Msg("dialing MCP server")

	return Connect(ctx, t)
}

// Connect performs the MCP handshake over an already-built transport.
func Connect(ctx context.Context, t mcp.Transport) (Session, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: "0.1.0"}, nil)
	cs, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &sdkSession{cs: cs}, nil
}

type sdkSession struct {
	cs *mcp.ClientSession
}

func (s *sdkSession) CallTool(ctx context.Context, tool string, args map[string]any) error {
	res, err := s.cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		return err
	}
	if res.IsError {
		// The SDK reports tool-level errors as data, not error returns.
		return fmt.Errorf("tool error: %s", resultText(res))
	}
	return nil
}

func (s *sdkSession) Close() {
	// Disconnect errors are deliberately swallowed; a session being torn
	// down after a failed call has nothing useful left to report.
	_ = s.cs.Close()
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			return tc.Text
		}
	}
	return "unknown error"
}
