// Package dummy is a built-in MCP server to point load tests at. Its tools
// mirror typical latency profiles: fast, slow, spiky, and flaky.
package dummy

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ServerConfig struct {
	Port int
}

func newServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mcpblast-dummy", Version: "0.1.0"}, nil)

	// 1. Echo tool: returns its arguments, near-zero latency
	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echo the arguments back as JSON",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, nil, err
		}
		return textResult(string(data)), nil, nil
	})

	// 2. Fast tool (10-50ms)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fast",
		Description: "Respond after a short 10-50ms delay",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		sleep(ctx, time.Duration(rand.Intn(40)+10)*time.Millisecond)
		return textResult("fast response"), nil, nil
	})

	// 3. Slow tool (1s-2s) - good for testing timeouts and queuing
	mcp.AddTool(server, &mcp.Tool{
		Name:        "slow",
		Description: "Respond after a 1-2s delay",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		sleep(ctx, time.Duration(rand.Intn(1000)+1000)*time.Millisecond)
		return textResult("slow response"), nil, nil
	})

	// 4. Spike tool (usually fast, randomly very slow)
	// P99 will be terrible, P50 will be fine.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "spike",
		Description: "Respond in 20ms, with a 5% chance of a 2s spike",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		if rand.Float32() < 0.05 {
			sleep(ctx, 2*time.Second)
		} else {
			sleep(ctx, 20*time.Millisecond)
		}
		return textResult("spikey response"), nil, nil
	})

	// 5. Fail tool (always errors, for exercising failure accounting)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fail",
		Description: "Always fail",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		return nil, nil, fmt.Errorf("fail tool always fails")
	})

	// 6. Flaky tool (random failures)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "flaky",
		Description: "Fail roughly 30% of the time",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		sleep(ctx, time.Duration(rand.Intn(30)+10)*time.Millisecond)
		if rand.Float32() < 0.3 {
			return nil, nil, fmt.Errorf("flaky tool blew up")
		}
		return textResult("flaky response"), nil, nil
	})

	return server
}

// ServeHTTP serves the dummy tools over the streamable HTTP transport.
// Blocks until the listener fails.
func ServeHTTP(cfg ServerConfig) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return newServer()
	}, nil)

	addr := fmt.Sprintf(":%d", cfg.Port)
	return http.ListenAndServe(addr, handler)
}

// ServeStdio serves the dummy tools over stdin/stdout, for stdio-transport
// runs. Blocks until the client disconnects or ctx ends.
func ServeStdio(ctx context.Context) error {
	return newServer().Run(ctx, &mcp.StdioTransport{})
}

// Connect wires the dummy server to an in-process transport; tests use it to
// exercise the full client path without a subprocess or listener.
func Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return newServer().Connect(ctx, t, nil)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
