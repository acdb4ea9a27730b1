package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable_http"
)

// ServerConfig describes how to reach the MCP server under test. For the
// stdio transport, Host holds the full server command line.
type ServerConfig struct {
	Transport Transport `yaml:"transport"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port,omitempty"`
	Path      string    `yaml:"path,omitempty"`
}

// TestConfig holds the load-generation parameters. ToolArgs is an arbitrary
// nested template; string leaves may contain {{...}} placeholders.
type TestConfig struct {
	ToolName           string         `yaml:"tool_name"`
	ToolArgs           map[string]any `yaml:"tool_args,omitempty"`
	ConcurrentRequests int            `yaml:"concurrent_requests"`
	DurationSeconds    int            `yaml:"duration_seconds"`
	SharedSession      bool           `yaml:"shared_session"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Test   TestConfig   `yaml:"test"`
}

// Load reads and validates a run configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Test.ConcurrentRequests == 0 {
		c.Test.ConcurrentRequests = 1
	}
	if c.Test.DurationSeconds == 0 {
		c.Test.DurationSeconds = 60
	}
}

func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	case "":
		return fmt.Errorf("server.transport is required (stdio, sse or streamable_http)")
	default:
		return fmt.Errorf("unsupported transport %q (want stdio, sse or streamable_http)", c.Server.Transport)
	}

	if c.Server.Transport == TransportStdio && c.Server.Host == "" {
		return fmt.Errorf("server.host must hold the server command for stdio transport")
	}
	if c.Test.ToolName == "" {
		return fmt.Errorf("test.tool_name is required")
	}
	if c.Test.ConcurrentRequests < 1 {
		return fmt.Errorf("test.concurrent_requests must be >= 1, got %d", c.Test.ConcurrentRequests)
	}
	if c.Test.DurationSeconds < 1 {
		return fmt.Errorf("test.duration_seconds must be >= 1, got %d", c.Test.DurationSeconds)
	}
	return nil
}

// Duration returns the configured run duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.Test.DurationSeconds) * time.Second
}

// Endpoint builds the HTTP endpoint URL for the sse and streamable_http
// transports: http://host[:port][path].
func (c *ServerConfig) Endpoint() string {
	portPart := ""
	if c.Port != 0 {
		portPart = fmt.Sprintf(":%d", c.Port)
	}
	return fmt.Sprintf("http://%s%s%s", c.Host, portPart, c.Path)
}
