package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mcpblast/internal/banner"
	"mcpblast/internal/cli"
	"mcpblast/internal/config"
	"mcpblast/internal/dummy"
	"mcpblast/internal/mcpclient"
	"mcpblast/internal/report"
	"mcpblast/internal/runner"
	"mcpblast/internal/stats"
	"mcpblast/internal/storage"
	"mcpblast/internal/tui/live"
)

var (
	cfgPath   string
	outPath   string
	csvPath   string
	liveView  bool
	verbose   bool
	noHistory bool
)

var rootCmd = &cobra.Command{
	Use:   "mcpblast",
	Short: "mcpblast - MCP Server Load Testing Tool",
	Long: `
mcpblast generates concurrent tool-call load against an MCP server
(stdio, SSE or streamable HTTP) and reports throughput, latency
distribution and error rates.

Runs are described by a YAML config file:

  server:
    transport: streamable_http
    host: localhost
    port: 8080
    path: /mcp
  test:
    tool_name: echo
    tool_args:
      id: "{{counter}}"
      sent_at: "{{timestamp}}"
    concurrent_requests: 10
    duration_seconds: 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadTest(cmd.Context())
	},
}

func Execute() {
	// Custom help with banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initSettings)

	rootCmd.AddCommand(serveCmd)

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML run configuration (required)")
	rootCmd.Flags().StringVarP(&outPath, "output", "o", "", "Save results YAML to file (default: print to stdout)")
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "Also dump raw per-request outcomes to a CSV file")
	rootCmd.Flags().BoolVar(&liveView, "live", false, "Show the live TUI while the test runs")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in ~/.mcpblast/history.json")
	rootCmd.MarkFlagRequired("config")
}

// initSettings wires viper: tool-level defaults overridable from an optional
// $HOME/.mcpblast.yaml and MCPBLAST_* environment variables.
func initSettings() {
	viper.SetDefault("throttle_ms", 10)
	viper.SetDefault("tick_ms", 200)

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mcpblast")
	}
	viper.SetEnvPrefix("MCPBLAST")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func runLoadTest(ctx context.Context) error {
	log := newLogger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	dialer, err := mcpclient.NewDialer(cfg.Server, log)
	if err != nil {
		return err
	}

	runCfg := runner.Config{
		ToolName:      cfg.Test.ToolName,
		ToolArgs:      cfg.Test.ToolArgs,
		Workers:       cfg.Test.ConcurrentRequests,
		Duration:      cfg.Duration(),
		SharedSession: cfg.Test.SharedSession,
		Throttle:      time.Duration(viper.GetInt("throttle_ms")) * time.Millisecond,
	}

	updates := make(runner.StatsUpdateChan, 100)
	r := runner.NewRunner(runCfg, dialer, updates, log)

	var summary *stats.Summary
	if liveView {
		summary, err = runLive(ctx, r, cfg)
	} else {
		summary, err = cli.Run(ctx, r, cfg)
	}
	if err != nil {
		return err
	}

	doc := report.Document{TestConfig: cfg, Results: summary}
	if outPath != "" {
		if err := report.SaveYAML(outPath, doc); err != nil {
			return err
		}
		fmt.Printf("\n💾 Results saved to %s\n", outPath)
	} else {
		fmt.Println()
		if err := report.WriteYAML(os.Stdout, doc); err != nil {
			return err
		}
	}

	if csvPath != "" {
		if err := report.SaveCSV(csvPath, r.Results); err != nil {
			return err
		}
		fmt.Printf("💾 Raw outcomes saved to %s\n", csvPath)
	}

	if !noHistory {
		if store, err := storage.NewStore(); err == nil {
			if _, err := store.Append(cfg, summary); err != nil {
				log.Warn().Err(err).Msg("could not record run history")
			}
		}
	}

	return nil
}

func runLive(ctx context.Context, r *runner.Runner, cfg *config.Config) (*stats.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.StartTickLoop(ctx, time.Duration(viper.GetInt("tick_ms"))*time.Millisecond)

	m := live.NewModel(r.Updates, cfg.Duration())
	p := tea.NewProgram(m, tea.WithAltScreen())

	type runResult struct {
		summary *stats.Summary
		err     error
	}
	done := make(chan runResult, 1)
	go func() {
		summary, err := r.Run(ctx)
		done <- runResult{summary, err}
		p.Send(live.DoneMsg{Summary: summary, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("running live view: %w", err)
	}

	// Quitting the view early cancels the run; the runner still drains and
	// produces a summary for whatever completed.
	cancel()
	res := <-done
	return res.summary, res.err
}

// --- Serve Subcommand ---

var (
	servePort  int
	serveStdio bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the built-in dummy MCP server (echo, fast, slow, spike, flaky tools)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveStdio {
			return dummy.ServeStdio(cmd.Context())
		}
		fmt.Printf("Dummy MCP server listening on :%d (streamable HTTP)\n", servePort)
		return dummy.ServeHTTP(dummy.ServerConfig{Port: servePort})
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port for the streamable HTTP transport")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "Serve over stdin/stdout instead of HTTP")
}
