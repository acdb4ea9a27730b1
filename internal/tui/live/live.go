// Package live is the --live view: a full-screen progress display fed by the
// runner's snapshot channel while a load test executes.
package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mcpblast/internal/runner"
	"mcpblast/internal/stats"
	"mcpblast/internal/tui/components"
	"mcpblast/internal/tui/styles"
)

// DoneMsg ends the view once the run has drained.
type DoneMsg struct {
	Summary *stats.Summary
	Err     error
}

type snapshotMsg stats.Snapshot

type Model struct {
	Snap     stats.Snapshot
	Progress progress.Model

	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	StartTime  time.Time
	Duration   time.Duration
	LastUpdate time.Time
	LastReqs   uint64

	updates runner.StatsUpdateChan

	Width  int
	Height int
}

func NewModel(updates runner.StatsUpdateChan, totalDur time.Duration) Model {
	return Model{
		Progress:    progress.New(progress.WithDefaultGradient()),
		RpsLine:     components.NewSparkline(40, "Calls/s", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90 (ms)", styles.Warn),
		StartTime:   time.Now(),
		Duration:    totalDur,
		LastUpdate:  time.Now(),
		updates:     updates,
	}
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

// listen blocks on the snapshot channel; the runner drops updates when this
// view lags, so the channel never backs the workers up.
func (m Model) listen() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		now := time.Now()
		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		snap := stats.Snapshot(msg)
		rate := float64(snap.RequestsSent-m.LastReqs) / dt

		m.RpsLine.Add(rate)
		m.LatencyLine.Add(snap.P90Ms)

		m.Snap = snap
		m.LastReqs = snap.RequestsSent
		m.LastUpdate = now

		elapsed := time.Since(m.StartTime)
		pct := float64(elapsed) / float64(m.Duration)
		if pct > 1.0 {
			pct = 1.0
		}
		return m, tea.Batch(m.Progress.SetPercent(pct), m.listen())

	case DoneMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4

		half := (msg.Width / 2) - 4
		if half < 10 {
			half = 10
		}
		m.RpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("mcpblast"))
	s.WriteString("\n\n")

	// Top Grid: Metrics
	snap := m.Snap
	errRate := 0.0
	if snap.RequestsSent > 0 {
		errRate = float64(snap.Failures) / float64(snap.RequestsSent) * 100
	}

	var errColor lipgloss.Style
	switch {
	case errRate > 5.0:
		errColor = styles.Error
	case errRate > 1.0:
		errColor = styles.Warn
	default:
		errColor = styles.Active
	}

	col1 := fmt.Sprintf("SENT: %d\nRECV: %d", snap.RequestsSent, snap.RequestsReceived)
	col2 := fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, snap.Failures)
	col3 := fmt.Sprintf("OK: %d\nSESSIONS: %d", snap.Successes, snap.SessionsCreated)

	grid := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(errColor.Render(col2)),
		styles.Box.Render(col3),
	)
	s.WriteString(grid)
	s.WriteString("\n\n")

	// Sparklines
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	// Detailed Latency
	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.0f ms",
		snap.P50Ms,
		snap.P90Ms,
		snap.P99Ms,
		snap.MaxMs,
	)
	w := m.Width - 4
	if w < 20 {
		w = 20
	}
	s.WriteString(styles.Box.Width(w).Render(latencies))
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString("\n")
	s.WriteString(styles.Subtle.Render("  q: stop early"))

	return s.String()
}
