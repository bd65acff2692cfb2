package live

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"irisload/internal/runner"
	"irisload/internal/stats"
	"irisload/internal/tui/components"
	"irisload/internal/tui/styles"
)

// doneMsg is sent once the run has returned.
type doneMsg struct {
	res *runner.Result
	err error
}

type Model struct {
	Target string
	Total  int
	Stats  stats.Snapshot

	Progress    progress.Model
	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	StartTime  time.Time
	LastUpdate time.Time
	LastReqs   uint64

	Width int

	updates runner.StatsUpdateChan
	cancel  context.CancelFunc

	Done     bool
	Quitting bool
	Result   *runner.Result
	Err      error
}

func NewModel(cfg runner.Config, updates runner.StatsUpdateChan, cancel context.CancelFunc) Model {
	now := time.Now()
	return Model{
		Target:      cfg.TargetURL,
		Total:       cfg.TotalRequests,
		Progress:    progress.New(progress.WithDefaultGradient()),
		RpsLine:     components.NewSparkline(40, "RPS", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P99 (ms)", styles.Warn),
		StartTime:   now,
		LastUpdate:  now,
		updates:     updates,
		cancel:      cancel,
	}
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func (m Model) Init() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return waitForUpdate(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stats.Snapshot:
		now := time.Now()
		dt := max(now.Sub(m.LastUpdate).Seconds(), 0.01)

		m.RpsLine.Add(float64(msg.Requests-m.LastReqs) / dt)
		m.LatencyLine.Add(msg.P99Ms)

		m.Stats = msg
		m.LastReqs = msg.Requests
		m.LastUpdate = now

		cmds := []tea.Cmd{m.Progress.SetPercent(m.percent())}
		if !m.Done && m.updates != nil {
			cmds = append(cmds, waitForUpdate(m.updates))
		}
		return m, tea.Batch(cmds...)

	case doneMsg:
		m.Done = true
		m.Result = msg.res
		m.Err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Progress.Width = msg.Width - 4
		half := max(msg.Width/2-4, 10)
		m.RpsLine.Resize(half)
		m.LatencyLine.Resize(half)
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) percent() float64 {
	if m.Total <= 0 {
		return 0
	}
	return min(float64(m.Stats.Requests)/float64(m.Total), 1.0)
}

func (m Model) errorRate() float64 {
	if m.Stats.Requests == 0 {
		return 0
	}
	return float64(m.Stats.Fail) / float64(m.Stats.Requests) * 100
}

func (m Model) View() string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("irisload → " + m.Target))
	s.WriteString("\n\n")

	errRate := m.errorRate()
	col1 := fmt.Sprintf("REQ: %d/%d\nINF: %d", m.Stats.Requests, m.Total, m.Stats.Inflight)
	col2 := fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, m.Stats.Fail)
	col3 := fmt.Sprintf("OK: %s\nPEAK: %d", styles.Value.Render(fmt.Sprint(m.Stats.Success)), m.Stats.Peak)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(styles.ForErrorRate(errRate).Render(col2)),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.P50Ms, m.Stats.P90Ms, m.Stats.P99Ms, m.Stats.MaxMs,
	)
	s.WriteString(styles.Box.Render(latencies))
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString("\n\n")

	switch {
	case m.Done:
		s.WriteString(styles.Success.Render("done"))
	case m.Quitting:
		s.WriteString(styles.Warn.Render("stopping, waiting for in-flight requests..."))
	default:
		s.WriteString(styles.RenderKey("q", "stop"))
	}
	s.WriteString("\n")
	return s.String()
}

// Run executes r under a live dashboard and returns the run's result once
// both the run and the program have finished. r.Updates is replaced.
func Run(ctx context.Context, r *runner.Runner, out io.Writer) (*runner.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(runner.StatsUpdateChan, 100)
	r.Updates = updates

	m := NewModel(r.Cfg, updates, cancel)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	p := tea.NewProgram(m, opts...)

	finished := make(chan doneMsg, 1)
	go func() {
		res, err := r.Run(ctx)
		msg := doneMsg{res: res, err: err}
		finished <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("live view: %w", err)
	}

	done := <-finished
	return done.res, done.err
}
