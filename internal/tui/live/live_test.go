package live

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"irisload/internal/runner"
	"irisload/internal/stats"
)

func newTestModel(cancel func()) Model {
	cfg := runner.DefaultConfig("http://svc:8000")
	cfg.TotalRequests = 100
	return NewModel(cfg, nil, cancel)
}

func TestSnapshotUpdatesCounters(t *testing.T) {
	m := newTestModel(nil)
	next, _ := m.Update(stats.Snapshot{Requests: 50, Success: 48, Fail: 2, Inflight: 3, P99Ms: 12.5})
	m = next.(Model)

	if m.percent() != 0.5 {
		t.Errorf("percent = %v, want 0.5", m.percent())
	}
	if m.errorRate() != 4 {
		t.Errorf("error rate = %v, want 4", m.errorRate())
	}
	if len(m.LatencyLine.Data) != 1 || m.LatencyLine.Data[0] != 12.5 {
		t.Errorf("latency sparkline not fed: %v", m.LatencyLine.Data)
	}
	view := m.View()
	for _, want := range []string{"REQ: 50/100", "FAIL: 2", "P99: 12.50 ms", "http://svc:8000"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPercentCapped(t *testing.T) {
	m := newTestModel(nil)
	m.Stats.Requests = 250
	if m.percent() != 1 {
		t.Errorf("percent = %v, want 1", m.percent())
	}
}

func TestDoneQuits(t *testing.T) {
	m := newTestModel(nil)
	res := &runner.Result{ID: "x"}
	next, cmd := m.Update(doneMsg{res: res})
	m = next.(Model)
	if !m.Done || m.Result != res {
		t.Fatalf("done state not recorded: %+v", m)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should quit the program")
	}
}

func TestQuitKeyCancelsRun(t *testing.T) {
	called := false
	m := newTestModel(func() { called = true })
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	if !called || !m.Quitting {
		t.Error("q should cancel the run")
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Error("view should show stopping state")
	}
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)
	if m.RpsLine.Width != 46 || m.Progress.Width != 96 {
		t.Errorf("unexpected widths rps=%d progress=%d", m.RpsLine.Width, m.Progress.Width)
	}
}
