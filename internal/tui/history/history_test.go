package history

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"irisload/internal/runner"
	"irisload/internal/storage"
)

func items() []storage.HistoryItem {
	return []storage.HistoryItem{
		{ID: "b", Timestamp: time.Now(), TargetURL: "http://b", Requests: 20, Summary: runner.Summary{Requested: 20, SuccessCount: 10}},
		{ID: "a", Timestamp: time.Now(), TargetURL: "http://a", Requests: 10, Scenario: "normal", Summary: runner.Summary{Requested: 10, SuccessCount: 10}},
	}
}

func renderID(s runner.Summary) string {
	return fmt.Sprintf("report: %d requested", s.Requested)
}

func TestRows(t *testing.T) {
	r := rows(items())
	if len(r) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(r))
	}
	if r[0][2] != "-" || r[0][4] != "50.0%" {
		t.Errorf("unexpected first row %v", r[0])
	}
	if r[1][2] != "normal" || r[1][4] != "100.0%" {
		t.Errorf("unexpected second row %v", r[1])
	}
}

func TestEnterShowsSelectedReport(t *testing.T) {
	m := NewModel(items(), renderID)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if sel := m.Selected(); sel == nil || sel.ID != "a" {
		t.Fatalf("expected cursor on second run, got %+v", sel)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.Detail != "report: 10 requested" {
		t.Errorf("detail = %q", m.Detail)
	}
	if !strings.Contains(m.View(), "report: 10 requested") {
		t.Error("view should show the report")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.Detail != "" {
		t.Error("esc should return to the table")
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(nil, renderID)
	if m.Selected() != nil {
		t.Error("empty history has no selection")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
