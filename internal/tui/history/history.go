package history

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"irisload/internal/runner"
	"irisload/internal/storage"
	"irisload/internal/tui/styles"
)

// RenderFunc formats the summary of the selected run.
type RenderFunc func(runner.Summary) string

// Model browses saved runs; enter shows the selected run's report.
type Model struct {
	Items  []storage.HistoryItem
	Table  table.Model
	Detail string

	render RenderFunc

	Width  int
	Height int
}

func NewModel(items []storage.HistoryItem, render RenderFunc) Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "Target", Width: 30},
		{Title: "Scenario", Width: 10},
		{Title: "Reqs", Width: 8},
		{Title: "Success", Width: 9},
		{Title: "P95 (ms)", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(styles.ColorPrimary).
		Bold(false)
	t.SetStyles(s)

	m := Model{Items: items, Table: t, render: render}
	m.Table.SetRows(rows(items))
	return m
}

func rows(items []storage.HistoryItem) []table.Row {
	out := make([]table.Row, len(items))
	for i, item := range items {
		scenario := item.Scenario
		if scenario == "" {
			scenario = "-"
		}
		out[i] = table.Row{
			item.Timestamp.Local().Format(time.DateTime),
			item.TargetURL,
			scenario,
			fmt.Sprint(item.Requests),
			fmt.Sprintf("%.1f%%", item.Summary.SuccessRate()),
			fmt.Sprintf("%.2f", float64(item.Summary.P95)/float64(time.Millisecond)),
		}
	}
	return out
}

// Selected is the highlighted run, nil when there are none.
func (m Model) Selected() *storage.HistoryItem {
	i := m.Table.Cursor()
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	return &m.Items[i]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item := m.Selected(); item != nil && m.render != nil {
				m.Detail = m.render(item.Summary)
			}
			return m, nil
		case "esc":
			m.Detail = ""
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Detail != "" {
		return m.Detail + "\n" + styles.RenderKey("esc", "back") + "  " + styles.RenderKey("q", "quit") + "\n"
	}
	return styles.Box.Render(m.Table.View()) + "\n" +
		styles.RenderKey("enter", "report") + "  " + styles.RenderKey("q", "quit") + "\n"
}

// Browse runs the browser until the user quits.
func Browse(items []storage.HistoryItem, render RenderFunc, out io.Writer) error {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	_, err := tea.NewProgram(NewModel(items, render), opts...).Run()
	return err
}
