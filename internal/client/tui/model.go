// Package tui is the interactive terminal front end for uploading equipment
// exports and browsing recent summaries.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"equipviz.dev/backend/internal/client/render"
	"equipviz.dev/backend/internal/client/upload"
	"equipviz.dev/backend/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const historyTimeout = 10 * time.Second

// HistoryFetcher is the part of *api.Client used for the history view.
type HistoryFetcher interface {
	History(ctx context.Context, limit int) ([]*model.SummaryRecord, error)
}

type uploadEventMsg upload.Event

type historyMsg struct {
	records []*model.SummaryRecord
	err     error
}

// Model is the bubbletea model driving the upload screen.
type Model struct {
	coordinator *upload.Coordinator
	history     HistoryFetcher

	input   textinput.Model
	spinner spinner.Model

	busy    bool
	status  string
	failed  bool
	result  string
	records string
}

func New(coordinator *upload.Coordinator, history HistoryFetcher) Model {
	ti := textinput.New()
	ti.Placeholder = "path/to/equipment.csv"
	ti.Prompt = "File: "
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		coordinator: coordinator,
		history:     history,
		input:       ti,
		spinner:     sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.coordinator))
}

// waitForEvent blocks on the coordinator's next event. It is re-issued after
// every event so the channel is always drained.
func waitForEvent(c *upload.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.Events()
		if !ok {
			return nil
		}
		return uploadEventMsg(ev)
	}
}

func fetchHistory(h HistoryFetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		records, err := h.History(ctx, 0)
		return historyMsg{records: records, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			path := strings.TrimSpace(m.input.Value())
			if path == "" {
				m.status, m.failed = "Please select a file first", true
				return m, nil
			}
			// a second Enter while uploading is dropped by the coordinator
			m.coordinator.Submit(path)
			return m, nil
		case tea.KeyCtrlR:
			if m.history == nil {
				return m, nil
			}
			return m, fetchHistory(m.history)
		}

	case uploadEventMsg:
		m = m.apply(upload.Event(msg))
		cmds := []tea.Cmd{waitForEvent(m.coordinator)}
		if m.busy && msg.Kind == upload.EventStarted {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case historyMsg:
		if msg.err != nil {
			m.records = errorStyle.Render(upload.Describe(msg.err))
		} else {
			m.records = render.History(msg.records)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) apply(ev upload.Event) Model {
	m.status = ev.Message
	switch ev.Kind {
	case upload.EventStarted:
		m.busy, m.failed = true, false
		m.result = ""
	case upload.EventSucceeded:
		m.busy, m.failed = false, false
		m.result = render.Summary(ev.Summary)
	case upload.EventFailed:
		m.busy, m.failed = false, true
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Equipment Data Upload"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " " + statusStyle.Render(m.status))
	case m.failed && m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(successStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.result != "" {
		b.WriteString("\n" + m.result + "\n")
	}
	if m.records != "" {
		b.WriteString("\n" + m.records + "\n")
	}

	b.WriteString("\n" + hintStyle.Render("enter: upload • ctrl+r: recent uploads • esc: quit"))
	return b.String()
}

// Run starts the interactive program and blocks until the user quits.
func Run(coordinator *upload.Coordinator, history HistoryFetcher, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(New(coordinator, history), opts...).Run()
	return err
}
