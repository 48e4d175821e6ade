// Package tui renders an interactive progress view for a single pipeline
// run: a bar over the detection loop plus live per-record status.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
	"github.com/jasonsutter87/marketing-lead-generation/internal/tui/styles"
)

// Event is one detection progress update.
type Event struct {
	Completed int
	Total     int
	Name      string
	Status    string
}

// RunFunc executes the pipeline run while the view is up.
type RunFunc func() (*model.RunResult, error)

type eventMsg Event

type runCompleteMsg struct {
	res *model.RunResult
	err error
}

type tickMsg time.Time

// Model is the bubbletea model for one run.
type Model struct {
	category  string
	location  string
	run       RunFunc
	events    <-chan Event
	progress  progress.Model
	startTime time.Time
	last      Event
	res       *model.RunResult
	err       error
	done      bool
}

// NewModel builds the view. Pipeline progress arrives on events; run is
// started as a background command when the program initializes.
func NewModel(category, location string, run RunFunc, events <-chan Event) Model {
	return Model{
		category:  category,
		location:  location,
		run:       run,
		events:    events,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		startTime: time.Now(),
	}
}

// Run starts the program and returns the pipeline's result.
func Run(category, location string, run RunFunc, events <-chan Event) (*model.RunResult, error) {
	final, err := tea.NewProgram(NewModel(category, location, run, events)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	return m.res, m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startRun(), m.listen(), tickCmd())
}

func (m Model) startRun() tea.Cmd {
	run := m.run
	return func() tea.Msg {
		res, err := run()
		return runCompleteMsg{res: res, err: err}
	}
}

func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.done {
				return m, tea.Quit
			}
		case "enter", "esc":
			if m.done {
				return m, tea.Quit
			}
		}
	case eventMsg:
		m.last = Event(msg)
		return m, m.listen()
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case runCompleteMsg:
		m.done = true
		m.res = msg.res
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	var pm tea.Model
	pm, cmd = m.progress.Update(msg)
	m.progress = pm.(progress.Model)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Run: %q in %s", m.category, m.location)))
	b.WriteString("\n\n")

	var pct float64
	if m.last.Total > 0 {
		pct = float64(m.last.Completed) / float64(m.last.Total)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(styles.Muted).Width(10)
	value := lipgloss.NewStyle().Foreground(styles.Text)
	if m.last.Total > 0 {
		b.WriteString(label.Render("Checked:"))
		b.WriteString(value.Render(fmt.Sprintf("%d/%d", m.last.Completed, m.last.Total)))
		b.WriteString("\n")
		b.WriteString(label.Render("Last:"))
		b.WriteString(value.Render(fmt.Sprintf("%s - %s", m.last.Name, m.last.Status)))
		b.WriteString("\n")
	}
	b.WriteString(label.Render("Elapsed:"))
	b.WriteString(value.Render(time.Since(m.startTime).Truncate(time.Second).String()))
	b.WriteString("\n")

	if m.done {
		if m.err != nil {
			b.WriteString("\n" + styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		} else if m.res != nil {
			b.WriteString("\n" + lipgloss.NewStyle().Foreground(styles.Success).Bold(true).
				Render(fmt.Sprintf("%s: %d found, %d leads added (total %d)",
					m.res.State, m.res.BusinessesFound, m.res.LeadsAdded, m.res.TotalLeads)))
		}
	} else {
		b.WriteString(styles.StatusBar.Render("running..."))
	}

	return b.String()
}
