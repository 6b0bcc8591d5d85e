// Package tui provides an interactive terminal browser for stored
// solve runs.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trajopt/internal/storage"
	"github.com/san-kum/trajopt/internal/viz"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type screen int

const (
	screenList screen = iota
	screenDetail
)

type model struct {
	store  *storage.Store
	runs   []storage.RunMetadata
	cursor int
	screen screen

	detail string
	err    error

	width  int
	height int
}

// NewBrowser builds the run browser over a store.
func NewBrowser(store *storage.Store) (*model, error) {
	runs, err := store.List()
	if err != nil {
		return nil, err
	}
	return &model{
		store:  store,
		runs:   runs,
		width:  80,
		height: 24,
	}, nil
}

// Run starts the browser and blocks until the user quits.
func Run(store *storage.Store) error {
	m, err := NewBrowser(store)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.screen == screenList && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.screen == screenList && m.cursor < len(m.runs)-1 {
				m.cursor++
			}

		case "enter":
			if m.screen == screenList && len(m.runs) > 0 {
				m.openDetail()
			}

		case "esc":
			if m.screen == screenDetail {
				m.screen = screenList
				m.detail = ""
				m.err = nil
			}
		}
	}
	return m, nil
}

func (m *model) openDetail() {
	run := m.runs[m.cursor]
	traj, err := m.store.LoadTrajectory(run.ID)
	if err != nil {
		m.err = err
		m.screen = screenDetail
		return
	}
	width := m.width - 10
	if width < 20 {
		width = 20
	}
	m.detail = viz.PlotTrajectory(traj, width)
	m.screen = screenDetail
}

func (m *model) View() string {
	switch m.screen {
	case screenDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m *model) viewList() string {
	var b strings.Builder
	b.WriteString(cyan.Render("trajopt runs") + "\n\n")

	if len(m.runs) == 0 {
		b.WriteString(dim.Render("no stored runs; solve something first") + "\n")
	}
	for i, run := range m.runs {
		cursor := "  "
		line := fmt.Sprintf("%-28s %-12s objective %.4g", run.ID, run.Scheme, run.Objective)
		if i == m.cursor {
			cursor = cyan.Render("> ")
			line = white.Render(line)
		} else {
			line = dim.Render(line)
		}
		status := green.Render("ok")
		if !run.Success {
			status = red.Render("failed")
		}
		b.WriteString(cursor + line + " " + status + "\n")
	}

	b.WriteString("\n" + dim.Render("enter: plots   j/k: move   q: quit") + "\n")
	return b.String()
}

func (m *model) viewDetail() string {
	var b strings.Builder
	run := m.runs[m.cursor]
	b.WriteString(cyan.Render(run.ID) + "\n")
	b.WriteString(dim.Render(fmt.Sprintf("%s / %s, %d intervals",
		run.Model, run.Scheme, run.MeshIntervals)) + "\n")
	b.WriteString(yellow.Render(fmt.Sprintf("objective %.6g (%s)",
		run.Objective, run.Status)) + "\n\n")

	if m.err != nil {
		b.WriteString(red.Render(m.err.Error()) + "\n")
	} else {
		b.WriteString(m.detail)
	}
	b.WriteString("\n" + dim.Render("esc: back   q: quit") + "\n")
	return b.String()
}
