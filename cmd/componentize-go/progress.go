package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/componentize-go/pipeline"
)

type eventMsg pipeline.Event

type doneMsg struct {
	err error
}

type pkgStatus struct {
	err   error
	stage pipeline.Stage
	seen  bool
}

// progressModel shows one line per test package with its current stage.
type progressModel struct {
	err     error
	status  map[string]*pkgStatus
	cancel  context.CancelFunc
	run     string
	pkgs    []string
	spinner spinner.Model
	done    bool
}

func newProgressModel(pkgs []string, cancel context.CancelFunc) *progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = funcStyle

	status := make(map[string]*pkgStatus, len(pkgs))
	for _, p := range pkgs {
		status[p] = &pkgStatus{}
	}
	return &progressModel{
		pkgs:    pkgs,
		status:  status,
		spinner: s,
		cancel:  cancel,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		}

	case eventMsg:
		if msg.Package == "" {
			m.run = msg.Stage.String()
			if msg.Stage == pipeline.StageFailed {
				m.err = msg.Err
			}
			return m, nil
		}
		if st, ok := m.status[msg.Package]; ok {
			st.seen = true
			st.stage = msg.Stage
			st.err = msg.Err
		}

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("componentize-go test"))
	if m.run != "" && !m.done {
		b.WriteString(" ")
		b.WriteString(helpStyle.Render(m.run))
	}
	b.WriteString("\n\n")

	for _, p := range m.pkgs {
		st := m.status[p]
		switch {
		case !st.seen:
			b.WriteString("  ")
			b.WriteString(helpStyle.Render("· " + p))
		case st.stage == pipeline.StageDone:
			b.WriteString("  ")
			b.WriteString(okStyle.Render("✓ " + p))
		case st.stage == pipeline.StageFailed:
			b.WriteString("  ")
			b.WriteString(errorStyle.Render("✗ " + p))
		default:
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
			b.WriteString(p)
			b.WriteString(" ")
			b.WriteString(helpStyle.Render(st.stage.String()))
		}
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q: cancel"))
		b.WriteString("\n")
	}
	return b.String()
}
