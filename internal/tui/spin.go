// SPDX-License-Identifier: MPL-2.0

// Package tui holds the cosmetic terminal components of distpack. Nothing
// in here carries pipeline invariants; callers fall back to plain log lines
// when stdout is not a terminal.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// spinInterval is the animation frame interval.
const spinInterval = 100 * time.Millisecond

type (
	// SpinOptions configures the spinner shown around a long-running action.
	SpinOptions struct {
		// Title is the text displayed next to the spinner.
		Title string
	}

	// tickMsg advances the spinner animation.
	tickMsg struct{}

	// doneMsg signals that the action has completed.
	doneMsg struct{}

	// spinModel animates a spinner until the action's done channel closes.
	spinModel struct {
		title  string
		doneCh <-chan struct{}
		frame  int
		frames []string
		done   bool
	}
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
)

// Spin runs action while displaying a spinner, blocking until the action
// completes, and returns the action's error. The action runs exactly once;
// a failing terminal program degrades to an undecorated wait. The action
// itself is responsible for honoring cancellation - the spinner is display
// only.
func Spin(opts SpinOptions, action func() error) error {
	var actionErr error
	done := make(chan struct{})
	go func() {
		actionErr = action()
		close(done)
	}()

	m := spinModel{
		title:  opts.Title,
		doneCh: done,
		frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
	// UI errors are swallowed on purpose: the action's outcome is what
	// matters, and <-done below always waits for it.
	_, _ = tea.NewProgram(m).Run()

	<-done
	return actionErr
}

// Init implements tea.Model.
func (m spinModel) Init() tea.Cmd {
	return tea.Batch(m.wait(), m.tick())
}

// Update implements tea.Model.
func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if !m.done {
			m.frame = (m.frame + 1) % len(m.frames)
			return m, m.tick()
		}
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m spinModel) View() string {
	if m.done {
		return ""
	}
	return spinnerStyle.Render(m.frames[m.frame]) + " " + titleStyle.Render(m.title)
}

func (m spinModel) wait() tea.Cmd {
	return func() tea.Msg {
		<-m.doneCh
		return doneMsg{}
	}
}

func (m spinModel) tick() tea.Cmd {
	return tea.Tick(spinInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
