// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"testing"
)

func TestSpinModelUpdate(t *testing.T) {
	m := spinModel{
		title:  "Building...",
		frames: []string{"a", "b", "c"},
	}

	// Ticks advance the frame and keep ticking.
	next, cmd := m.Update(tickMsg{})
	m = next.(spinModel)
	if m.frame != 1 {
		t.Errorf("frame = %d, want 1", m.frame)
	}
	if cmd == nil {
		t.Error("expected a follow-up tick command")
	}

	// Frame index wraps around.
	m.frame = 2
	next, _ = m.Update(tickMsg{})
	m = next.(spinModel)
	if m.frame != 0 {
		t.Errorf("frame = %d, want 0 after wrap", m.frame)
	}

	// Done stops the animation and quits.
	next, cmd = m.Update(doneMsg{})
	m = next.(spinModel)
	if !m.done {
		t.Error("model should be done after doneMsg")
	}
	if cmd == nil {
		t.Error("expected quit command after doneMsg")
	}

	// No more frame advances once done.
	next, _ = m.Update(tickMsg{})
	m = next.(spinModel)
	if m.frame != 0 {
		t.Errorf("frame advanced after done: %d", m.frame)
	}
}

func TestSpinModelView(t *testing.T) {
	m := spinModel{title: "Building...", frames: []string{"x"}}
	if view := m.View(); view == "" {
		t.Error("active spinner should render something")
	}

	m.done = true
	if view := m.View(); view != "" {
		t.Errorf("finished spinner should render nothing, got %q", view)
	}
}
