// Package tui is the terminal shell: it composes the diagram pane and the
// chat panel side by side and translates terminal input into panel
// machine events.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"drawchat/diagram"
	"drawchat/panel"
)

// Pane is a composable TUI region with its own state, update logic, and
// view. The root App orchestrates panes without knowing their internals.
type Pane interface {
	Update(tea.Msg) (Pane, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries one log line from the intercepted logger.
type LogLineMsg struct{ Line string }

// effectMsg carries a machine effect up to the App, which owns effect
// execution.
type effectMsg struct{ effect panel.Effect }

// sendResultMsg is the outcome of one chat backend call.
type sendResultMsg struct {
	text string
	err  error
}

// hostEventMsg is a diagram host status change. ok is false once the
// host event stream has closed.
type hostEventMsg struct {
	event diagram.Event
	ok    bool
}
