// Package panel holds the chat panel state machine: a single reducer over
// tagged events covering panel geometry, the conversation, the credential
// lifecycle, and the one-request-in-flight send contract. It has no UI
// dependencies; the TUI shell translates terminal input into events and
// effects into commands.
package panel

import (
	"strings"

	"drawchat/logger"
	"drawchat/provider"
)

// Panel geometry bounds, in pixels. The embedded editor protocol is
// pixel-based, so the machine speaks pixels and the shell converts from
// terminal cells.
const (
	MinWidth       = 280
	MaxWidth       = 600
	DefaultWidth   = 360
	CollapsedWidth = 32
)

// State is the complete observable state of the chat panel.
type State struct {
	Width         int // clamped to [MinWidth, MaxWidth]
	ViewportWidth int
	Collapsed     bool
	Resizing      bool

	Credential string
	Input      string
	Messages   []provider.Message // append-only within a session
	Loading    bool
	Err        string // empty means no error
}

// CanSend reports whether the send affordance is enabled.
func (s State) CanSend() bool {
	return !s.Loading && s.Credential != ""
}

// Machine applies events to panel state. Not safe for concurrent use;
// the shell's event loop is the single caller.
type Machine struct {
	state State
	store CredentialStore
}

// NewMachine creates a machine with default geometry and the credential
// loaded once from the store (a load failure leaves it empty).
func NewMachine(store CredentialStore) *Machine {
	st := State{
		Width:         DefaultWidth,
		ViewportWidth: MaxWidth * 2,
	}
	if store != nil {
		saved, err := store.Load()
		if err != nil {
			logger.Warn("credential load failed", "err", err)
		} else if saved != "" {
			st.Credential = saved
		}
	}
	return &Machine{state: st, store: store}
}

// SeedCredential adopts a fallback credential (config or environment)
// without persisting it. No-op when the store already provided one or
// the value is empty.
func (m *Machine) SeedCredential(value string) {
	if m.state.Credential == "" && value != "" {
		m.state.Credential = value
	}
}

// State returns a copy of the current state. The Messages slice is shared
// but append-only, so callers may range over it freely.
func (m *Machine) State() State {
	return m.state
}

// Apply runs one event through the reducer and returns the effect the
// shell must perform, or nil.
func (m *Machine) Apply(ev Event) Effect {
	switch ev := ev.(type) {
	case ViewportResized:
		m.state.ViewportWidth = ev.Width

	case CollapseToggled:
		m.state.Collapsed = !m.state.Collapsed
		// The handle is unreachable while collapsed.
		m.state.Resizing = false

	case DragStarted:
		if !m.state.Collapsed {
			m.state.Resizing = true
		}

	case DragMoved:
		if m.state.Resizing {
			m.state.Width = clampWidth(m.state.ViewportWidth - ev.X)
		}

	case DragEnded:
		m.state.Resizing = false

	case CredentialChanged:
		m.state.Credential = ev.Value
		// A blanked field deliberately leaves the stored value alone,
		// so an accidental clear does not lose the key.
		if ev.Value != "" && m.store != nil {
			if err := m.store.Save(ev.Value); err != nil {
				logger.Warn("credential save failed", "err", err)
			}
		}

	case InputChanged:
		m.state.Input = ev.Value

	case SendRequested:
		return m.send()

	case SendSucceeded:
		if m.state.Loading {
			m.state.Messages = append(m.state.Messages, provider.AssistantMessage(ev.Text))
			m.state.Loading = false
		}

	case SendFailed:
		if m.state.Loading {
			m.state.Err = ev.Message
			m.state.Loading = false
		}
	}
	return nil
}

// send implements the send contract: trim, guard, record the user turn,
// and hand the full conversation to the shell for the backend call. On
// failure the user turn stays recorded; only the reply is missing.
func (m *Machine) send() Effect {
	text := strings.TrimSpace(m.state.Input)
	if text == "" {
		return nil
	}
	if !m.state.CanSend() {
		return nil
	}

	m.state.Err = ""
	m.state.Messages = append(m.state.Messages, provider.UserMessage(text))
	m.state.Input = ""
	m.state.Loading = true

	// The effect gets its own copy so later appends never alias the
	// conversation handed to the in-flight call.
	msgs := append([]provider.Message(nil), m.state.Messages...)
	return CallChat{Credential: m.state.Credential, Messages: msgs}
}

func clampWidth(w int) int {
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}
