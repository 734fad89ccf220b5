package panel

import "drawchat/provider"

// Event is a tagged input to the panel state machine. Everything the
// shell can do to the panel arrives as one of these.
type Event interface{ isEvent() }

// ViewportResized reports a new viewport width in pixels.
type ViewportResized struct{ Width int }

// DragStarted begins a resize drag on the panel handle.
type DragStarted struct{}

// DragMoved reports the pointer X position (pixels from the viewport's
// left edge) during a drag.
type DragMoved struct{ X int }

// DragEnded finishes a resize drag. Delivered on release anywhere, not
// just over the handle, so a drag cannot get stuck.
type DragEnded struct{}

// CollapseToggled flips the panel between expanded and collapsed.
type CollapseToggled struct{}

// CredentialChanged carries an edited API credential.
type CredentialChanged struct{ Value string }

// InputChanged carries the current message input buffer.
type InputChanged struct{ Value string }

// SendRequested asks to send the current input buffer.
type SendRequested struct{}

// SendSucceeded carries the assistant reply for the in-flight send.
type SendSucceeded struct{ Text string }

// SendFailed carries the human-readable failure for the in-flight send.
type SendFailed struct{ Message string }

func (ViewportResized) isEvent()   {}
func (DragStarted) isEvent()       {}
func (DragMoved) isEvent()         {}
func (DragEnded) isEvent()         {}
func (CollapseToggled) isEvent()   {}
func (CredentialChanged) isEvent() {}
func (InputChanged) isEvent()      {}
func (SendRequested) isEvent()     {}
func (SendSucceeded) isEvent()     {}
func (SendFailed) isEvent()        {}

// Effect is work the shell must perform after an Apply. At most one
// effect is produced per event.
type Effect interface{ isEffect() }

// CallChat asks the shell to send the conversation to the chat backend
// and feed the outcome back as SendSucceeded or SendFailed.
type CallChat struct {
	Credential string
	Messages   []provider.Message
}

func (CallChat) isEffect() {}
