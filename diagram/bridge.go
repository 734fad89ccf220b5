package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"drawchat/logger"
)

const defaultListenAddr = "127.0.0.1:7160"

// EventKind classifies host events surfaced to the UI.
type EventKind int

const (
	// EditorConnected means the bridge page opened its relay socket.
	EditorConnected EventKind = iota
	// EditorDisconnected means the relay socket closed.
	EditorDisconnected
	// MessageAccepted means an editor message passed the origin check.
	MessageAccepted
)

// Event is a host status change.
type Event struct {
	Kind EventKind
}

// Host serves the bridge page and relays editor messages into the
// process. Messages from any origin other than the embed origin are
// silently dropped.
type Host struct {
	baseURL string
	origin  string
	listen  string
	handler MessageHandler

	server   *http.Server
	boundURL atomic.Value // string, set once listening
	accepted atomic.Int64
	events   chan Event
}

// NewHost creates a diagram host. handler may be nil; accepted messages
// are then counted and otherwise ignored.
func NewHost(cfg Config, handler MessageHandler) *Host {
	base := cfg.ResolveBaseURL()
	listen := cfg.Listen
	if listen == "" {
		listen = defaultListenAddr
	}
	return &Host{
		baseURL: base,
		origin:  EmbedOrigin(base),
		listen:  listen,
		handler: handler,
		events:  make(chan Event, 16),
	}
}

// Origin returns the embed origin the host trusts.
func (h *Host) Origin() string { return h.origin }

// URL returns the bridge page address once Start has bound the listener.
func (h *Host) URL() string {
	v, _ := h.boundURL.Load().(string)
	return v
}

// Accepted returns the number of editor messages that passed the origin
// check so far.
func (h *Host) Accepted() int64 { return h.accepted.Load() }

// Events returns host status changes for the UI. Sends never block; a
// slow consumer just misses intermediate transitions.
func (h *Host) Events() <-chan Event { return h.events }

// Start binds the listener and serves the bridge in the background.
func (h *Host) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.listen)
	if err != nil {
		return fmt.Errorf("diagram bridge listen: %w", err)
	}
	h.boundURL.Store("http://" + ln.Addr().String() + "/")

	r := chi.NewRouter()
	r.Get("/", h.handlePage)
	r.Get("/ws", h.handleRelay)

	h.server = &http.Server{Handler: r}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("diagram bridge server error", "err", err)
		}
	}()

	logger.Info("diagram bridge started", "url", h.URL(), "embedOrigin", h.origin)
	return nil
}

// Stop shuts the bridge down.
func (h *Host) Stop(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return h.server.Shutdown(shutdownCtx)
}

func (h *Host) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := bridgePage.Execute(w, map[string]string{
		"EmbedURL": EmbedURL(h.baseURL),
	})
	if err != nil {
		logger.Error("diagram bridge page render error", "err", err)
	}
}

// handleRelay accepts the bridge page's websocket and pumps relayed
// window messages through the origin filter.
func (h *Host) handleRelay(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Warn("diagram relay accept failed", "err", err)
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	h.emit(Event{Kind: EditorConnected})
	defer h.emit(Event{Kind: EditorDisconnected})
	logger.Info("diagram editor connected")

	ctx := r.Context()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			logger.Debug("diagram relay closed", "err", err)
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Debug("diagram relay bad frame", "err", err)
			continue
		}
		h.receive(env)
	}
}

// receive applies the trust boundary: only messages from the embed
// origin are accepted. Accepted payloads go to the handler seam.
func (h *Host) receive(env envelope) bool {
	if env.Origin != h.origin {
		logger.Debug("diagram message dropped", "origin", env.Origin)
		return false
	}
	h.accepted.Add(1)
	h.emit(Event{Kind: MessageAccepted})
	if h.handler != nil {
		h.handler.HandleEditorMessage(env.Data)
	}
	return true
}

func (h *Host) emit(ev Event) {
	select {
	case h.events <- ev:
	default:
	}
}

var bridgePage = template.Must(template.New("bridge").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>drawchat diagram editor</title>
<style>
  html, body { margin: 0; height: 100%; overflow: hidden; }
  iframe { width: 100%; height: 100%; border: none; }
</style>
</head>
<body>
<iframe id="editor" src="{{.EmbedURL}}" title="Diagram Editor"></iframe>
<script>
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  window.addEventListener("message", function (event) {
    if (ws.readyState !== WebSocket.OPEN) return;
    ws.send(JSON.stringify({ origin: event.origin, data: event.data }));
  });
</script>
</body>
</html>
`))
