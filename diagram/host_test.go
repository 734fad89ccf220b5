package diagram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestEmbedURL(t *testing.T) {
	got := EmbedURL("https://embed.diagrams.net/")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse %q: %v", got, err)
	}
	q := u.Query()
	want := map[string]string{"embed": "1", "ui": "min", "spin": "1", "proto": "json"}
	for key, value := range want {
		if q.Get(key) != value {
			t.Errorf("%s = %q, want %q", key, q.Get(key), value)
		}
	}
}

func TestEmbedOrigin(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"public default", "https://embed.diagrams.net/", "https://embed.diagrams.net"},
		{"path stripped", "https://draw.example.com/embed/app", "https://draw.example.com"},
		{"port kept", "http://localhost:8080/", "http://localhost:8080"},
		{"no scheme falls back", "embed.diagrams.net", "https://embed.diagrams.net"},
		{"empty falls back", "", "https://embed.diagrams.net"},
		{"garbage falls back", "://nope", "https://embed.diagrams.net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmbedOrigin(tt.base); got != tt.want {
				t.Errorf("EmbedOrigin(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestResolveBaseURL(t *testing.T) {
	t.Run("config wins", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "https://env.example.com/")
		cfg := Config{BaseURL: "https://cfg.example.com/"}
		if got := cfg.ResolveBaseURL(); got != "https://cfg.example.com/" {
			t.Errorf("got %q, want config value", got)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "https://env.example.com/")
		if got := (Config{}).ResolveBaseURL(); got != "https://env.example.com/" {
			t.Errorf("got %q, want env value", got)
		}
	})

	t.Run("public default", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "")
		if got := (Config{}).ResolveBaseURL(); got != DefaultBaseURL {
			t.Errorf("got %q, want %q", got, DefaultBaseURL)
		}
	})
}

type recordingHandler struct {
	payloads []string
}

func (r *recordingHandler) HandleEditorMessage(data json.RawMessage) {
	r.payloads = append(r.payloads, string(data))
}

func TestReceiveFiltersByOrigin(t *testing.T) {
	handler := &recordingHandler{}
	h := NewHost(Config{BaseURL: "https://embed.diagrams.net/"}, handler)

	if h.receive(envelope{Origin: "https://evil.example.com", Data: json.RawMessage(`{"event":"init"}`)}) {
		t.Error("foreign origin must be dropped")
	}
	if !h.receive(envelope{Origin: "https://embed.diagrams.net", Data: json.RawMessage(`{"event":"init"}`)}) {
		t.Error("embed origin must be accepted")
	}

	if h.Accepted() != 1 {
		t.Errorf("accepted = %d, want 1", h.Accepted())
	}
	if len(handler.payloads) != 1 || handler.payloads[0] != `{"event":"init"}` {
		t.Errorf("handler payloads = %v, want only the accepted message", handler.payloads)
	}
}

func TestBridgeServesPageAndRelay(t *testing.T) {
	h := NewHost(Config{BaseURL: "https://embed.diagrams.net/", Listen: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop(context.Background())

	resp, err := http.Get(h.URL())
	if err != nil {
		t.Fatalf("get bridge page: %v", err)
	}
	defer resp.Body.Close()
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "embed.diagrams.net") {
		t.Error("bridge page should embed the editor URL")
	}

	wsURL := strings.Replace(h.URL(), "http://", "ws://", 1) + "ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	frame, _ := json.Marshal(envelope{
		Origin: h.Origin(),
		Data:   json.RawMessage(`{"event":"init"}`),
	})
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for h.Accepted() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("relayed message was never accepted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
