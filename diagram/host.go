// Package diagram hosts the external diagram editor. The editor is a
// third-party web application; we embed it in a local bridge page and
// relay its window messages into the process, accepting only messages
// whose origin matches the configured embed origin.
package diagram

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
)

const (
	// DefaultBaseURL is the public embed endpoint of the editor.
	DefaultBaseURL = "https://embed.diagrams.net/"

	// defaultOrigin is the fallback when the configured base URL does
	// not parse.
	defaultOrigin = "https://embed.diagrams.net"

	// EnvBaseURL overrides the editor base URL.
	EnvBaseURL = "DIAGRAMS_BASE_URL"
)

// Config describes the diagram host.
type Config struct {
	BaseURL     string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Listen      string `json:"listen,omitempty" yaml:"listen,omitempty"`
	OpenBrowser bool   `json:"openBrowser,omitempty" yaml:"openBrowser,omitempty"`
}

// ResolveBaseURL resolves the editor base URL: config, then environment,
// then the public default.
func (c Config) ResolveBaseURL() string {
	if v := strings.TrimSpace(c.BaseURL); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	return DefaultBaseURL
}

// EmbedURL builds the editor URL with the embed protocol selected: a
// minimal UI and JSON-based messaging.
func EmbedURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		u, _ = url.Parse(DefaultBaseURL)
	}
	q := u.Query()
	q.Set("embed", "1")
	q.Set("ui", "min")
	q.Set("spin", "1")
	q.Set("proto", "json")
	u.RawQuery = q.Encode()
	return u.String()
}

// EmbedOrigin derives the scheme+host origin used to authenticate
// inbound editor messages. Unparseable bases fall back to the default
// editor origin.
func EmbedOrigin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return defaultOrigin
	}
	return u.Scheme + "://" + u.Host
}

// MessageHandler receives editor messages that passed the origin check.
// It is a capability seam: the default host installs none and accepted
// payloads are only counted, reserved for future protocol handling.
type MessageHandler interface {
	HandleEditorMessage(data json.RawMessage)
}

// envelope is one relayed window message from the bridge page.
type envelope struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}
