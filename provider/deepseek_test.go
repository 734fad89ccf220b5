package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func conversation() []Message {
	return []Message{UserMessage("hello")}
}

func TestDeepSeekChatSuccess(t *testing.T) {
	var gotBody deepSeekRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer server.Close()

	p := NewDeepSeekProvider(Options{APIKey: "sk-test", APIBase: server.URL})
	resp, err := p.Chat(context.Background(), &Request{Messages: conversation()})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "hi there" {
		t.Errorf("content = %q, want hi there", resp.Content)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Errorf("total tokens = %d, want 5", resp.Usage.TotalTokens)
	}

	if gotBody.Model != deepSeekDefaultModel {
		t.Errorf("model = %q, want fixed default", gotBody.Model)
	}
	if gotBody.Stream {
		t.Error("stream must be false")
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" || gotBody.Messages[0].Content != "hello" {
		t.Errorf("messages = %+v, want the full conversation in order", gotBody.Messages)
	}
}

func TestDeepSeekChatBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	p := NewDeepSeekProvider(Options{APIKey: "sk-test", APIBase: server.URL})
	_, err := p.Chat(context.Background(), &Request{Messages: conversation()})

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if backendErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status code = %d, want 401", backendErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("message %q should carry the status", err.Error())
	}
	if !strings.Contains(backendErr.Body, "bad key") {
		t.Errorf("body = %q, want raw response body", backendErr.Body)
	}
}

func TestDeepSeekChatMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices":[]}`},
		{"empty content", `{"choices":[{"message":{"role":"assistant","content":""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewDeepSeekProvider(Options{APIKey: "sk-test", APIBase: server.URL})
			_, err := p.Chat(context.Background(), &Request{Messages: conversation()})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("err = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestDeepSeekMissingCredentialSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	p := NewDeepSeekProvider(Options{APIKey: "", APIBase: server.URL})
	_, err := p.Chat(context.Background(), &Request{Messages: conversation()})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if calls.Load() != 0 {
		t.Errorf("backend calls = %d, want none", calls.Load())
	}
}

func TestDeepSeekNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // unreachable host

	p := NewDeepSeekProvider(Options{APIKey: "sk-test", APIBase: server.URL})
	_, err := p.Chat(context.Background(), &Request{Messages: conversation()})
	if err == nil {
		t.Fatal("want transport error")
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		t.Errorf("err = %v, transport failure must not look like a backend response", err)
	}
}

func TestDeepSeekCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewDeepSeekProvider(Options{APIKey: "sk-test", APIBase: server.URL})
	_, err := p.Chat(ctx, &Request{Messages: conversation()})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestDeepSeekExtraBodyFields(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewDeepSeekProvider(Options{
		APIKey:    "sk-test",
		APIBase:   server.URL,
		ExtraBody: map[string]any{"temperature": 1.3},
	})
	if _, err := p.Chat(context.Background(), &Request{Messages: conversation()}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got, ok := raw["temperature"].(float64); !ok || got != 1.3 {
		t.Errorf("temperature = %v, want extra body field applied", raw["temperature"])
	}
}
