package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// pollingStub emulates the request/response message endpoint: POSTs answer
// with a reply envelope, GETs drain a queue of pending messages.
type pollingStub struct {
	mu       sync.Mutex
	queue    []Envelope
	received []Envelope
	reply    func(env Envelope) *Envelope
}

func (s *pollingStub) enqueue(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, env)
}

func (s *pollingStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var env Envelope
			if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.mu.Lock()
			s.received = append(s.received, env)
			reply := s.reply
			s.mu.Unlock()
			if reply == nil {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			out := reply(env)
			if out == nil {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(out)
		case http.MethodGet:
			s.mu.Lock()
			pending := s.queue
			s.queue = nil
			s.mu.Unlock()
			if len(pending) == 0 {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(pending)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func TestPollingChannelRequest(t *testing.T) {
	t.Parallel()

	stub := &pollingStub{
		reply: func(env Envelope) *Envelope {
			return &Envelope{
				ID:      "native_1",
				Kind:    env.Kind,
				ReplyTo: env.ID,
				Data:    json.RawMessage(`{"installed":false}`),
			}
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	ch := NewPollingChannel(Config{URL: srv.URL, SessionID: "sess_1", AppName: "web-checkout"})
	defer ch.Close()

	data, err := ch.Request(context.Background(), "detect_app", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !strings.Contains(string(data), "installed") {
		t.Fatalf("unexpected reply %s", data)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if len(stub.received) != 1 {
		t.Fatalf("expected 1 envelope got %d", len(stub.received))
	}
	if stub.received[0].SessionID != "sess_1" {
		t.Fatalf("session not attached: %+v", stub.received[0])
	}
}

func TestPollingChannelRequestErrorReply(t *testing.T) {
	t.Parallel()

	stub := &pollingStub{
		reply: func(env Envelope) *Envelope {
			return &Envelope{ID: "native_1", Kind: env.Kind, ReplyTo: env.ID, Error: "declined"}
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	ch := NewPollingChannel(Config{URL: srv.URL, SessionID: "sess_1"})
	defer ch.Close()

	if _, err := ch.Request(context.Background(), "detect_app", nil); err == nil {
		t.Fatal("expected error reply to surface")
	} else if !strings.Contains(err.Error(), "declined") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPollingChannelDispatchesQueuedMessages(t *testing.T) {
	t.Parallel()

	stub := &pollingStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	stub.enqueue(Envelope{ID: "native_1", Kind: "on_cancel", SessionID: "sess_1"})

	ch := NewPollingChannel(Config{
		URL:          srv.URL,
		SessionID:    "sess_1",
		PollInterval: 10 * time.Millisecond,
	})
	defer ch.Close()

	cancelled := make(chan struct{})
	ch.Handle("on_cancel", func(ctx context.Context, data json.RawMessage) (any, error) {
		close(cancelled)
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ch.Listen(ctx) }()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestPollingChannelClosedRequest(t *testing.T) {
	t.Parallel()

	ch := NewPollingChannel(Config{URL: "http://127.0.0.1:0", SessionID: "sess_1"})
	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := ch.Request(context.Background(), "detect_app", nil); err != ErrClosed {
		t.Fatalf("expected ErrClosed got %v", err)
	}
}
