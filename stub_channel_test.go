package nativecheckout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/smodnix/nativecheckout/transport"
)

// stubChannel is an in-memory transport.Channel for exercising the provider,
// detector, and session without a network.
type stubChannel struct {
	sessionID string
	request   func(ctx context.Context, kind string, payload any) (json.RawMessage, error)

	mu       sync.Mutex
	handlers map[string]transport.HandlerFunc
	requests []string
	closed   bool
}

var _ transport.Channel = (*stubChannel)(nil)

func newStubChannel() *stubChannel {
	return &stubChannel{handlers: make(map[string]transport.HandlerFunc)}
}

func (c *stubChannel) SessionID() string { return c.sessionID }

func (c *stubChannel) Request(ctx context.Context, kind string, payload any) (json.RawMessage, error) {
	c.mu.Lock()
	c.requests = append(c.requests, kind)
	c.mu.Unlock()
	if c.request != nil {
		return c.request(ctx, kind, payload)
	}
	return nil, nil
}

func (c *stubChannel) Handle(kind string, fn transport.HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = fn
}

func (c *stubChannel) Listen(ctx context.Context) error { return nil }

func (c *stubChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// deliver simulates a message arriving from the native side.
func (c *stubChannel) deliver(ctx context.Context, kind MessageKind, payload string) (any, error) {
	c.mu.Lock()
	fn, ok := c.handlers[string(kind)]
	c.mu.Unlock()
	if !ok {
		return nil, errors.New("no handler registered for " + string(kind))
	}
	var data json.RawMessage
	if payload != "" {
		data = json.RawMessage(payload)
	}
	return fn(ctx, data)
}

func (c *stubChannel) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
