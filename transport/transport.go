// Package transport carries named messages between the web checkout page and
// the native checkout experience. Two channel implementations share one wire
// envelope: a realtime WebSocket channel and a request/response HTTP polling
// channel used when the realtime transport is unavailable.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smodnix/nativecheckout/signature"
)

// ErrClosed is returned by operations on a channel that has been closed.
var ErrClosed = errors.New("transport: channel closed")

// Envelope is the wire frame shared by both channel implementations.
// ReplyTo correlates a response with the request envelope it answers.
type Envelope struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	ReplyTo   string          `json:"reply_to,omitempty"`
	SessionID string          `json:"session_uid,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

// HandlerFunc consumes an incoming message and optionally returns a reply
// payload. A nil reply with a nil error acknowledges the message silently.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Channel is the bidirectional message contract between the checkout page
// and the native experience.
type Channel interface {
	// SessionID identifies the native experience this channel belongs to.
	SessionID() string
	// Request sends a message and waits for the correlated reply.
	Request(ctx context.Context, kind string, payload any) (json.RawMessage, error)
	// Handle registers the handler invoked for incoming messages of the
	// given kind. Registering twice replaces the previous handler.
	Handle(kind string, fn HandlerFunc)
	// Listen pumps incoming messages until ctx is cancelled or the
	// connection ends. Handlers run sequentially in arrival order.
	Listen(ctx context.Context) error
	// Close tears down the underlying connection.
	Close() error
}

// Config carries the settings shared by both channel implementations.
type Config struct {
	// URL of the message endpoint. ws:// or wss:// for the realtime
	// channel, http:// or https:// for the polling channel.
	URL string
	// SessionID correlates the channel with the native experience the
	// browser navigates to.
	SessionID string
	// AppName and AppVersion identify the integrating application.
	AppName    string
	AppVersion string
	// RequestTimeout bounds how long Request waits for a reply.
	// Defaults to 10 seconds.
	RequestTimeout time.Duration
	// PollInterval is the delay between empty polls on the fallback
	// channel. Defaults to one second.
	PollInterval time.Duration
	Logger       *slog.Logger
	// Signer, when set, signs every outgoing envelope.
	Signer *signature.Signer
	// Verifier, when set, rejects incoming envelopes whose signature
	// does not match.
	Verifier   signature.Verifier
	HTTPClient *http.Client
	Clock      func() time.Time
}

func (cfg *Config) applyDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
}

// core implements the dispatch and correlation logic shared by the
// WebSocket and polling channels.
type core struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	pending  map[string]chan Envelope
}

func newCore(cfg Config) core {
	cfg.applyDefaults()
	return core{
		cfg:      cfg,
		logger:   cfg.Logger,
		handlers: make(map[string]HandlerFunc),
		pending:  make(map[string]chan Envelope),
	}
}

func (c *core) SessionID() string {
	return c.cfg.SessionID
}

func (c *core) Handle(kind string, fn HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		delete(c.handlers, kind)
		return
	}
	c.handlers[kind] = fn
}

func (c *core) handler(kind string) (HandlerFunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, ok := c.handlers[kind]
	return fn, ok
}

// newEnvelope builds an outgoing envelope, stamping and signing it when a
// signer is configured.
func (c *core) newEnvelope(kind string, replyTo string, payload any) (Envelope, error) {
	env := Envelope{
		ID:        uuid.New().String(),
		Kind:      kind,
		ReplyTo:   replyTo,
		SessionID: c.cfg.SessionID,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("transport: marshal %s payload: %w", kind, err)
		}
		env.Data = data
	}
	if c.cfg.Signer != nil {
		ts := c.cfg.Clock().UTC()
		canonical, err := signature.CanonicalizeJSONBody(env.Data)
		if err != nil {
			return Envelope{}, fmt.Errorf("transport: canonicalize %s payload: %w", kind, err)
		}
		sig, err := c.cfg.Signer.Sign(ts, canonical)
		if err != nil {
			return Envelope{}, err
		}
		env.Timestamp = ts.Format(time.RFC3339Nano)
		env.Signature = sig
	}
	return env, nil
}

// verify checks the envelope signature when a verifier is configured.
func (c *core) verify(ctx context.Context, env Envelope) error {
	if c.cfg.Verifier == nil {
		return nil
	}
	ts, err := signature.ParseTimestamp(env.Timestamp)
	if err != nil {
		return fmt.Errorf("transport: envelope %s: %w", env.ID, err)
	}
	canonical, err := signature.CanonicalizeJSONBody(env.Data)
	if err != nil {
		return fmt.Errorf("transport: envelope %s: %w", env.ID, err)
	}
	return c.cfg.Verifier.Verify(ctx, signature.Material{
		Signature:     env.Signature,
		Timestamp:     ts,
		CanonicalBody: canonical,
		Kind:          env.Kind,
		SessionID:     env.SessionID,
	})
}

// awaitReply registers a correlation slot for the given request ID.
func (c *core) awaitReply(id string) chan Envelope {
	ch := make(chan Envelope, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	return ch
}

func (c *core) forgetReply(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// settle routes a reply envelope to its waiting request, reporting whether
// a request was waiting for it.
func (c *core) settle(env Envelope) bool {
	c.mu.Lock()
	ch, ok := c.pending[env.ReplyTo]
	if ok {
		delete(c.pending, env.ReplyTo)
	}
	c.mu.Unlock()
	if ok {
		ch <- env
	}
	return ok
}

// dispatch runs the handler for an incoming message and builds the reply
// envelope, if the handler produced one.
func (c *core) dispatch(ctx context.Context, env Envelope) (*Envelope, error) {
	if err := c.verify(ctx, env); err != nil {
		return nil, err
	}
	fn, ok := c.handler(env.Kind)
	if !ok {
		c.logger.Debug("no handler for message",
			slog.String("kind", env.Kind),
			slog.String("session", env.SessionID))
		return nil, nil
	}
	result, err := fn(ctx, env.Data)
	if err != nil {
		reply, buildErr := c.newEnvelope(env.Kind, env.ID, nil)
		if buildErr != nil {
			return nil, buildErr
		}
		reply.Error = err.Error()
		return &reply, nil
	}
	if result == nil {
		return nil, nil
	}
	reply, err := c.newEnvelope(env.Kind, env.ID, result)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// replyResult unwraps a settled reply envelope into payload bytes.
func replyResult(env Envelope) (json.RawMessage, error) {
	if env.Error != "" {
		return nil, fmt.Errorf("transport: %s: %s", env.Kind, env.Error)
	}
	return env.Data, nil
}
