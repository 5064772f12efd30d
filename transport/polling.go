package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// PollingChannel is the fallback channel implementation. Outgoing messages
// are POSTed to the endpoint, which answers each request with its reply
// envelope in the response body. Incoming messages are fetched by polling.
type PollingChannel struct {
	core

	closeOnce sync.Once
	done      chan struct{}

	// cursor advances past messages already fetched.
	cursor int64
}

var _ Channel = (*PollingChannel)(nil)

// NewPollingChannel builds the fallback channel. Unlike the realtime
// channel, no connection is established up front.
func NewPollingChannel(cfg Config) *PollingChannel {
	return &PollingChannel{
		core: newCore(cfg),
		done: make(chan struct{}),
	}
}

// Request POSTs the envelope and decodes the reply from the response body.
func (c *PollingChannel) Request(ctx context.Context, kind string, payload any) (json.RawMessage, error) {
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}
	env, err := c.newEnvelope(kind, "", payload)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	reply, err := c.post(ctx, env)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, fmt.Errorf("transport: %s: empty reply", kind)
	}
	if err := c.verify(ctx, *reply); err != nil {
		return nil, err
	}
	return replyResult(*reply)
}

// Listen polls the endpoint for messages addressed to this session and
// dispatches them in arrival order.
func (c *PollingChannel) Listen(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-ticker.C:
		}
		envelopes, err := c.poll(ctx)
		if err != nil {
			c.logger.Warn("poll failed",
				slog.String("session", c.cfg.SessionID),
				slog.String("error", err.Error()))
			continue
		}
		for _, env := range envelopes {
			if env.ReplyTo != "" && c.settle(env) {
				continue
			}
			reply, err := c.dispatch(ctx, env)
			if err != nil {
				c.logger.Warn("message dispatch failed",
					slog.String("kind", env.Kind),
					slog.String("error", err.Error()))
				continue
			}
			if reply == nil {
				continue
			}
			if _, err := c.post(ctx, *reply); err != nil {
				c.logger.Warn("reply post failed",
					slog.String("kind", env.Kind),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Close stops the poll loop. The endpoint holds no per-connection state, so
// there is nothing to tear down remotely.
func (c *PollingChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *PollingChannel) post(ctx context.Context, env Envelope) (*Envelope, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(nil), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setIdentityHeaders(req)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: post %s: %w", env.Kind, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transport: post %s: endpoint returned %s: %s", env.Kind, resp.Status, bytes.TrimSpace(snippet))
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	var reply Envelope
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("transport: decode %s reply: %w", env.Kind, err)
	}
	return &reply, nil
}

func (c *PollingChannel) poll(ctx context.Context) ([]Envelope, error) {
	query := url.Values{}
	query.Set("cursor", strconv.FormatInt(c.cursor, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messagesURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("transport: build poll request: %w", err)
	}
	c.setIdentityHeaders(req)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transport: poll: endpoint returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	var envelopes []Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelopes); err != nil {
		return nil, fmt.Errorf("transport: decode poll body: %w", err)
	}
	c.cursor += int64(len(envelopes))
	return envelopes, nil
}

func (c *PollingChannel) messagesURL(query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("session_uid", c.cfg.SessionID)
	return c.cfg.URL + "?" + query.Encode()
}

func (c *PollingChannel) setIdentityHeaders(req *http.Request) {
	req.Header.Set("X-Session-UID", c.cfg.SessionID)
	req.Header.Set("X-App-Name", c.cfg.AppName)
	req.Header.Set("X-App-Version", c.cfg.AppVersion)
}
