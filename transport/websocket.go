package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketChannel is the realtime channel implementation on top of a
// single WebSocket connection.
type WebSocketChannel struct {
	core

	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

var _ Channel = (*WebSocketChannel)(nil)

// DialWebSocket connects the realtime channel. The session identifier and
// application name/version travel as handshake headers so the native side
// can correlate the connection before the first message arrives.
func DialWebSocket(ctx context.Context, cfg Config) (*WebSocketChannel, error) {
	c := &WebSocketChannel{
		core: newCore(cfg),
		done: make(chan struct{}),
	}
	header := http.Header{}
	header.Set("X-Session-UID", c.cfg.SessionID)
	header.Set("X-App-Name", c.cfg.AppName)
	header.Set("X-App-Version", c.cfg.AppVersion)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial %s: %s: %w", c.cfg.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", c.cfg.URL, err)
	}
	c.conn = conn
	c.logger.Debug("websocket channel connected",
		slog.String("url", c.cfg.URL),
		slog.String("session", c.cfg.SessionID))
	return c, nil
}

// Request sends an envelope and waits for the correlated reply. Listen must
// be running for the reply to be routed back.
func (c *WebSocketChannel) Request(ctx context.Context, kind string, payload any) (json.RawMessage, error) {
	env, err := c.newEnvelope(kind, "", payload)
	if err != nil {
		return nil, err
	}
	replyCh := c.awaitReply(env.ID)
	defer c.forgetReply(env.ID)

	if err := c.write(env); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	select {
	case reply := <-replyCh:
		return replyResult(reply)
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("transport: %s: %w", kind, ctx.Err())
	}
}

// Listen reads envelopes until the connection closes or ctx is cancelled.
// Replies settle pending requests; everything else runs through the
// registered handlers, one message at a time.
func (c *WebSocketChannel) Listen(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("discarding malformed envelope",
				slog.String("session", c.cfg.SessionID),
				slog.String("error", err.Error()))
			continue
		}
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
		if err := c.write(*reply); err != nil {
			c.logger.Warn("reply write failed",
				slog.String("kind", env.Kind),
				slog.String("error", err.Error()))
		}
	}
}

func (c *WebSocketChannel) write(env Envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("transport: write %s: %w", env.Kind, err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (c *WebSocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
