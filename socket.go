package nativecheckout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/smodnix/nativecheckout/transport"
)

// SocketProvider lazily builds exactly one message channel per page session
// and memoizes it together with its session identifier. The transport choice
// is frozen at first construction: if the detector downgrades the realtime
// transport afterwards, the already-built channel keeps running and only a
// provider that has not built its channel yet picks the fallback.
type SocketProvider struct {
	state *State
	conf  Config
	cfg   config

	mu        sync.Mutex
	channel   transport.Channel
	sessionID string

	// Injectable constructors so tests can substitute channels.
	dialRealtime func(ctx context.Context, cfg transport.Config) (transport.Channel, error)
	newFallback  func(cfg transport.Config) transport.Channel
}

// NewSocketProvider builds a provider bound to the given page state.
func NewSocketProvider(state *State, conf Config, opts ...Option) *SocketProvider {
	return &SocketProvider{
		state: state,
		conf:  conf,
		cfg:   newConfig(opts...),
		dialRealtime: func(ctx context.Context, cfg transport.Config) (transport.Channel, error) {
			return transport.DialWebSocket(ctx, cfg)
		},
		newFallback: func(cfg transport.Config) transport.Channel {
			return transport.NewPollingChannel(cfg)
		},
	}
}

// Socket returns the memoized channel and session identifier, creating them
// on first use. The channel's listener is started in the background and runs
// for the page lifetime.
func (p *SocketProvider) Socket(ctx context.Context) (transport.Channel, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		return p.channel, p.sessionID, nil
	}

	sessionID := uuid.New().String()
	tc := transport.Config{
		SessionID:      sessionID,
		AppName:        p.conf.AppName,
		AppVersion:     p.conf.AppVersion,
		RequestTimeout: p.cfg.requestTimeout,
		Logger:         p.cfg.logger,
		Signer:         p.cfg.signer,
		Verifier:       p.cfg.verifier,
		HTTPClient:     p.cfg.httpClient,
		Clock:          p.cfg.clock,
	}

	var ch transport.Channel
	if p.state.RealtimeAvailable() {
		tc.URL = p.conf.SocketURL
		realtime, err := p.dialRealtime(ctx, tc)
		if err != nil {
			return nil, "", NewTransportError(TransportUnavailable, "realtime channel unavailable", WithCause(err))
		}
		ch = realtime
	} else {
		tc.URL = p.conf.FallbackURL
		ch = p.newFallback(tc)
	}

	p.channel = ch
	p.sessionID = sessionID
	p.cfg.logger.Debug("message channel created",
		slog.String("session", sessionID),
		slog.String("url", tc.URL))

	go func() {
		if err := ch.Listen(context.Background()); err != nil {
			p.cfg.logger.Warn("channel listener stopped",
				slog.String("session", sessionID),
				slog.String("error", err.Error()))
		}
	}()

	return ch, sessionID, nil
}

// Reset closes and forgets the memoized channel so the next Socket call
// builds a fresh one. Intended for tests and page teardown.
func (p *SocketProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	p.channel = nil
	p.sessionID = ""
}
