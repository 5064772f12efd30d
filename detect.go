package nativecheckout

import (
	"context"
	"log/slog"
)

// Detector probes the message channel for an installed native app.
type Detector struct {
	provider *SocketProvider
	state    *State
	platform Platform
	enabled  bool
	cfg      config
}

// NewDetector builds a detector. platform and enabled mirror the hosting
// page's context: detection only runs on mobile with the native checkout
// feature flag set.
func NewDetector(provider *SocketProvider, state *State, platform Platform, enabled bool, opts ...Option) *Detector {
	return &Detector{
		provider: provider,
		state:    state,
		platform: platform,
		enabled:  enabled,
		cfg:      newConfig(opts...),
	}
}

// Detect sends the detection probe and reports whether a native app
// answered. Probe failures are recovered locally: the realtime transport is
// marked unavailable so channels built later pick the fallback, and the
// failure is never surfaced to the caller. The channel memoized before the
// failure keeps its original transport.
func (d *Detector) Detect(ctx context.Context) bool {
	if d.platform != PlatformMobile || !d.enabled {
		return false
	}

	ch, sessionID, err := d.provider.Socket(ctx)
	if err != nil {
		d.markFailed("", err)
		return false
	}

	if _, err := ch.Request(ctx, string(MessageDetectApp), nil); err != nil {
		d.markFailed(sessionID, err)
		return false
	}

	d.state.SetInstalled(true)
	d.cfg.logger.Info("native app detected",
		slog.String("session", sessionID))
	if d.cfg.metrics != nil {
		d.cfg.metrics.DetectAttempts.WithLabelValues("success").Inc()
	}
	return true
}

func (d *Detector) markFailed(sessionID string, err error) {
	d.state.SetRealtimeAvailable(false)
	d.cfg.logger.Info("native app not detected",
		slog.String("session", sessionID),
		slog.String("error", err.Error()))
	if d.cfg.metrics != nil {
		d.cfg.metrics.DetectAttempts.WithLabelValues("failure").Inc()
	}
}
