package nativecheckout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/smodnix/nativecheckout/transport"
)

// Navigator moves the top-level browsing context to the native checkout
// experience. It is supplied by the hosting page.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc lifts bare functions into [Navigator].
type NavigatorFunc func(ctx context.Context, url string) error

// Navigate delegates to the wrapped function.
func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Restarter re-runs the entire handoff flow, reusing the memoized channel.
// It is handed to the approval callback so a retried payment can start over.
type Restarter interface {
	Restart(ctx context.Context) error
}

// Callbacks supply the application hooks invoked as the native experience
// progresses. CreateOrder and PageURL are required; the event callbacks are
// optional.
type Callbacks struct {
	// CreateOrder creates the order and returns its identifier.
	CreateOrder func(ctx context.Context) (string, error)
	// PageURL resolves the URL of the page hosting the checkout button.
	PageURL func(ctx context.Context) (string, error)
	// OnApprove is invoked when the buyer approves the payment in the
	// native app. Errors returned here travel back to the native side.
	OnApprove func(ctx context.Context, approval ApprovalEvent, restart Restarter) error
	// OnCancel is invoked when the buyer abandons the native flow.
	OnCancel func(ctx context.Context) error
	// OnError receives business failures reported by the native app.
	OnError func(ctx context.Context, err error)
}

// Session orchestrates one handoff to the native checkout experience.
type Session struct {
	provider  *SocketProvider
	issuer    TokenIssuer
	clientID  string
	callbacks Callbacks
	cfg       config
}

// NewSession builds a session for the given client identifier. The provider
// supplies the shared channel; the issuer supplies the facilitator access
// token forwarded to the native app.
func NewSession(provider *SocketProvider, issuer TokenIssuer, clientID string, callbacks Callbacks, opts ...Option) *Session {
	return &Session{
		provider:  provider,
		issuer:    issuer,
		clientID:  clientID,
		callbacks: callbacks,
		cfg:       newConfig(opts...),
	}
}

// setupResult collects the outcome of the three concurrent setup operations.
// ready is closed once all three have settled; err holds the first failure.
type setupResult struct {
	ready chan struct{}
	err   error

	token   string
	orderID string
	pageURL string
}

// Start kicks off the handoff: it launches token issuance, order creation,
// and page-URL resolution concurrently, registers the message handlers, and
// navigates the browsing context to the native experience. The flow then
// continues through channel messages, which may arrive at any point after
// navigation. Failures of the three setup operations surface through the
// props reply, not through Start's return value.
func (s *Session) Start(ctx context.Context) error {
	if s.callbacks.CreateOrder == nil {
		return NewProcessingError(OrderCreateFailed, "CreateOrder callback is required")
	}
	if s.callbacks.PageURL == nil {
		return NewProcessingError(PageURLFailed, "PageURL callback is required")
	}
	if s.issuer == nil {
		return NewProcessingError(TokenIssueFailed, "token issuer is required")
	}
	if s.cfg.navigator == nil {
		return NewProcessingError(NavigationFailed, "navigator is required")
	}

	res := &setupResult{ready: make(chan struct{})}
	start := s.cfg.clock()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		token, err := s.issuer.AccessToken(gctx, s.clientID)
		if err != nil {
			return NewProcessingError(TokenIssueFailed, "issue access token", WithCause(err))
		}
		res.token = token
		return nil
	})
	g.Go(func() error {
		orderID, err := s.callbacks.CreateOrder(gctx)
		if err != nil {
			return NewProcessingError(OrderCreateFailed, "create order", WithCause(err))
		}
		res.orderID = orderID
		return nil
	})
	g.Go(func() error {
		pageURL, err := s.callbacks.PageURL(gctx)
		if err != nil {
			return NewProcessingError(PageURLFailed, "resolve page URL", WithCause(err))
		}
		res.pageURL = pageURL
		return nil
	})
	go func() {
		res.err = g.Wait()
		if s.cfg.metrics != nil {
			s.cfg.metrics.SetupDuration.Observe(s.cfg.clock().Sub(start).Seconds())
		}
		close(res.ready)
	}()

	ch, sessionID, err := s.provider.Socket(ctx)
	if err != nil {
		return err
	}
	for kind, fn := range s.handlers(res) {
		ch.Handle(string(kind), s.instrument(kind, sessionID, fn))
	}

	target, err := s.experienceURL(sessionID)
	if err != nil {
		return err
	}
	if err := s.cfg.navigator.Navigate(ctx, target); err != nil {
		return NewProcessingError(NavigationFailed, "navigate to native experience", WithCause(err))
	}
	if s.cfg.metrics != nil {
		s.cfg.metrics.HandoffStarts.Inc()
	}
	s.cfg.logger.Info("handoff started",
		slog.String("session", sessionID))
	return nil
}

// Close exists for interface symmetry with other checkout flows. The native
// flow has nothing to tear down: navigation already moved the browsing
// context away, and the channel lives for the page.
func (s *Session) Close() error {
	return nil
}

// TriggerError hands the given error straight back to the caller. It is the
// fail-fast escape hatch for callers that need to abort: the error is never
// swallowed, wrapped, or retried.
func (s *Session) TriggerError(err error) error {
	return err
}

// handlers builds the dispatch table for the messages the native app sends.
func (s *Session) handlers(res *setupResult) map[MessageKind]transport.HandlerFunc {
	return map[MessageKind]transport.HandlerFunc{
		MessageGetProps:  s.handleGetProps(res),
		MessageOnApprove: s.handleApprove,
		MessageOnCancel:  s.handleCancel,
		MessageOnError:   s.handleError,
	}
}

// handleGetProps answers the native app's property request. It suspends
// until the three setup operations settle, and propagates their first
// failure instead of replying with partial data.
func (s *Session) handleGetProps(res *setupResult) transport.HandlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		select {
		case <-res.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.err != nil {
			return nil, res.err
		}
		props := SessionProps{
			OrderID:                res.orderID,
			FacilitatorAccessToken: res.token,
			PageURL:                res.pageURL,
			Commit:                 s.cfg.commit,
			UserAgent:              s.userAgent(ctx),
		}
		if err := props.Validate(); err != nil {
			return nil, err
		}
		return props, nil
	}
}

func (s *Session) handleApprove(ctx context.Context, data json.RawMessage) (any, error) {
	var payload EventPayload
	if err := payload.UnmarshalJSON(data); err != nil {
		return nil, NewInvalidMessageError("on_approve payload is not valid JSON", WithCause(err))
	}
	approval, err := payload.AsApprovalEvent()
	if err != nil {
		return nil, NewInvalidMessageError("on_approve payload does not match the approval schema", WithCause(err))
	}
	if err := approval.Validate(); err != nil {
		return nil, err
	}
	if s.callbacks.OnApprove == nil {
		return nil, nil
	}
	return nil, s.callbacks.OnApprove(ctx, approval, sessionRestarter{session: s})
}

func (s *Session) handleCancel(ctx context.Context, _ json.RawMessage) (any, error) {
	if s.callbacks.OnCancel == nil {
		return nil, nil
	}
	return nil, s.callbacks.OnCancel(ctx)
}

func (s *Session) handleError(ctx context.Context, data json.RawMessage) (any, error) {
	var payload EventPayload
	if err := payload.UnmarshalJSON(data); err != nil {
		return nil, NewInvalidMessageError("on_error payload is not valid JSON", WithCause(err))
	}
	event, err := payload.AsErrorEvent()
	if err != nil {
		return nil, NewInvalidMessageError("on_error payload does not match the error schema", WithCause(err))
	}
	if s.callbacks.OnError != nil {
		s.callbacks.OnError(ctx, NewCheckoutError(event.Error.Message))
	}
	return nil, nil
}

// instrument counts and logs handler invocations.
func (s *Session) instrument(kind MessageKind, sessionID string, fn transport.HandlerFunc) transport.HandlerFunc {
	return func(ctx context.Context, data json.RawMessage) (any, error) {
		if s.cfg.metrics != nil {
			s.cfg.metrics.MessagesTotal.WithLabelValues(string(kind)).Inc()
		}
		s.cfg.logger.Debug("native message received",
			slog.String("kind", string(kind)),
			slog.String("session", sessionID))
		return fn(ctx, data)
	}
}

// userAgent resolves the client user-agent string, preferring the configured
// accessor over request-scoped client info.
func (s *Session) userAgent(ctx context.Context) string {
	if s.cfg.userAgent != nil {
		if ua := s.cfg.userAgent(); ua != "" {
			return ua
		}
	}
	if info := ClientInfoFromContext(ctx); info != nil {
		return info.UserAgent
	}
	return ""
}

// experienceURL attaches the session identifier to the native checkout
// experience endpoint.
func (s *Session) experienceURL(sessionID string) (string, error) {
	u, err := url.Parse(s.provider.conf.ExperienceURL)
	if err != nil {
		return "", NewProcessingError(NavigationFailed, "parse experience URL", WithCause(err))
	}
	query := u.Query()
	query.Set("sessionUID", sessionID)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// sessionRestarter binds the restart capability handed to the approval
// callback to its session, so a retried payment re-runs the whole flow
// against the same memoized channel.
type sessionRestarter struct {
	session *Session
}

// Restart re-executes [Session.Start].
func (r sessionRestarter) Restart(ctx context.Context) error {
	return r.session.Start(ctx)
}
