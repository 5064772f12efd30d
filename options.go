package nativecheckout

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/smodnix/nativecheckout/signature"
)

type config struct {
	logger         *slog.Logger
	clock          func() time.Time
	httpClient     *http.Client
	metrics        *Metrics
	signer         *signature.Signer
	verifier       signature.Verifier
	requestTimeout time.Duration
	userAgent      func() string
	navigator      Navigator
	commit         bool
}

func newConfig(opts ...Option) config {
	cfg := config{
		logger:     slog.Default(),
		clock:      time.Now,
		httpClient: http.DefaultClient,
		commit:     true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// Option customizes provider, detector, and session behavior.
type Option func(*config)

// WithLogger routes structured logs to the supplied logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client used by the auth client and the
// fallback transport.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) {
		if client != nil {
			cfg.httpClient = client
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithEnvelopeSigner signs every outgoing channel envelope.
func WithEnvelopeSigner(signer *signature.Signer) Option {
	return func(cfg *config) {
		cfg.signer = signer
	}
}

// WithEnvelopeVerifier rejects incoming envelopes with bad signatures.
func WithEnvelopeVerifier(verifier signature.Verifier) Option {
	return func(cfg *config) {
		cfg.verifier = verifier
	}
}

// WithRequestTimeout bounds how long channel requests wait for a reply.
func WithRequestTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		panic("nativecheckout: request timeout must be positive")
	}
	return func(cfg *config) {
		cfg.requestTimeout = timeout
	}
}

// WithUserAgent supplies the client user-agent accessor used in the props
// reply. Without it the session falls back to the [ClientInfo] stored in the
// handler context.
func WithUserAgent(fn func() string) Option {
	return func(cfg *config) {
		cfg.userAgent = fn
	}
}

// WithNavigator supplies the top-level navigation primitive.
func WithNavigator(nav Navigator) Option {
	return func(cfg *config) {
		cfg.navigator = nav
	}
}

// WithCommit controls the commit flag forwarded to the native experience in
// the props reply. Defaults to true.
func WithCommit(commit bool) Option {
	return func(cfg *config) {
		cfg.commit = commit
	}
}

// withClock provides deterministic time in tests.
func withClock(fn func() time.Time) Option {
	return func(cfg *config) {
		cfg.clock = fn
	}
}
