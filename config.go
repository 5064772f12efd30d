package nativecheckout

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the endpoints and application identity the handoff needs.
// Values can be populated directly or loaded from the environment with
// [ConfigFromEnv].
type Config struct {
	// SocketURL is the realtime message endpoint.
	SocketURL string `env:"NATIVE_SOCKET_URL" envDefault:"wss://checkout.nativecheckout.dev/v1/socket" validate:"required,socket_url"`
	// FallbackURL is the request/response message endpoint used when the
	// realtime transport is unavailable.
	FallbackURL string `env:"NATIVE_FALLBACK_URL" envDefault:"https://checkout.nativecheckout.dev/v1/messages" validate:"required,url"`
	// AuthURL issues facilitator access tokens.
	AuthURL string `env:"NATIVE_AUTH_URL" envDefault:"https://api.nativecheckout.dev/v1/oauth2/token" validate:"required,url"`
	// ExperienceURL is the native checkout experience the browser
	// navigates to, with the session identifier attached as a query
	// parameter.
	ExperienceURL string `env:"NATIVE_EXPERIENCE_URL" envDefault:"https://checkout.nativecheckout.dev/native/checkout" validate:"required,url"`
	// AppName and AppVersion identify the integrating application on the
	// channel handshake.
	AppName    string `env:"NATIVE_APP_NAME" envDefault:"web-checkout" validate:"required"`
	AppVersion string `env:"NATIVE_APP_VERSION" envDefault:"0.0.0" validate:"required"`
}

// ConfigFromEnv loads and validates the configuration from NATIVE_*
// environment variables, with production defaults for anything unset.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("nativecheckout: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the endpoint URLs and application identity.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}
