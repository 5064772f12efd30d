package nativecheckout

import "testing"

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}
	if cfg.SocketURL == "" || cfg.FallbackURL == "" || cfg.AuthURL == "" || cfg.ExperienceURL == "" {
		t.Fatalf("defaults missing: %+v", cfg)
	}
	if cfg.AppName != "web-checkout" {
		t.Fatalf("unexpected app name %s", cfg.AppName)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("NATIVE_SOCKET_URL", "wss://staging.test/socket")
	t.Setenv("NATIVE_APP_NAME", "staging-checkout")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}
	if cfg.SocketURL != "wss://staging.test/socket" {
		t.Fatalf("override lost: %s", cfg.SocketURL)
	}
	if cfg.AppName != "staging-checkout" {
		t.Fatalf("override lost: %s", cfg.AppName)
	}
}

func TestConfigRejectsNonSocketURL(t *testing.T) {
	t.Setenv("NATIVE_SOCKET_URL", "https://not-a-socket.test")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected https socket URL to be rejected")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	broken := cfg
	broken.ExperienceURL = "not a url"
	if err := broken.Validate(); err == nil {
		t.Fatal("expected invalid experience URL to be rejected")
	}
}
