package nativecheckout

import (
	"context"
	"testing"

	"github.com/smodnix/nativecheckout/transport"
)

func testConfig() Config {
	return Config{
		SocketURL:     "wss://checkout.test/v1/socket",
		FallbackURL:   "https://checkout.test/v1/messages",
		AuthURL:       "https://api.test/v1/oauth2/token",
		ExperienceURL: "https://checkout.test/native/checkout",
		AppName:       "web-checkout",
		AppVersion:    "1.2.3",
	}
}

// fakeProvider builds a provider whose channel constructors are replaced by
// stubs, counting which transport was chosen.
func fakeProvider(state *State, realtime, fallback *stubChannel) (*SocketProvider, *int, *int) {
	provider := NewSocketProvider(state, testConfig())
	realtimeDials := 0
	fallbackBuilds := 0
	provider.dialRealtime = func(ctx context.Context, cfg transport.Config) (transport.Channel, error) {
		realtimeDials++
		realtime.sessionID = cfg.SessionID
		return realtime, nil
	}
	provider.newFallback = func(cfg transport.Config) transport.Channel {
		fallbackBuilds++
		fallback.sessionID = cfg.SessionID
		return fallback
	}
	return provider, &realtimeDials, &fallbackBuilds
}

func TestSocketProviderMemoizes(t *testing.T) {
	t.Parallel()

	provider, realtimeDials, _ := fakeProvider(NewState(), newStubChannel(), newStubChannel())

	first, firstID, err := provider.Socket(context.Background())
	if err != nil {
		t.Fatalf("first socket: %v", err)
	}
	second, secondID, err := provider.Socket(context.Background())
	if err != nil {
		t.Fatalf("second socket: %v", err)
	}
	if first != second {
		t.Fatal("expected the identical channel on both calls")
	}
	if firstID != secondID {
		t.Fatalf("session identifiers differ: %s vs %s", firstID, secondID)
	}
	if firstID == "" {
		t.Fatal("expected a generated session identifier")
	}
	if *realtimeDials != 1 {
		t.Fatalf("expected 1 realtime dial got %d", *realtimeDials)
	}
}

func TestSocketProviderPrefersRealtime(t *testing.T) {
	t.Parallel()

	provider, realtimeDials, fallbackBuilds := fakeProvider(NewState(), newStubChannel(), newStubChannel())
	if _, _, err := provider.Socket(context.Background()); err != nil {
		t.Fatalf("socket: %v", err)
	}
	if *realtimeDials != 1 || *fallbackBuilds != 0 {
		t.Fatalf("expected realtime transport, got dials=%d fallbacks=%d", *realtimeDials, *fallbackBuilds)
	}
}

func TestSocketProviderFallsBackAfterDowngrade(t *testing.T) {
	t.Parallel()

	state := NewState()
	state.SetRealtimeAvailable(false)
	provider, realtimeDials, fallbackBuilds := fakeProvider(state, newStubChannel(), newStubChannel())
	if _, _, err := provider.Socket(context.Background()); err != nil {
		t.Fatalf("socket: %v", err)
	}
	if *realtimeDials != 0 || *fallbackBuilds != 1 {
		t.Fatalf("expected fallback transport, got dials=%d fallbacks=%d", *realtimeDials, *fallbackBuilds)
	}
}

func TestSocketProviderTransportChoiceIsFrozen(t *testing.T) {
	t.Parallel()

	state := NewState()
	realtime := newStubChannel()
	provider, _, fallbackBuilds := fakeProvider(state, realtime, newStubChannel())

	ch, _, err := provider.Socket(context.Background())
	if err != nil {
		t.Fatalf("socket: %v", err)
	}
	// A downgrade after construction must not touch the memoized channel.
	state.SetRealtimeAvailable(false)
	again, _, err := provider.Socket(context.Background())
	if err != nil {
		t.Fatalf("socket after downgrade: %v", err)
	}
	if again != ch {
		t.Fatal("memoized channel replaced after downgrade")
	}
	if *fallbackBuilds != 0 {
		t.Fatal("fallback built despite memoized realtime channel")
	}

	// A provider that has not built its channel yet picks the fallback.
	fresh, _, fallbacks := fakeProvider(state, newStubChannel(), newStubChannel())
	if _, _, err := fresh.Socket(context.Background()); err != nil {
		t.Fatalf("fresh socket: %v", err)
	}
	if *fallbacks != 1 {
		t.Fatal("fresh provider did not pick the fallback transport")
	}
}

func TestSocketProviderReset(t *testing.T) {
	t.Parallel()

	realtime := newStubChannel()
	provider, realtimeDials, _ := fakeProvider(NewState(), realtime, newStubChannel())
	_, firstID, err := provider.Socket(context.Background())
	if err != nil {
		t.Fatalf("socket: %v", err)
	}
	provider.Reset()
	if !realtime.closed {
		t.Fatal("reset did not close the memoized channel")
	}
	_, secondID, err := provider.Socket(context.Background())
	if err != nil {
		t.Fatalf("socket after reset: %v", err)
	}
	if firstID == secondID {
		t.Fatal("expected a fresh session identifier after reset")
	}
	if *realtimeDials != 2 {
		t.Fatalf("expected 2 dials got %d", *realtimeDials)
	}
}
