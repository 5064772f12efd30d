// Package nativecheckout brokers the handoff between a web checkout flow and
// a native mobile payment application. It decides whether a handoff should be
// attempted, opens a message channel to the native checkout experience, and
// relays approval, cancellation, and error events to application callbacks.
//
// # Eligibility
//
// [Eligible] is a pure predicate over the hosting page's context (platform,
// funding source, registered callbacks, feature flag) plus the shared
// [State], which remembers whether a native app was detected earlier in the
// page lifetime.
//
// # Channel
//
// [SocketProvider] lazily builds exactly one message channel per page
// session, preferring the realtime WebSocket transport and falling back to a
// request/response polling transport once [Detector] observes a probe
// failure. All callers share the memoized channel and session identifier.
//
// # Handoff
//
// [Session.Start] concurrently issues the facilitator access token, creates
// the order, and resolves the page URL, registers handlers for the messages
// the native app sends back, and navigates the browsing context to the
// native checkout experience. The flow then proceeds entirely through
// channel messages: the native side fetches session properties once and
// reports approve/cancel/error events zero or more times.
package nativecheckout
