package nativecheckout

import "sync"

// State carries the two flags that persist for the page lifetime: whether a
// native app has been detected, and whether the realtime transport is still
// considered available. It is passed explicitly to the eligibility check and
// the socket provider instead of living in package globals, so tests and
// concurrent hosts can own their own instance.
type State struct {
	mu                sync.Mutex
	installed         bool
	realtimeAvailable bool
}

// NewState returns the initial page state: app not detected, realtime
// transport preferred.
func NewState() *State {
	return &State{realtimeAvailable: true}
}

// Installed reports whether a detection probe has succeeded this page lifetime.
func (s *State) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// SetInstalled records the detection outcome.
func (s *State) SetInstalled(installed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installed = installed
}

// RealtimeAvailable reports whether fresh channel construction should still
// prefer the realtime transport.
func (s *State) RealtimeAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realtimeAvailable
}

// SetRealtimeAvailable flips the transport preference. Once set false after
// a failed probe it is never set true again within a page lifetime.
func (s *State) SetRealtimeAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realtimeAvailable = available
}
