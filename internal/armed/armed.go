// Package armed holds the process-wide armed/disarmed switch.
//
// While armed, event-triggered relays are suppressed. Manual relays ignore it.
// The zero value is disarmed and the state is lost on restart.
package armed

import "sync/atomic"

type State struct {
	armed atomic.Bool
}

func (s *State) Armed() bool {
	return s.armed.Load()
}

func (s *State) Arm() {
	s.armed.Store(true)
}

func (s *State) Disarm() {
	s.armed.Store(false)
}

// Set stores v and returns the previous value.
func (s *State) Set(v bool) bool {
	return s.armed.Swap(v)
}

func (s *State) String() string {
	if s.Armed() {
		return "armed"
	}
	return "disarmed"
}
