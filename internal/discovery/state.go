package discovery

import "fmt"

// State is the lifecycle position of one discovery activation.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateFound
	StateConfirming
	StateReported
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateFound:
		return "found"
	case StateConfirming:
		return "confirming"
	case StateReported:
		return "reported"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateReported || s == StateCancelled
}

// Active reports whether the activation is still working towards a result,
// which is when an "awaiting message" indicator should be shown.
func (s State) Active() bool {
	return s == StatePolling || s == StateFound || s == StateConfirming
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for candidate := StateIdle; candidate <= StateCancelled; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown discovery state %q", text)
}
