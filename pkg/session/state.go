package session

// State is the lifecycle state of a session.
type State int32

// Session lifecycle states. Transitions only move forward:
// Handshaking -> Negotiating -> Active -> Draining -> Closed.
const (
	StateHandshaking State = iota
	StateNegotiating
	StateActive
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "Handshaking"
	case StateNegotiating:
		return "Negotiating"
	case StateActive:
		return "Active"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Invalid"
	}
}
