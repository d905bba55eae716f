package connection

import "fmt"

// State is the connection lifecycle state of a Manager.
type State int

const (
	StateUnknown State = iota
	// StateConnected means a session is established and dispatchable.
	StateConnected
	// StateReconnecting means the session was lost and exactly one
	// background attempt to replace it is running.
	StateReconnecting
	// StateDisconnected means reconnection exhausted its retries. The
	// state is terminal: the manager stays unusable until discarded.
	StateDisconnected
)

func (state State) String() string {
	switch state {
	case StateUnknown:
		return "Unknown"
	case StateConnected:
		return "Connected"
	case StateReconnecting:
		return "Reconnecting"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "InvalidState"
	}
}

func (s State) validateTransitionTo(newState State) error {
	switch s {
	case StateConnected:
		if newState == StateReconnecting {
			return nil
		}
	case StateReconnecting:
		switch newState {
		case StateConnected, StateDisconnected:
			return nil
		}
	}

	return fmt.Errorf("invalid state transition from %v to %v", s, newState)
}
