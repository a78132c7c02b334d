package server

import "errors"

var (
	// ErrInvalidTransition rejects a state change the machine does not
	// allow (e.g. Status to Play).
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownPacket marks a packet id absent from the session
	// version's report for the current state. Fatal to the session.
	ErrUnknownPacket = errors.New("unknown packet id for state")

	// ErrIllegalNextState rejects an intention next-state outside 1..3.
	ErrIllegalNextState = errors.New("illegal handshake next state")

	// ErrProtocolSet rejects a second attempt to set the session's
	// protocol version.
	ErrProtocolSet = errors.New("protocol version already set")

	// ErrSessionClosed is returned by sends after the session closed.
	ErrSessionClosed = errors.New("session closed")
)
