// Package ids models packet identity: the connection state and direction a
// packet belongs to, its canonical name, and the per-version numeric id
// assigned by the packet reports bundled in the asset directory.
//
// Canonical names ("minecraft:intention") are stable across versions;
// numeric ids are not and must always be resolved through a Table.
package ids

import "fmt"

// State is a connection state. It determines which packets are legal and
// which id namespace applies.
type State uint8

const (
	StateHandshake State = iota
	StateStatus
	StateLogin
	StateConfiguration
	StatePlay
	StateTransfer
)

// String returns the report-file key for the state. Transfer shares the
// login id namespace.
func (s State) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StateConfiguration:
		return "configuration"
	case StatePlay:
		return "play"
	case StateTransfer:
		return "login"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Direction tells which peer sends a packet.
type Direction uint8

const (
	Serverbound Direction = iota
	Clientbound
)

// String returns the report-file key for the direction.
func (d Direction) String() string {
	if d == Clientbound {
		return "clientbound"
	}
	return "serverbound"
}
