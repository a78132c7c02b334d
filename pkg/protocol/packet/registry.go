package packet

import "github.com/joelkoen/picolimbo/pkg/protocol/ids"

// serverbound maps (state, canonical name) to a constructor for the
// packets the dispatcher decodes. Packets present in a version's report
// but absent here are legal and ignored; ids missing from the report are
// a protocol error.
var serverbound = map[ids.State]map[string]func() Packet{
	ids.StateHandshake: {
		"minecraft:intention": func() Packet { return &Intention{} },
	},
	ids.StateStatus: {
		"minecraft:status_request": func() Packet { return &StatusRequest{} },
		"minecraft:ping_request":   func() Packet { return &PingRequest{} },
	},
	ids.StateLogin: {
		"minecraft:hello":               func() Packet { return &Hello{} },
		"minecraft:custom_query_answer": func() Packet { return &CustomQueryAnswer{} },
		"minecraft:login_acknowledged":  func() Packet { return &LoginAcknowledged{} },
	},
	ids.StateConfiguration: {
		"minecraft:client_information":   func() Packet { return &ClientInformation{} },
		"minecraft:custom_payload":       func() Packet { return &CustomPayload{} },
		"minecraft:finish_configuration": func() Packet { return &FinishConfiguration{} },
		"minecraft:select_known_packs":   func() Packet { return &SelectKnownPacks{} },
	},
	ids.StatePlay: {
		"minecraft:accept_teleportation": func() Packet { return &AcceptTeleportation{} },
		"minecraft:keep_alive":           func() Packet { return &KeepAlive{} },
		"minecraft:move_player_pos":      func() Packet { return &MovePlayerPos{} },
		"minecraft:move_player_pos_rot":  func() Packet { return &MovePlayerPosRot{} },
	},
}

// NewServerbound returns a fresh packet for (state, name), or nil if the
// packet is accepted but not modeled.
func NewServerbound(s ids.State, name string) Packet {
	// Transfer shares the login packet set.
	if s == ids.StateTransfer {
		s = ids.StateLogin
	}
	ctor, ok := serverbound[s][name]
	if !ok {
		return nil
	}
	return ctor()
}
