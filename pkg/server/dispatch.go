package server

import (
	"fmt"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// handler executes the transition for one decoded packet.
type handler func(s *Session, p packet.Packet) error

// handlers is the per-(state, canonical name) transition table. A name
// missing here but present in the session version's report is accepted
// and ignored; an id missing from the report is a protocol error.
func (srv *Server) handlers() map[ids.State]map[string]handler {
	return map[ids.State]map[string]handler{
		ids.StateHandshake: {
			"minecraft:intention": srv.onIntention,
		},
		ids.StateStatus: {
			"minecraft:status_request": srv.onStatusRequest,
			"minecraft:ping_request":   srv.onPingRequest,
		},
		ids.StateLogin: {
			"minecraft:hello":               srv.onHello,
			"minecraft:custom_query_answer": srv.onCustomQueryAnswer,
			"minecraft:login_acknowledged":  srv.onLoginAcknowledged,
		},
		ids.StateConfiguration: {
			"minecraft:finish_configuration": srv.onFinishConfiguration,
		},
		ids.StatePlay: {
			"minecraft:keep_alive":          srv.onKeepAlive,
			"minecraft:move_player_pos":     srv.onMovePlayerPos,
			"minecraft:move_player_pos_rot": srv.onMovePlayerPosRot,
			"minecraft:accept_teleportation": func(*Session, packet.Packet) error {
				// Teleport confirmations need no reaction.
				return nil
			},
		},
	}
}

// dispatch decodes one inbound frame for the session's state and runs
// its handler. Unknown ids and decode failures are fatal to the session.
func (srv *Server) dispatch(s *Session, frame []byte) error {
	r := codec.NewReader(frame)
	id, err := r.ReadVarInt()
	if err != nil {
		return err
	}

	state := s.State()
	v := s.Protocol()
	if state == ids.StateHandshake {
		// The handshake arrives before the version is known; its id is
		// 0 on every version, so resolve it against the oldest report.
		v = version.Oldest()
	}

	name, ok := srv.table.PacketName(v, state, ids.Serverbound, id)
	if !ok {
		return fmt.Errorf("%w: id %#x in %s", ErrUnknownPacket, id, state)
	}

	p := packet.NewServerbound(state, name)
	if p == nil {
		// Known to the report but not modeled: legal, ignored.
		logger.DebugCtx(s.ctx, "packet ignored", logger.KeyPacket, name)
		return nil
	}

	if err := packet.Decode(p, r, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	logger.DebugCtx(s.ctx, "packet received",
		logger.KeyPacket, name,
		logger.KeySize, len(frame),
	)

	// Transfer shares the login packet set and handlers.
	if state == ids.StateTransfer {
		state = ids.StateLogin
	}
	h, ok := srv.dispatchTable[state][name]
	if !ok {
		return nil
	}
	return h(s, p)
}
