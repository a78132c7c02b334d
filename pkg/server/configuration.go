package server

import (
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// beginConfiguration runs the server-driven configuration stream: brand,
// known packs (1.20.5+), registry data, finish. The client's answers to
// known_packs and client_information are accepted and ignored; only its
// finish_configuration echo advances the state.
func (srv *Server) beginConfiguration(s *Session) error {
	v := s.Protocol()

	if err := s.Send(packet.BrandPayload(srv.cfg.Brand)); err != nil {
		return err
	}

	if v.AtLeast(version.V1_20_5) {
		if err := s.Send(&packet.SelectKnownPacks{
			Packs: []packet.KnownPack{
				{Namespace: "minecraft", ID: "core", Version: v.Name()},
			},
		}); err != nil {
			return err
		}
		for _, p := range srv.registries.PerRegistryPackets(v) {
			if err := s.Send(p); err != nil {
				return err
			}
		}
	} else {
		if err := s.Send(&packet.RegistryData{
			Codec: srv.registries.MonolithicCodec(v),
		}); err != nil {
			return err
		}
	}

	return s.Send(&packet.FinishConfiguration{})
}

// onFinishConfiguration is the client's acknowledgement; the session
// enters play and receives the join sequence.
func (srv *Server) onFinishConfiguration(s *Session, p packet.Packet) error {
	if err := s.SetState(ids.StatePlay); err != nil {
		return err
	}
	return srv.joinPlay(s)
}
