package server

import (
	"fmt"
	"time"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/forwarding"
	"github.com/joelkoen/picolimbo/pkg/profile"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

const forwardingRejected = "Invalid proxy forwarding"

// onIntention handles the first packet of every connection: record the
// protocol version and move to the requested state.
func (srv *Server) onIntention(s *Session, p packet.Packet) error {
	in := p.(*packet.Intention)

	if err := s.setProtocol(version.FromNumber(in.Protocol)); err != nil {
		return err
	}
	s.mu.Lock()
	s.requested = in.Protocol
	s.hostname = in.Hostname
	s.mu.Unlock()

	switch in.NextState {
	case packet.NextStateStatus:
		return s.SetState(ids.StateStatus)
	case packet.NextStateLogin:
		return s.SetState(ids.StateLogin)
	case packet.NextStateTransfer:
		s.mu.Lock()
		s.resumed = true
		s.mu.Unlock()
		return s.SetState(ids.StateTransfer)
	default:
		return fmt.Errorf("%w: %d", ErrIllegalNextState, in.NextState)
	}
}

// onHello handles login start. Depending on the forwarding mode this
// either opens the velocity exchange or completes the login directly.
func (srv *Server) onHello(s *Session, p packet.Packet) error {
	hello := p.(*packet.Hello)

	if srv.velocity != nil {
		id := srv.nextQueryID()
		s.mu.Lock()
		s.velocityID = id
		s.mu.Unlock()
		return s.Send(&packet.CustomQuery{
			MessageID: id,
			Channel:   forwarding.VelocityChannel,
		})
	}

	if srv.bungee != nil {
		s.mu.Lock()
		hostname := s.hostname
		s.mu.Unlock()
		prof, forwarded, err := srv.bungee.Parse(hostname, hello.Username)
		if err != nil {
			srv.metrics.RecordLoginFailure("forwarding")
			logger.WarnCtx(s.ctx, "forwarding rejected", logger.KeyError, err.Error())
			s.Disconnect(forwardingRejected)
			return nil
		}
		if forwarded {
			return srv.finishLogin(s, prof)
		}
	}

	// No forwarding: the client-sent UUID wins; a zero UUID falls back
	// to the offline derivation inside profile.New.
	return srv.finishLogin(s, profile.New(hello.Username, hello.PlayerUUID))
}

// onCustomQueryAnswer handles the velocity forwarding response.
func (srv *Server) onCustomQueryAnswer(s *Session, p packet.Packet) error {
	answer := p.(*packet.CustomQueryAnswer)

	s.mu.Lock()
	pending := s.velocityID
	s.velocityID = -1
	s.mu.Unlock()

	if srv.velocity == nil || pending < 0 || answer.MessageID != pending {
		return fmt.Errorf("%w: unsolicited query answer", ErrUnknownPacket)
	}
	if !answer.Successful || len(answer.Data) == 0 {
		srv.metrics.RecordLoginFailure("forwarding")
		s.Disconnect(forwardingRejected)
		return nil
	}

	prof, err := srv.velocity.Verify(answer.Data)
	if err != nil {
		srv.metrics.RecordLoginFailure("forwarding")
		logger.WarnCtx(s.ctx, "forwarding rejected", logger.KeyError, err.Error())
		s.Disconnect(forwardingRejected)
		return nil
	}
	return srv.finishLogin(s, prof)
}

// finishLogin enables compression, sends the login success form for the
// session's version, and for pre-1.20.2 clients jumps straight to play.
func (srv *Server) finishLogin(s *Session, prof profile.Profile) error {
	s.setProfile(prof)
	v := s.Protocol()

	if srv.cfg.Compression.Enabled {
		if err := s.Send(&packet.LoginCompression{
			Threshold: int32(srv.cfg.Compression.Threshold),
		}); err != nil {
			return err
		}
		s.frame.EnableCompression(srv.cfg.Compression.Threshold)
	}

	var success packet.Packet
	if v.AtLeast(version.V1_21_2) {
		success = &packet.LoginFinished{
			UUID:       prof.UUID,
			Username:   prof.Username,
			Properties: prof.Properties,
		}
	} else {
		success = &packet.GameProfile{
			UUID:       prof.UUID,
			Username:   prof.Username,
			Properties: prof.Properties,
		}
	}
	if err := s.Send(success); err != nil {
		return err
	}

	logger.InfoCtx(s.ctx, "login complete",
		logger.KeyUUID, prof.UUID.String(),
	)
	srv.metrics.ObserveLoginDuration(time.Since(s.started).Seconds())

	if v.AtLeast(version.V1_20_2) {
		// Await login_acknowledged; configuration follows.
		return nil
	}
	if err := s.SetState(ids.StatePlay); err != nil {
		return err
	}
	return srv.joinPlay(s)
}

// onLoginAcknowledged moves a 1.20.2+ session into configuration and
// starts the server-driven configuration stream.
func (srv *Server) onLoginAcknowledged(s *Session, p packet.Packet) error {
	if _, ok := s.Profile(); !ok {
		return fmt.Errorf("%w: login_acknowledged before login success", ErrUnknownPacket)
	}
	if err := s.SetState(ids.StateConfiguration); err != nil {
		return err
	}
	return srv.beginConfiguration(s)
}
