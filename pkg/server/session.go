package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/profile"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// outboundQueueSize bounds the per-session write queue. Enqueues block
// once it fills, back-pressuring the producing handler.
const outboundQueueSize = 64

// Session is the sole long-lived mutable object per client. The reader
// goroutine owns inbound dispatch; a writer goroutine drains the
// outbound queue; background producers (keep-alive) only enqueue.
type Session struct {
	srv   *Server
	conn  net.Conn
	frame *frameConn

	ctx    context.Context
	logCtx *logger.LogContext

	mu          sync.Mutex
	state       ids.State
	proto       version.Protocol
	requested   int32 // protocol number from the handshake, pre-clamp
	protoSet    bool
	resumed     bool // entered via a transfer intention
	hostname    string
	profile     profile.Profile
	hasProfile  bool
	closed      bool
	velocityID  int32 // pending velocity query id, -1 when none
	teleports   int32
	keepAliveID int64

	outbound chan []byte
	done     chan struct{}
	wg       sync.WaitGroup

	started time.Time
	// lastPong is guarded by mu; the keep-alive loop and reader both
	// touch it.
	lastPong time.Time
}

func newSession(srv *Server, conn net.Conn, ctx context.Context) *Session {
	lc := logger.NewLogContext(conn.RemoteAddr().String())
	lc.State = ids.StateHandshake.String()
	return &Session{
		srv:        srv,
		conn:       conn,
		frame:      newFrameConn(conn),
		ctx:        logger.WithContext(ctx, lc),
		logCtx:     lc,
		state:      ids.StateHandshake,
		velocityID: -1,
		outbound:   make(chan []byte, outboundQueueSize),
		done:       make(chan struct{}),
		started:    time.Now(),
	}
}

// State returns the current connection state.
func (s *Session) State() ids.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// legalTransitions is the state machine: only these edges are allowed.
var legalTransitions = map[ids.State][]ids.State{
	ids.StateHandshake:     {ids.StateStatus, ids.StateLogin, ids.StateTransfer},
	ids.StateLogin:         {ids.StateConfiguration, ids.StatePlay},
	ids.StateTransfer:      {ids.StateConfiguration, ids.StatePlay},
	ids.StateConfiguration: {ids.StatePlay},
}

// SetState performs an atomic state transition, rejecting edges the
// machine does not allow.
func (s *Session) SetState(next ids.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, allowed := range legalTransitions[s.state] {
		if next == allowed {
			s.srv.metrics.RecordStateEnter(s.state.String(), next.String())
			s.state = next
			s.logCtx.State = next.String()
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.state, next)
}

// Protocol returns the negotiated protocol version. Valid only after
// the intention packet has been handled.
func (s *Session) Protocol() version.Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proto
}

// setProtocol records the version exactly once, during handshake.
func (s *Session) setProtocol(v version.Protocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.protoSet {
		return ErrProtocolSet
	}
	s.proto = v
	s.protoSet = true
	s.logCtx.Protocol = int32(v)
	return nil
}

// RequestedProtocol returns the protocol number the client sent in its
// handshake, before clamping to the supported range. The status response
// echoes this so the client's version-mismatch banner stays off.
func (s *Session) RequestedProtocol() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

// Profile returns the game profile set during login.
func (s *Session) Profile() (profile.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.hasProfile
}

func (s *Session) setProfile(p profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.hasProfile = true
	s.logCtx.Username = p.Username
}

// Send encodes a packet for the session's version and current state and
// enqueues the framed bytes. Blocks when the queue is full.
func (s *Session) Send(p packet.Packet) error {
	s.mu.Lock()
	state := s.state
	v := s.proto
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	id, ok := s.srv.table.PacketID(v, state, ids.Clientbound, p.Name())
	if !ok {
		return fmt.Errorf("no id for %s in %s/%s", p.Name(), v.Name(), state)
	}

	w := codec.NewWriter()
	w.WriteVarInt(id)
	packet.Encode(p, w, v)
	body := w.Bytes()

	frame, err := encodeFrame(body, s.frame.threshold)
	if err != nil {
		return err
	}

	logger.DebugCtx(s.ctx, "packet sent",
		logger.KeyPacket, p.Name(),
		logger.KeyPacketID, id,
		logger.KeySize, len(body),
	)
	s.srv.metrics.RecordPacketOut(len(body))

	select {
	case s.outbound <- frame:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Disconnect sends the state-appropriate disconnect packet, then closes
// the session once the queue drains.
func (s *Session) Disconnect(reason string) {
	if p := s.disconnectPacket(reason); p != nil {
		if err := s.Send(p); err != nil {
			logger.DebugCtx(s.ctx, "disconnect packet not sent", logger.KeyError, err.Error())
		}
	}
	s.Close()
}

// disconnectPacket picks the disconnect form for the current state, or
// nil for states with no disconnect packet (handshake, status).
func (s *Session) disconnectPacket(reason string) packet.Packet {
	text, _ := json.Marshal(map[string]string{"text": reason})
	component := nbt.Compound(nbt.Entry("text", nbt.String(reason)))

	switch s.State() {
	case ids.StateLogin, ids.StateTransfer:
		return &packet.LoginDisconnect{Reason: string(text)}
	case ids.StateConfiguration:
		return &packet.ConfigDisconnect{ReasonJSON: string(text), Reason: component}
	case ids.StatePlay:
		return &packet.PlayDisconnect{ReasonJSON: string(text), Reason: component}
	default:
		return nil
	}
}

// Close tears the session down. Safe to call multiple times; the writer
// drains queued frames before the socket closes.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	state := s.state
	s.mu.Unlock()

	s.srv.metrics.RecordStateEnter(state.String(), "")
	close(s.done)
}

// serve runs the session: writer goroutine plus the inbound read loop.
// Returns when the connection ends for any reason.
func (s *Session) serve() {
	defer s.conn.Close()

	s.wg.Add(1)
	go s.writeLoop()

	s.readLoop()

	s.Close()
	s.wg.Wait()

	logger.InfoCtx(s.ctx, "session ended",
		logger.KeyDurationMs, logger.Duration(s.started),
	)
}

// writeLoop drains the outbound queue into the socket in enqueue order.
// On close it flushes whatever is already queued, so a disconnect packet
// enqueued just before Close still reaches the peer.
func (s *Session) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case frame := <-s.outbound:
			if !s.writeFrame(frame) {
				return
			}
		case <-s.done:
			for {
				select {
				case frame := <-s.outbound:
					if !s.writeFrame(frame) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *Session) writeFrame(frame []byte) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return false
	}
	if _, err := s.conn.Write(frame); err != nil {
		logger.DebugCtx(s.ctx, "write failed", logger.KeyError, err.Error())
		return false
	}
	return true
}

// readLoop frames inbound bytes and hands each packet to the
// dispatcher. Any error ends the session; a decode error never leaves a
// partially consumed buffer behind because each frame is independent.
func (s *Session) readLoop() {
	for {
		select {
		case <-s.ctx.Done():
			s.Disconnect("Server is shutting down")
			return
		case <-s.done:
			return
		default:
		}

		frame, err := s.frame.ReadFrame()
		if err != nil {
			logger.DebugCtx(s.ctx, "read ended", logger.KeyError, err.Error())
			return
		}
		s.srv.metrics.RecordPacketIn(len(frame))

		if err := s.srv.dispatch(s, frame); err != nil {
			logger.WarnCtx(s.ctx, "protocol violation", logger.KeyError, err.Error())
			return
		}
	}
}

// nextTeleportID hands out monotonically increasing teleport ids.
func (s *Session) nextTeleportID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teleports++
	return s.teleports
}

// recordPong timestamps the latest keep-alive answer.
func (s *Session) recordPong() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPong = time.Now()
}

func (s *Session) sincePong() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastPong)
}
