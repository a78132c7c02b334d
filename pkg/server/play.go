package server

import (
	"encoding/json"
	"time"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// Spawn anchor. The world is void, so the height only has to be above
// any pasted schematic and below the build limit on every version.
const (
	spawnX float64 = 0.5
	spawnY float64 = 64
	spawnZ float64 = 0.5
)

// noonTicks freezes the daylight cycle at noon when world.lock_time is
// set; pre-1.21.2 clients stop advancing on a negative time-of-day.
const noonTicks int64 = 6000

// textJSON builds the JSON text-component form of a plain message.
func textJSON(msg string) string {
	out, _ := json.Marshal(map[string]string{"text": msg})
	return string(out)
}

// textNBT builds the NBT text-component form of a plain message.
func textNBT(msg string) nbt.Value {
	return nbt.Compound(nbt.Entry("text", nbt.String(msg)))
}

// gameModeID maps the config game mode to its wire id.
func gameModeID(mode string) uint8 {
	switch mode {
	case "survival":
		return 0
	case "creative":
		return 1
	case "adventure":
		return 2
	default:
		return 3 // spectator
	}
}

// joinPlay drives a freshly settled session through the join sequence:
// login payload, spawn anchor, the view-distance chunk square, position
// sync, and the optional cosmetic packets. Ends by starting the
// keep-alive loop.
func (srv *Server) joinPlay(s *Session) error {
	v := s.Protocol()
	dim := srv.emitter.Dimension
	ident := dim.Identifier()

	login := &packet.Login{
		EntityID:            1,
		GameMode:            gameModeID(srv.cfg.GameMode),
		PreviousGameMode:    -1,
		WorldNames:          []string{ident},
		DimensionName:       ident,
		DimensionID:         dim.LegacyID(),
		WorldName:           ident,
		LevelType:           "flat",
		MaxPlayers:          int32(srv.cfg.Status.MaxPlayers),
		ViewDistance:        int32(srv.cfg.ViewDistance),
		SimulationDistance:  int32(srv.cfg.ViewDistance),
		EnableRespawnScreen: true,
		SeaLevel:            63,
	}
	if v.Between(version.V1_16, version.V1_20) {
		login.DimensionCodec = srv.registries.MonolithicCodec(v)
	}
	if v.Between(version.V1_16_2, version.V1_18_2) {
		if elem, ok := srv.registries.DimensionElement(v, ident); ok {
			login.Dimension = elem
		}
	}
	if v.AtLeast(version.V1_20_5) {
		login.DimensionTypeID = srv.registries.DimensionIndex(v, ident)
	}
	if err := s.Send(login); err != nil {
		return err
	}

	if v.AtLeast(version.V1_14) {
		if err := s.Send(&packet.SetChunkCacheCenter{}); err != nil {
			return err
		}
	}
	if err := s.Send(&packet.SetDefaultSpawnPosition{
		Position: codec.Position{X: 0, Y: int32(spawnY), Z: 0},
	}); err != nil {
		return err
	}

	vd := int32(srv.cfg.ViewDistance)
	for cx := -vd; cx <= vd; cx++ {
		for cz := -vd; cz <= vd; cz++ {
			chunk, err := srv.emitter.Chunk(v, cx, cz)
			if err != nil {
				return err
			}
			if err := s.Send(chunk); err != nil {
				return err
			}
		}
	}

	if v.AtLeast(version.V1_20_3) {
		if err := s.Send(&packet.GameEvent{Event: packet.GameEventStartWaitingForChunks}); err != nil {
			return err
		}
	}

	if err := s.Send(srv.spawnPosition(s)); err != nil {
		return err
	}

	if srv.cfg.TabList.Enabled {
		if err := s.Send(&packet.TabList{
			HeaderJSON: textJSON(srv.cfg.TabList.Header),
			Header:     textNBT(srv.cfg.TabList.Header),
			FooterJSON: textJSON(srv.cfg.TabList.Footer),
			Footer:     textNBT(srv.cfg.TabList.Footer),
		}); err != nil {
			return err
		}
	}

	if srv.cfg.World.LockTime {
		tod := noonTicks
		if v.AtMost(version.V1_21) {
			tod = -noonTicks
		}
		if err := s.Send(&packet.SetTime{TimeOfDay: tod}); err != nil {
			return err
		}
	}

	logger.InfoCtx(s.ctx, "player joined")

	s.wg.Add(1)
	go srv.keepAliveLoop(s)
	return nil
}

// spawnPosition builds the position sync that places the player at the
// spawn anchor.
func (srv *Server) spawnPosition(s *Session) *packet.PlayerPosition {
	return &packet.PlayerPosition{
		TeleportID: s.nextTeleportID(),
		X:          spawnX,
		Y:          spawnY,
		Z:          spawnZ,
	}
}

// keepAliveLoop pings the client every interval and drops the session
// when an answer is overdue.
func (srv *Server) keepAliveLoop(s *Session) {
	defer s.wg.Done()

	interval := time.Duration(srv.cfg.KeepAliveIntervalSecs) * time.Second
	timeout := time.Duration(srv.cfg.KeepAliveTimeoutSecs) * time.Second

	s.recordPong()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.sincePong() > timeout {
				srv.metrics.RecordKeepAliveTimeout()
				logger.InfoCtx(s.ctx, "keep-alive timeout")
				s.Disconnect("Timed out")
				return
			}
			s.mu.Lock()
			s.keepAliveID++
			id := s.keepAliveID
			s.mu.Unlock()
			if err := s.Send(&packet.KeepAlive{ID: id}); err != nil {
				return
			}
		}
	}
}

// onKeepAlive records the client's keep-alive answer.
func (srv *Server) onKeepAlive(s *Session, p packet.Packet) error {
	s.recordPong()
	return nil
}

// onMovePlayerPos applies the void floor to position reports.
func (srv *Server) onMovePlayerPos(s *Session, p packet.Packet) error {
	return srv.checkVoidFloor(s, p.(*packet.MovePlayerPos).FeetY)
}

func (srv *Server) onMovePlayerPosRot(s *Session, p packet.Packet) error {
	return srv.checkVoidFloor(s, p.(*packet.MovePlayerPosRot).FeetY)
}

// checkVoidFloor teleports a player back to spawn when they fall below
// the configured min_y, optionally sending a chat message.
func (srv *Server) checkVoidFloor(s *Session, feetY float64) error {
	if srv.cfg.MinY == nil || feetY >= float64(*srv.cfg.MinY) {
		return nil
	}
	if err := s.Send(srv.spawnPosition(s)); err != nil {
		return err
	}
	if msg := srv.cfg.MinYMessage; msg != "" {
		return srv.sendChat(s, msg)
	}
	return nil
}

// sendChat delivers a system chat message in the version's packet form.
func (srv *Server) sendChat(s *Session, msg string) error {
	if s.Protocol().AtLeast(version.V1_19) {
		return s.Send(&packet.SystemChat{
			ContentJSON: textJSON(msg),
			Content:     textNBT(msg),
		})
	}
	return s.Send(&packet.LegacyChat{JSON: textJSON(msg)})
}
