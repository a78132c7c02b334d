package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joelkoen/picolimbo/pkg/config"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// joinLegacy walks a 1.8 client to the spawn position sync.
func joinLegacy(t *testing.T, ts *testServer, username string) *testClient {
	t.Helper()
	c := dialClient(t, ts, version.V1_8)
	c.handshake(packet.NextStateLogin)
	c.send(&packet.Hello{Username: username})
	c.recvPacket("minecraft:game_profile", &packet.GameProfile{})
	c.state = ids.StatePlay
	c.awaitSpawn()
	return c
}

func TestVoidFloorTeleportsBackToSpawn(t *testing.T) {
	minY := -10
	ts := startServer(t, func(cfg *config.Config) {
		cfg.MinY = &minY
		cfg.MinYMessage = "Watch your step"
	})

	c := joinLegacy(t, ts, "Steve")
	c.send(&packet.MovePlayerPos{X: 0.5, FeetY: -30, Z: 0.5})

	r := c.recvUntil("minecraft:player_position")
	var pos packet.PlayerPosition
	require.NoError(t, packet.Decode(&pos, r, c.v))
	require.Equal(t, 64.0, pos.Y)

	var chat packet.LegacyChat
	c.recvPacket("minecraft:chat", &chat)
	require.Contains(t, chat.JSON, "Watch your step")
}

func TestVoidFloorAppliesToPosRot(t *testing.T) {
	minY := 0
	ts := startServer(t, func(cfg *config.Config) {
		cfg.MinY = &minY
	})

	c := joinLegacy(t, ts, "Steve")
	c.send(&packet.MovePlayerPosRot{X: 3, FeetY: -1, Z: 3, Yaw: 90})

	r := c.recvUntil("minecraft:player_position")
	var pos packet.PlayerPosition
	require.NoError(t, packet.Decode(&pos, r, c.v))
	require.Equal(t, 0.5, pos.X)
	require.Equal(t, 64.0, pos.Y)
}

func TestKeepAliveTimeoutDisconnects(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.KeepAliveIntervalSecs = 1
		cfg.KeepAliveTimeoutSecs = 1
	})

	c := joinLegacy(t, ts, "Steve")

	// Never answer; the second tick finds the pong overdue.
	r := c.recvUntil("minecraft:disconnect")
	var disc packet.PlayDisconnect
	require.NoError(t, packet.Decode(&disc, r, c.v))
	require.Contains(t, disc.ReasonJSON, "Timed out")
	c.expectClosed()
}

func TestKeepAliveAnswerKeepsSessionAlive(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.KeepAliveIntervalSecs = 1
		cfg.KeepAliveTimeoutSecs = 3
	})

	c := joinLegacy(t, ts, "Steve")

	var ka packet.KeepAlive
	c.recvPacket("minecraft:keep_alive", &ka)
	c.send(&packet.KeepAlive{ID: ka.ID})

	// Further pings keep arriving past the original deadline.
	c.recvPacket("minecraft:keep_alive", &ka)
	c.recvPacket("minecraft:keep_alive", &ka)
}

func TestGracefulShutdownNotifiesPlayers(t *testing.T) {
	ts := startServer(t, nil)

	c := joinLegacy(t, ts, "Steve")
	ts.cancel()

	r := c.recvUntil("minecraft:disconnect")
	var disc packet.PlayDisconnect
	require.NoError(t, packet.Decode(&disc, r, c.v))
	require.Contains(t, disc.ReasonJSON, "shutting down")
	c.expectClosed()

	require.NoError(t, ts.stop(t))
}

func TestMaxConnectionsHoldsExtraConnection(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.MaxConnections = 1
	})

	// The first connection occupies the only slot; it still works.
	c := dialClient(t, ts, version.V1_21_4)
	c.handshake(packet.NextStateStatus)
	c.send(&packet.StatusRequest{})
	c.recvPacket("minecraft:status_response", &packet.StatusResponse{})

	// Freeing the slot lets the next connection through.
	c.conn.Close()

	c2 := dialClient(t, ts, version.V1_21_4)
	c2.handshake(packet.NextStateStatus)
	c2.send(&packet.StatusRequest{})
	c2.recvPacket("minecraft:status_response", &packet.StatusResponse{})
}
