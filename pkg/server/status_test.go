package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joelkoen/picolimbo/pkg/config"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

func decodeStatus(t *testing.T, raw string) statusResponse {
	t.Helper()
	var resp statusResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return resp
}

func TestStatusPing(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.Status.MOTD = "hello world"
		cfg.Status.MaxPlayers = 7
	})

	c := dialClient(t, ts, version.V1_21_4)
	c.handshake(packet.NextStateStatus)

	c.send(&packet.StatusRequest{})
	var status packet.StatusResponse
	c.recvPacket("minecraft:status_response", &status)

	resp := decodeStatus(t, status.JSON)
	require.Equal(t, int32(769), resp.Version.Protocol)
	require.Equal(t, "1.21.4", resp.Version.Name)
	require.Equal(t, "hello world", resp.Description.Text)
	require.Equal(t, 7, resp.Players.Max)
	require.Zero(t, resp.Players.Online)

	c.send(&packet.PingRequest{Timestamp: 42})
	var pong packet.PongResponse
	c.recvPacket("minecraft:pong_response", &pong)
	require.Equal(t, int64(42), pong.Timestamp)
}

func TestStatusEchoesUnsupportedProtocol(t *testing.T) {
	ts := startServer(t, nil)

	// An intention claiming a future protocol is clamped to the newest
	// supported version for serialization, but the response echoes the
	// raw number so the client shows the server as joinable.
	c := dialClient(t, ts, version.Latest())
	c.send(&packet.Intention{
		Protocol:  99999,
		Hostname:  "localhost",
		Port:      25565,
		NextState: packet.NextStateStatus,
	})
	c.state = ids.StateStatus

	c.send(&packet.StatusRequest{})
	var status packet.StatusResponse
	c.recvPacket("minecraft:status_response", &status)

	resp := decodeStatus(t, status.JSON)
	require.Equal(t, int32(99999), resp.Version.Protocol)
	require.Equal(t, version.Latest().Name(), resp.Version.Name)
}

func TestStatusOnlineCount(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.Status.ShowOnlineCount = true
	})

	c := dialClient(t, ts, version.V1_21_4)
	c.handshake(packet.NextStateStatus)
	c.send(&packet.StatusRequest{})
	var status packet.StatusResponse
	c.recvPacket("minecraft:status_response", &status)

	// The querying connection itself counts.
	resp := decodeStatus(t, status.JSON)
	require.Equal(t, 1, resp.Players.Online)
}

func TestUnknownPacketIDEndsSession(t *testing.T) {
	ts := startServer(t, nil)

	c := dialClient(t, ts, version.V1_21_4)
	c.handshake(packet.NextStateStatus)

	// An id absent from the status report is a protocol error.
	require.NoError(t, c.frame.WriteFrame([]byte{0x55}))
	c.expectClosed()
}

func TestIllegalNextStateEndsSession(t *testing.T) {
	ts := startServer(t, nil)

	c := dialClient(t, ts, version.V1_21_4)
	c.send(&packet.Intention{
		Protocol:  int32(c.v),
		Hostname:  "localhost",
		Port:      25565,
		NextState: 5,
	})
	c.expectClosed()
}
