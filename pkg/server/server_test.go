package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/assets"
	"github.com/joelkoen/picolimbo/pkg/config"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

func TestMain(m *testing.M) {
	// Keep session chatter out of test output.
	_ = logger.Init(logger.Config{Level: "ERROR", Format: "text", Output: "stderr"})
	os.Exit(m.Run())
}

// testPacketReport builds one synthetic packet report reused for every
// version. Ids only have to be consistent between the server and the
// test client, which share the same table.
func testPacketReport() map[string]map[string]map[string]map[string]int32 {
	pid := func(id int32) map[string]int32 {
		return map[string]int32{"protocol_id": id}
	}
	return map[string]map[string]map[string]map[string]int32{
		"handshake": {
			"serverbound": {
				"minecraft:intention": pid(0),
			},
		},
		"status": {
			"serverbound": {
				"minecraft:status_request": pid(0),
				"minecraft:ping_request":   pid(1),
			},
			"clientbound": {
				"minecraft:status_response": pid(0),
				"minecraft:pong_response":   pid(1),
			},
		},
		"login": {
			"serverbound": {
				"minecraft:hello":               pid(0),
				"minecraft:custom_query_answer": pid(2),
				"minecraft:login_acknowledged":  pid(3),
			},
			"clientbound": {
				"minecraft:login_disconnect":  pid(0),
				"minecraft:game_profile":      pid(2),
				"minecraft:login_compression": pid(3),
				"minecraft:custom_query":      pid(4),
				"minecraft:login_finished":    pid(5),
			},
		},
		"configuration": {
			"serverbound": {
				"minecraft:client_information":   pid(0),
				"minecraft:custom_payload":       pid(1),
				"minecraft:finish_configuration": pid(2),
				"minecraft:select_known_packs":   pid(6),
			},
			"clientbound": {
				"minecraft:custom_payload":       pid(1),
				"minecraft:disconnect":           pid(2),
				"minecraft:finish_configuration": pid(3),
				"minecraft:registry_data":        pid(7),
				"minecraft:select_known_packs":   pid(14),
			},
		},
		"play": {
			"serverbound": {
				"minecraft:accept_teleportation": pid(0),
				"minecraft:keep_alive":           pid(1),
				"minecraft:move_player_pos":      pid(2),
				"minecraft:move_player_pos_rot":  pid(3),
			},
			"clientbound": {
				"minecraft:login":                      pid(1),
				"minecraft:disconnect":                 pid(2),
				"minecraft:keep_alive":                 pid(3),
				"minecraft:level_chunk_with_light":     pid(4),
				"minecraft:game_event":                 pid(5),
				"minecraft:player_position":            pid(6),
				"minecraft:set_chunk_cache_center":     pid(7),
				"minecraft:set_default_spawn_position": pid(8),
				"minecraft:system_chat":                pid(9),
				"minecraft:chat":                       pid(10),
				"minecraft:tab_list":                   pid(11),
				"minecraft:set_time":                   pid(12),
			},
		},
	}
}

// writeTestAssets materializes a minimal asset directory: one synthetic
// packet report per version, single-entry block reports, and an internal
// mapping holding only air.
func writeTestAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	report, err := json.Marshal(testPacketReport())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "packets"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blocks"), 0755))
	for _, v := range version.All() {
		name := fmt.Sprintf("%d.json", int32(v))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "packets", name), report, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "blocks", name), []byte("[0]"), 0644))
	}

	w := codec.NewWriter()
	w.WriteUint8(1)  // format
	w.WriteVarInt(1) // block count
	w.WriteString("minecraft:air")
	w.WriteVarInt(0) // default state index
	w.WriteVarInt(1) // state count
	w.WriteVarInt(0) // internal id
	w.WriteVarInt(0) // property count
	require.NoError(t, os.WriteFile(filepath.Join(dir, "internal_mapping.bin"), w.Bytes(), 0644))

	return dir
}

// testServer runs a Server on a loopback port for the duration of a test.
type testServer struct {
	srv      *Server
	addr     string
	cancel   context.CancelFunc
	done     chan error
	stopOnce sync.Once
	serveErr error
}

func startServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	dir := writeTestAssets(t)
	cfg := config.GetDefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.DataDir = dir
	cfg.ViewDistance = 1
	if mutate != nil {
		mutate(cfg)
	}

	store, err := assets.Open(dir)
	require.NoError(t, err)
	srv, err := New(cfg, store, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{srv: srv, cancel: cancel, done: make(chan error, 1)}
	go func() {
		ts.done <- srv.Serve(ctx)
	}()

	select {
	case <-srv.ListenerReady:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}
	ts.addr = srv.listener.Addr().String()

	t.Cleanup(func() { ts.stop(t) })
	return ts
}

// stop cancels the server context and waits for Serve to return. Safe to
// call more than once.
func (ts *testServer) stop(t *testing.T) error {
	t.Helper()
	ts.stopOnce.Do(func() {
		ts.cancel()
		select {
		case ts.serveErr = <-ts.done:
		case <-time.After(10 * time.Second):
			t.Fatal("server did not stop")
		}
	})
	return ts.serveErr
}

// testClient speaks the wire protocol against a testServer, resolving
// packet ids through the server's own table.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	frame *frameConn
	table *ids.Table
	v     version.Protocol
	state ids.State
}

func dialClient(t *testing.T, ts *testServer, v version.Protocol) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", ts.addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))
	return &testClient{
		t:     t,
		conn:  conn,
		frame: newFrameConn(conn),
		table: ts.srv.table,
		v:     v,
		state: ids.StateHandshake,
	}
}

func (c *testClient) send(p packet.Packet) {
	c.t.Helper()
	id, ok := c.table.PacketID(c.v, c.state, ids.Serverbound, p.Name())
	require.True(c.t, ok, "no serverbound id for %s in %s", p.Name(), c.state)

	w := codec.NewWriter()
	w.WriteVarInt(id)
	packet.Encode(p, w, c.v)
	require.NoError(c.t, c.frame.WriteFrame(w.Bytes()))
}

// recv reads one frame and resolves its packet name for the client's
// current state.
func (c *testClient) recv() (string, *codec.Reader) {
	c.t.Helper()
	frame, err := c.frame.ReadFrame()
	require.NoError(c.t, err)
	r := codec.NewReader(frame)
	id, err := r.ReadVarInt()
	require.NoError(c.t, err)
	name, ok := c.table.PacketName(c.v, c.state, ids.Clientbound, id)
	require.True(c.t, ok, "unknown clientbound id %#x in %s", id, c.state)
	return name, r
}

// recvPacket reads one frame and decodes it, failing on a name mismatch.
func (c *testClient) recvPacket(name string, p packet.Packet) {
	c.t.Helper()
	got, r := c.recv()
	require.Equal(c.t, name, got)
	require.NoError(c.t, packet.Decode(p, r, c.v))
}

// recvUntil skips packets until the named one arrives.
func (c *testClient) recvUntil(name string) *codec.Reader {
	c.t.Helper()
	for i := 0; i < 256; i++ {
		got, r := c.recv()
		if got == name {
			return r
		}
	}
	c.t.Fatalf("did not receive %s", name)
	return nil
}

// expectClosed asserts the server has ended the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()
	_, err := c.frame.ReadFrame()
	require.Error(c.t, err)
}

// handshake sends the intention and tracks the state change locally.
func (c *testClient) handshake(next int32) {
	c.t.Helper()
	c.send(&packet.Intention{
		Protocol:  int32(c.v),
		Hostname:  "localhost",
		Port:      25565,
		NextState: next,
	})
	switch next {
	case packet.NextStateStatus:
		c.state = ids.StateStatus
	case packet.NextStateLogin:
		c.state = ids.StateLogin
	case packet.NextStateTransfer:
		c.state = ids.StateTransfer
	}
}

// loginModern walks a 1.20.2+ client through login and configuration
// into play, with no compression or forwarding configured.
func (c *testClient) loginModern(username string) packet.LoginFinished {
	c.t.Helper()
	c.handshake(packet.NextStateLogin)
	c.send(&packet.Hello{Username: username})

	var fin packet.LoginFinished
	c.recvPacket("minecraft:login_finished", &fin)
	c.send(&packet.LoginAcknowledged{})
	c.state = ids.StateConfiguration

	var brand packet.CustomPayload
	c.recvPacket("minecraft:custom_payload", &brand)
	require.Equal(c.t, "minecraft:brand", brand.Channel)
	var packs packet.SelectKnownPacks
	c.recvPacket("minecraft:select_known_packs", &packs)
	// The test assets bundle no registries, so the stream ends here.
	c.recvPacket("minecraft:finish_configuration", &packet.FinishConfiguration{})

	c.send(&packet.FinishConfiguration{})
	c.state = ids.StatePlay
	return fin
}

// awaitSpawn drains the join sequence up to the position sync.
func (c *testClient) awaitSpawn() packet.PlayerPosition {
	c.t.Helper()
	r := c.recvUntil("minecraft:player_position")
	var pos packet.PlayerPosition
	require.NoError(c.t, packet.Decode(&pos, r, c.v))
	return pos
}
