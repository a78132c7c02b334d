package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
)

// statusResponse is the server-list JSON document. The schema is fixed;
// the protocol number echoes the client's so no version-mismatch banner
// is shown.
type statusResponse struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int   `json:"max"`
		Online int   `json:"online"`
		Sample []any `json:"sample"`
	} `json:"players"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Favicon            string `json:"favicon,omitempty"`
	EnforcesSecureChat bool   `json:"enforcesSecureChat"`
}

// loadFavicon reads the configured icon and wraps it as a data URI. An
// unset path yields an empty string; an unreadable file is an error so
// a bad config fails at startup, not per ping.
func loadFavicon(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("server icon %s: %w", path, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// onStatusRequest answers a server-list query.
func (srv *Server) onStatusRequest(s *Session, p packet.Packet) error {
	srv.metrics.RecordStatusRequest()

	// The protocol number echoes the client's raw handshake value, even
	// when it was clamped for serialization, so unknown clients see a
	// joinable entry rather than the incompatible banner.
	var resp statusResponse
	resp.Version.Name = s.Protocol().Name()
	resp.Version.Protocol = s.RequestedProtocol()
	resp.Players.Max = srv.cfg.Status.MaxPlayers
	resp.Players.Sample = []any{}
	if srv.cfg.Status.ShowOnlineCount {
		resp.Players.Online = int(srv.sessionCount.Load())
	}
	resp.Description.Text = srv.cfg.Status.MOTD
	resp.Favicon = srv.favicon

	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.Send(&packet.StatusResponse{JSON: string(body)})
}

// onPingRequest echoes the client timestamp; the client closes the
// connection once the pong arrives.
func (srv *Server) onPingRequest(s *Session, p packet.Packet) error {
	ping := p.(*packet.PingRequest)
	return s.Send(&packet.PongResponse{Timestamp: ping.Timestamp})
}
