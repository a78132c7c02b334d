package forwarding

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/joelkoen/picolimbo/pkg/profile"
)

var (
	ErrBadHostname = errors.New("forwarding: malformed forwarded hostname")
	ErrGuardToken  = errors.New("forwarding: missing or unknown bungeeguard token")
)

// BungeeCord parses legacy forwarding data out of handshake hostnames.
// When guard tokens are configured, forwarded connections must carry a
// bungeeguard-token property from the allowlist.
type BungeeCord struct {
	tokens map[string]struct{}
}

func NewBungeeCord(guardTokens []string) *BungeeCord {
	b := &BungeeCord{}
	if len(guardTokens) > 0 {
		b.tokens = make(map[string]struct{}, len(guardTokens))
		for _, t := range guardTokens {
			b.tokens[t] = struct{}{}
		}
	}
	return b
}

type hostProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Sig   string `json:"signature"`
}

// Parse inspects a handshake hostname. A plain "host" or "host\0ip"
// value is not forwarded (forwarded=false, no error). A proxy rewrites
// it to "host\0ip\0uuidhex(\0propertiesJson)"; that form yields the
// forwarded identity for the given username.
func (b *BungeeCord) Parse(hostname, username string) (profile.Profile, bool, error) {
	parts := strings.Split(hostname, "\x00")
	if len(parts) < 3 {
		return profile.Profile{}, false, nil
	}
	if len(parts) > 4 {
		return profile.Profile{}, false, ErrBadHostname
	}

	id, err := parseHexUUID(parts[2])
	if err != nil {
		return profile.Profile{}, false, ErrBadHostname
	}

	var props []hostProperty
	if len(parts) == 4 && parts[3] != "" {
		if err := json.Unmarshal([]byte(parts[3]), &props); err != nil {
			return profile.Profile{}, false, ErrBadHostname
		}
	}

	if b.tokens != nil {
		if !b.tokenOK(props) {
			return profile.Profile{}, false, ErrGuardToken
		}
	}

	p := profile.New(username, id)
	for _, hp := range props {
		if hp.Name == "bungeeguard-token" {
			continue
		}
		p.Properties = append(p.Properties, profile.Property{
			Name:      hp.Name,
			Value:     hp.Value,
			Signature: hp.Sig,
		})
	}
	return p, true, nil
}

func (b *BungeeCord) tokenOK(props []hostProperty) bool {
	for _, p := range props {
		if p.Name != "bungeeguard-token" {
			continue
		}
		if _, ok := b.tokens[p.Value]; ok {
			return true
		}
	}
	return false
}

// parseHexUUID reads the 32-char undashed UUID form.
func parseHexUUID(s string) (uuid.UUID, error) {
	if len(s) != 32 {
		return uuid.Nil, ErrBadHostname
	}
	var id uuid.UUID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
