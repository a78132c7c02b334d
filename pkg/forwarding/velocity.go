// Package forwarding implements the two proxy identity-forwarding
// schemes: Velocity modern (HMAC-signed login plugin exchange) and
// BungeeCord legacy (handshake hostname segments).
package forwarding

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/joelkoen/picolimbo/pkg/profile"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
)

// VelocityChannel is the login plugin channel for the modern exchange.
const VelocityChannel = "velocity:player_info"

// Supported payload versions of the modern forwarding protocol.
const (
	velocityVersionMin = 1
	velocityVersionMax = 4
)

var (
	ErrInvalidSignature = errors.New("forwarding: invalid signature")
	ErrMalformedPayload = errors.New("forwarding: malformed payload")
	ErrVersion          = errors.New("forwarding: unsupported version")
)

// Velocity validates modern forwarding responses with a shared secret.
type Velocity struct {
	secret []byte
}

func NewVelocity(secret string) *Velocity {
	return &Velocity{secret: []byte(secret)}
}

// Verify checks and parses a login plugin response body. The body is a
// 32-byte HMAC-SHA256 signature followed by the signed payload; the
// compare is constant time. An empty body fails.
func (f *Velocity) Verify(data []byte) (profile.Profile, error) {
	if len(data) < sha256.Size {
		return profile.Profile{}, ErrMalformedPayload
	}
	sig, payload := data[:sha256.Size], data[sha256.Size:]

	mac := hmac.New(sha256.New, f.secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return profile.Profile{}, ErrInvalidSignature
	}
	return parseVelocityPayload(payload)
}

// parseVelocityPayload decodes version, address, uuid, username and
// the property list.
func parseVelocityPayload(payload []byte) (profile.Profile, error) {
	r := codec.NewReader(payload)

	ver, err := r.ReadVarInt()
	if err != nil {
		return profile.Profile{}, ErrMalformedPayload
	}
	if ver < velocityVersionMin || ver > velocityVersionMax {
		return profile.Profile{}, fmt.Errorf("%w: %d", ErrVersion, ver)
	}
	if _, err := r.ReadString(); err != nil { // remote address
		return profile.Profile{}, ErrMalformedPayload
	}
	id, err := r.ReadUUID()
	if err != nil {
		return profile.Profile{}, ErrMalformedPayload
	}
	name, err := r.ReadString()
	if err != nil {
		return profile.Profile{}, ErrMalformedPayload
	}

	count, err := r.ReadVarInt()
	if err != nil || count < 0 {
		return profile.Profile{}, ErrMalformedPayload
	}
	props := make([]profile.Property, 0, count)
	for i := int32(0); i < count; i++ {
		var p profile.Property
		if p.Name, err = r.ReadString(); err != nil {
			return profile.Profile{}, ErrMalformedPayload
		}
		if p.Value, err = r.ReadString(); err != nil {
			return profile.Profile{}, ErrMalformedPayload
		}
		signed, err := r.ReadBool()
		if err != nil {
			return profile.Profile{}, ErrMalformedPayload
		}
		if signed {
			if p.Signature, err = r.ReadString(); err != nil {
				return profile.Profile{}, ErrMalformedPayload
			}
		}
		props = append(props, p)
	}

	p := profile.New(name, id)
	p.Properties = props
	return p, nil
}
