// Package profile holds the game profile attached to a session after
// login: the username, the UUID, and any signed properties (skin textures)
// carried over from a forwarding proxy.
package profile

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// MaxUsernameLength is the protocol limit for usernames. Longer names are
// truncated on construction, never rejected.
const MaxUsernameLength = 16

// Property is a signed profile property, typically "textures".
type Property struct {
	Name      string
	Value     string
	Signature string
}

// Profile identifies a player for the duration of a session.
type Profile struct {
	Username   string
	UUID       uuid.UUID
	Properties []Property
}

// New builds a profile, truncating the username to the protocol limit.
// A nil UUID is replaced by the offline-mode derivation.
func New(username string, id uuid.UUID) Profile {
	if len(username) > MaxUsernameLength {
		username = username[:MaxUsernameLength]
	}
	if id == uuid.Nil {
		id = OfflineUUID(username)
	}
	return Profile{Username: username, UUID: id}
}

// OfflineUUID derives the offline-mode UUID: version 3 (MD5) of
// "OfflinePlayer:" + username with no namespace, matching the vanilla
// server's Java UUID.nameUUIDFromBytes.
func OfflineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0F) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3F) | 0x80 // RFC 4122 variant
	return uuid.UUID(sum)
}

// Textures returns the "textures" property, if present.
func (p Profile) Textures() (Property, bool) {
	for _, prop := range p.Properties {
		if prop.Name == "textures" {
			return prop, true
		}
	}
	return Property{}, false
}
