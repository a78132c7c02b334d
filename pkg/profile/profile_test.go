package profile

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOfflineUUIDDeterministic(t *testing.T) {
	a := OfflineUUID("Steve")
	b := OfflineUUID("Steve")
	require.Equal(t, a, b)
	require.NotEqual(t, a, OfflineUUID("steve"))
}

func TestOfflineUUIDIsVersion3(t *testing.T) {
	id := OfflineUUID("Notch")
	require.Equal(t, uuid.Version(3), id.Version())
	require.Equal(t, uuid.RFC4122, id.Variant())
}

func TestNewTruncatesUsername(t *testing.T) {
	p := New(strings.Repeat("a", 20), uuid.Nil)
	require.Len(t, p.Username, MaxUsernameLength)
	require.Equal(t, OfflineUUID(p.Username), p.UUID)
}

func TestNewKeepsForwardedUUID(t *testing.T) {
	id := uuid.MustParse("4566e69f-c907-48ee-8d71-d7ba5aa00d20")
	p := New("Steve", id)
	require.Equal(t, id, p.UUID)
}

func TestTextures(t *testing.T) {
	p := Profile{Properties: []Property{{Name: "textures", Value: "v"}}}
	prop, ok := p.Textures()
	require.True(t, ok)
	require.Equal(t, "v", prop.Value)

	_, ok = Profile{}.Textures()
	require.False(t, ok)
}
