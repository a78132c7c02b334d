package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	require.Equal(t, DefaultDir, Resolve(""))
	require.Equal(t, "/opt/assets", Resolve("/opt/assets"))

	t.Setenv(EnvDataDir, "/env/assets")
	require.Equal(t, "/env/assets", Resolve("/opt/assets"))
}

func TestStoreReads(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "packets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "packets", "769.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "internal_mapping.bin"), []byte{1, 2, 3}, 0o644))

	s, err := Open(root)
	require.NoError(t, err)

	data, err := s.PacketReport(769)
	require.NoError(t, err)
	require.Equal(t, []byte(`{}`), data)

	data, err = s.InternalMapping()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	_, err = s.PacketReport(4)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestOpenMissingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestRegistriesSortedAndOptional(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "registries", "769")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minecraft__worldgen__biome.nbt"), []byte{10}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minecraft__dimension_type.nbt"), []byte{20}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	s, err := Open(root)
	require.NoError(t, err)

	files, err := s.Registries(769)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "minecraft:dimension_type", files[0].Name)
	require.Equal(t, "minecraft:worldgen/biome", files[1].Name)

	// Pre-configuration versions bundle no registries.
	files, err = s.Registries(47)
	require.NoError(t, err)
	require.Nil(t, files)
}
