package schematic

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
	"github.com/joelkoen/picolimbo/pkg/world/blocks"
)

func testRegistry(t *testing.T) *blocks.Registry {
	t.Helper()
	reports := map[version.Protocol][]int32{}
	reg, err := blocks.NewRegistry([]blocks.Block{
		{Name: "minecraft:air", States: []blocks.State{{InternalID: 0}}, DefaultID: 0},
		{Name: "minecraft:stone", States: []blocks.State{{InternalID: 1}}, DefaultID: 1},
		{Name: "minecraft:oak_slab", DefaultID: 3, States: []blocks.State{
			{InternalID: 2, Properties: map[string]string{"type": "top"}},
			{InternalID: 3, Properties: map[string]string{"type": "bottom"}},
		}},
	}, reports)
	require.NoError(t, err)
	return reg
}

func gzipNBT(t *testing.T, name string, root nbt.Value) []byte {
	t.Helper()
	w := codec.NewWriter()
	nbt.Write(w, name, root)
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(w.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func schemCompound(blockData []byte) nbt.Value {
	return nbt.Compound(
		nbt.Entry("Version", nbt.Int(2)),
		nbt.Entry("Width", nbt.Short(2)),
		nbt.Entry("Height", nbt.Short(1)),
		nbt.Entry("Length", nbt.Short(2)),
		nbt.Entry("Palette", nbt.Compound(
			nbt.Entry("minecraft:air", nbt.Int(0)),
			nbt.Entry("minecraft:stone", nbt.Int(1)),
			nbt.Entry("minecraft:oak_slab[type=top]", nbt.Int(2)),
		)),
		nbt.Entry("BlockData", nbt.Value{Tag: nbt.TagByteArray, ByteArray: blockData}),
	)
}

func TestParseV2(t *testing.T) {
	// (y=0,z=0): air, stone; (y=0,z=1): slab, air.
	data := gzipNBT(t, "Schematic", schemCompound([]byte{0, 1, 2, 0}))

	s, err := Parse(data, testRegistry(t))
	require.NoError(t, err)
	require.Equal(t, int32(2), s.Width)
	require.Equal(t, int32(1), s.Height)
	require.Equal(t, int32(2), s.Length)

	require.Equal(t, int32(0), s.BlockAt(0, 0, 0))
	require.Equal(t, int32(1), s.BlockAt(1, 0, 0))
	require.Equal(t, int32(2), s.BlockAt(0, 0, 1))
	require.Equal(t, int32(0), s.BlockAt(1, 0, 1))

	// Out of range reads as air.
	require.Equal(t, int32(0), s.BlockAt(-1, 0, 0))
	require.Equal(t, int32(0), s.BlockAt(0, 5, 0))
}

func TestParseV3Nesting(t *testing.T) {
	inner := nbt.Compound(
		nbt.Entry("Version", nbt.Int(3)),
		nbt.Entry("Width", nbt.Short(1)),
		nbt.Entry("Height", nbt.Short(1)),
		nbt.Entry("Length", nbt.Short(1)),
		nbt.Entry("Blocks", nbt.Compound(
			nbt.Entry("Palette", nbt.Compound(
				nbt.Entry("minecraft:stone", nbt.Int(0)),
			)),
			nbt.Entry("Data", nbt.Value{Tag: nbt.TagByteArray, ByteArray: []byte{0}}),
		)),
	)
	data := gzipNBT(t, "", nbt.Compound(nbt.Entry("Schematic", inner)))

	s, err := Parse(data, testRegistry(t))
	require.NoError(t, err)
	require.Equal(t, int32(1), s.BlockAt(0, 0, 0))
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte("not gzip"), testRegistry(t))
	require.ErrorIs(t, err, ErrMalformed)

	// Cell count mismatching the declared volume.
	data := gzipNBT(t, "Schematic", schemCompound([]byte{0, 1}))
	_, err = Parse(data, testRegistry(t))
	require.ErrorIs(t, err, ErrMalformed)

	// Palette naming an unknown block.
	bad := nbt.Compound(
		nbt.Entry("Width", nbt.Short(1)),
		nbt.Entry("Height", nbt.Short(1)),
		nbt.Entry("Length", nbt.Short(1)),
		nbt.Entry("Palette", nbt.Compound(
			nbt.Entry("minecraft:command_block", nbt.Int(0)),
		)),
		nbt.Entry("BlockData", nbt.Value{Tag: nbt.TagByteArray, ByteArray: []byte{0}}),
	)
	_, err = Parse(gzipNBT(t, "Schematic", bad), testRegistry(t))
	require.ErrorIs(t, err, blocks.ErrUnknownBlock)
}
