package world

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
	"github.com/joelkoen/picolimbo/pkg/world/blocks"
	"github.com/joelkoen/picolimbo/pkg/world/schematic"
)

// ChunkPacketName is the canonical name chunk bodies are emitted under;
// the packet-id table resolves it per version.
const ChunkPacketName = "minecraft:level_chunk_with_light"

// Emitter builds chunk packet bodies for the view-distance square
// around (0,0). It is immutable after startup and shared by sessions.
type Emitter struct {
	Blocks    *blocks.Registry
	Schematic *schematic.Schematic
	Dimension Dimension
	Biome     int32
}

type section struct {
	nonAir  int16
	palette Palette
}

func (s section) empty() bool {
	return s.nonAir == 0
}

// Chunk builds the chunk packet for column (cx, cz) at a version.
func (e *Emitter) Chunk(v version.Protocol, cx, cz int32) (*packet.Raw, error) {
	sections := e.sections(v, cx, cz)
	for i := range sections {
		sections[i].palette = sections[i].palette.Remap(func(id int32) int32 {
			return e.Blocks.ReportID(v, id)
		})
	}

	w := codec.NewWriter()
	var err error
	switch {
	case v.AtLeast(version.V1_18):
		e.writeModern(w, v, cx, cz, sections)
	case v.AtLeast(version.V1_17):
		e.write117(w, v, cx, cz, sections)
	case v.AtLeast(version.V1_16_2):
		e.write1162(w, cx, cz, sections)
	case v.AtLeast(version.V1_16):
		e.write116(w, cx, cz, sections)
	case v.AtLeast(version.V1_15):
		e.write115(w, cx, cz, sections)
	case v.AtLeast(version.V1_14):
		e.write114(w, v, cx, cz, sections)
	case v.AtLeast(version.V1_13):
		e.write113(w, cx, cz, sections)
	case v.AtLeast(version.V1_9):
		e.write19(w, v, cx, cz, sections)
	case v.AtLeast(version.V1_8):
		e.write18(w, cx, cz, sections)
	default:
		err = e.write17(w, cx, cz, sections)
	}
	if err != nil {
		return nil, err
	}
	return &packet.Raw{PacketName: ChunkPacketName, Body: w.Bytes()}, nil
}

// sections builds the column's sections as internal ids, pasting the
// schematic where the column intersects its volume at the world origin.
func (e *Emitter) sections(v version.Protocol, cx, cz int32) []section {
	count := e.Dimension.SectionCount(v)
	minY := e.Dimension.MinY(v)
	air := e.Blocks.AirID()

	out := make([]section, count)
	for i := range out {
		out[i] = section{palette: SinglePalette(air)}
	}

	s := e.Schematic
	if s == nil {
		return out
	}
	baseX, baseZ := cx*16, cz*16
	if baseX >= s.Width || baseX+16 <= 0 || baseZ >= s.Length || baseZ+16 <= 0 {
		return out
	}

	for i := range out {
		baseY := minY + int32(i)*16
		if baseY >= s.Height || baseY+16 <= 0 {
			continue
		}
		cells := make([]int32, SectionVolume)
		nonAir := int16(0)
		for y := int32(0); y < 16; y++ {
			for z := int32(0); z < 16; z++ {
				for x := int32(0); x < 16; x++ {
					id := s.BlockAt(baseX+x, baseY+y, baseZ+z)
					cells[int(y)*256+int(z)*16+int(x)] = id
					if id != air {
						nonAir++
					}
				}
			}
		}
		if nonAir == 0 {
			continue
		}
		out[i] = section{nonAir: nonAir, palette: BuildPalette(cells)}
	}
	return out
}

// sectionMask sets one bit per emitted section. Before 1.9 an all-zero
// mask on a full chunk means unload, so section 0 is always included.
func sectionMask(v version.Protocol, sections []section) uint32 {
	var mask uint32
	for i, s := range sections {
		if !s.empty() {
			mask |= 1 << uint(i)
		}
	}
	if mask == 0 && v.AtMost(version.V1_8) {
		mask = 1
	}
	return mask
}

// cellIDs expands a palette back to one id per cell.
func cellIDs(p Palette) []uint32 {
	out := make([]uint32, SectionVolume)
	switch p.Kind {
	case PaletteSingle:
		for i := range out {
			out[i] = uint32(p.Single)
		}
	case PalettePaletted:
		for i, idx := range p.Indices {
			out[i] = uint32(p.Entries[idx])
		}
	default:
		for i, id := range p.Cells {
			out[i] = uint32(id)
		}
	}
	return out
}

// write17 is the 1.7.x body: bitmasks and a zlib-deflated column of
// grouped per-section arrays.
func (e *Emitter) write17(w *codec.Writer, cx, cz int32, sections []section) error {
	mask := sectionMask(version.V1_7_2, sections)

	col := codec.NewWriter()
	for i, s := range sections {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		for _, id := range cellIDs(s.palette) {
			col.WriteUint8(uint8(id >> 4))
		}
	}
	forEachMasked(mask, sections, func(s section) {
		writeMetaNibbles(col, s)
	})
	forEachMasked(mask, sections, func(section) {
		col.WriteBytes(make([]byte, 2048)) // block light
	})
	if e.Dimension.HasSkyLight() {
		forEachMasked(mask, sections, func(section) {
			col.WriteBytes(make([]byte, 2048))
		})
	}
	biomes := make([]byte, 256)
	for i := range biomes {
		biomes[i] = uint8(e.Biome)
	}
	col.WriteBytes(biomes)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(col.Bytes()); err != nil {
		return fmt.Errorf("chunk deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("chunk deflate: %w", err)
	}

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true) // ground-up continuous
	w.WriteUint16(uint16(mask))
	w.WriteUint16(0) // add bitmask
	w.WriteInt32(int32(buf.Len()))
	w.WriteBytes(buf.Bytes())
	return nil
}

func forEachMasked(mask uint32, sections []section, f func(section)) {
	for i, s := range sections {
		if mask&(1<<uint(i)) != 0 {
			f(s)
		}
	}
}

// writeMetaNibbles emits the low 4 bits of each legacy id as a packed
// nibble array.
func writeMetaNibbles(w *codec.Writer, s section) {
	cells := cellIDs(s.palette)
	for i := 0; i < len(cells); i += 2 {
		w.WriteUint8(uint8(cells[i]&0xF) | uint8(cells[i+1]&0xF)<<4)
	}
}

// write18 is the 1.8 body: grouped little-endian shorts, light nibbles
// and biomes behind a VarInt size.
func (e *Emitter) write18(w *codec.Writer, cx, cz int32, sections []section) {
	mask := sectionMask(version.V1_8, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		for _, id := range cellIDs(s.palette) {
			col.WriteUint8(uint8(id))
			col.WriteUint8(uint8(id >> 8))
		}
	})
	forEachMasked(mask, sections, func(section) {
		col.WriteBytes(make([]byte, 2048))
	})
	if e.Dimension.HasSkyLight() {
		forEachMasked(mask, sections, func(section) {
			col.WriteBytes(make([]byte, 2048))
		})
	}
	biomes := make([]byte, 256)
	for i := range biomes {
		biomes[i] = uint8(e.Biome)
	}
	col.WriteBytes(biomes)

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true)
	w.WriteUint16(uint16(mask))
	w.WriteByteArray(col.Bytes())
}

// writePreFlatSection emits a 1.9-1.12 section: legacy ids behind a
// palette with inline light.
func (e *Emitter) writePreFlatSection(w *codec.Writer, s section) {
	writeLegacyPalette(w, s.palette, 13, false)
	w.WriteBytes(make([]byte, 2048))
	if e.Dimension.HasSkyLight() {
		w.WriteBytes(make([]byte, 2048))
	}
}

// write19 is the 1.9-1.12.2 body.
func (e *Emitter) write19(w *codec.Writer, v version.Protocol, cx, cz int32, sections []section) {
	mask := sectionMask(v, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		e.writePreFlatSection(col, s)
	})
	biomes := make([]byte, 256)
	for i := range biomes {
		biomes[i] = uint8(e.Biome)
	}
	col.WriteBytes(biomes)

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true)
	w.WriteVarInt(int32(mask))
	w.WriteByteArray(col.Bytes())
	if v.AtLeast(version.V1_9_4) {
		w.WriteVarInt(0) // tile entities
	}
}

// write113 is the 1.13-1.13.2 body: flattened ids, int biomes.
func (e *Emitter) write113(w *codec.Writer, cx, cz int32, sections []section) {
	mask := sectionMask(version.V1_13, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		writeLegacyPalette(col, s.palette, 14, false)
		col.WriteBytes(make([]byte, 2048))
		if e.Dimension.HasSkyLight() {
			col.WriteBytes(make([]byte, 2048))
		}
	})
	for i := 0; i < 256; i++ {
		col.WriteInt32(e.Biome)
	}

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true)
	w.WriteVarInt(int32(mask))
	w.WriteByteArray(col.Bytes())
	w.WriteVarInt(0)
}

// write114 is the 1.14.x body: heightmaps appear, light moves out of
// the chunk, biomes trail the section data.
func (e *Emitter) write114(w *codec.Writer, v version.Protocol, cx, cz int32, sections []section) {
	mask := sectionMask(v, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		col.WriteInt16(s.nonAir)
		writeLegacyPalette(col, s.palette, 14, false)
	})
	for i := 0; i < 256; i++ {
		col.WriteInt32(e.Biome)
	}

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true)
	w.WriteVarInt(int32(mask))
	nbt.Write(w, "", nbt.Compound())
	w.WriteByteArray(col.Bytes())
	w.WriteVarInt(0)
}

// write115 is the 1.15.x body: biomes become their own 1024-int field.
func (e *Emitter) write115(w *codec.Writer, cx, cz int32, sections []section) {
	e.writeBiomeGrid(w, version.V1_15, cx, cz, sections, false)
}

// write116 is the 1.16/1.16.1 body: padded long packing, a transient
// forget-old-data flag.
func (e *Emitter) write116(w *codec.Writer, cx, cz int32, sections []section) {
	e.writeBiomeGrid(w, version.V1_16, cx, cz, sections, true)
}

func (e *Emitter) writeBiomeGrid(w *codec.Writer, v version.Protocol, cx, cz int32, sections []section, padded bool) {
	mask := sectionMask(v, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		col.WriteInt16(s.nonAir)
		writeLegacyPalette(col, s.palette, 14, padded)
	})

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true)
	if padded {
		w.WriteBool(false) // forget old data
	}
	w.WriteVarInt(int32(mask))
	nbt.Write(w, "", nbt.Compound())
	for i := 0; i < 1024; i++ {
		w.WriteInt32(e.Biome)
	}
	w.WriteByteArray(col.Bytes())
	w.WriteVarInt(0)
}

// write1162 is the 1.16.2-1.16.5 body: VarInt biome array.
func (e *Emitter) write1162(w *codec.Writer, cx, cz int32, sections []section) {
	mask := sectionMask(version.V1_16_2, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		col.WriteInt16(s.nonAir)
		writeLegacyPalette(col, s.palette, 15, true)
	})

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	w.WriteBool(true)
	w.WriteVarInt(int32(mask))
	nbt.Write(w, "", nbt.Compound())
	w.WriteVarInt(1024)
	for i := 0; i < 1024; i++ {
		w.WriteVarInt(e.Biome)
	}
	w.WriteByteArray(col.Bytes())
	w.WriteVarInt(0)
}

// write117 is the 1.17.x body: the section mask becomes a BitSet and
// the full-chunk flag disappears.
func (e *Emitter) write117(w *codec.Writer, v version.Protocol, cx, cz int32, sections []section) {
	mask := sectionMask(v, sections)

	col := codec.NewWriter()
	forEachMasked(mask, sections, func(s section) {
		col.WriteInt16(s.nonAir)
		writeLegacyPalette(col, s.palette, 15, true)
	})

	w.WriteInt32(cx)
	w.WriteInt32(cz)
	if mask == 0 {
		w.WriteVarInt(0)
	} else {
		w.WriteVarInt(1)
		w.WriteUint64(uint64(mask))
	}
	nbt.Write(w, "", nbt.Compound())
	w.WriteVarInt(1024)
	for i := 0; i < 1024; i++ {
		w.WriteVarInt(e.Biome)
	}
	w.WriteByteArray(col.Bytes())
	w.WriteVarInt(0)
}

// writeLegacyPalette emits a pre-1.18 block container: bits, optional
// palette, long array with a length prefix.
func writeLegacyPalette(w *codec.Writer, p Palette, directBits int, padded bool) {
	var bits int
	var values []uint32
	switch p.Kind {
	case PaletteDirect:
		bits = directBits
		values = cellIDs(p)
	default:
		entries := p.Entries
		indices := p.Indices
		if p.Kind == PaletteSingle {
			entries = []int32{p.Single}
			indices = make([]uint16, SectionVolume)
		}
		bits = bitsFor(len(entries))
		if bits < 4 {
			bits = 4
		}
		values = make([]uint32, len(indices))
		for i, idx := range indices {
			values[i] = uint32(idx)
		}
		w.WriteUint8(uint8(bits))
		w.WriteVarInt(int32(len(entries)))
		for _, id := range entries {
			w.WriteVarInt(id)
		}
		longs := packLongs(values, bits, padded)
		w.WriteVarInt(int32(len(longs)))
		for _, l := range longs {
			w.WriteUint64(l)
		}
		return
	}
	w.WriteUint8(uint8(bits))
	longs := packLongs(values, bits, padded)
	w.WriteVarInt(int32(len(longs)))
	for _, l := range longs {
		w.WriteUint64(l)
	}
}

// writeModern is the 1.18+ body: every section present, block and biome
// paletted containers, embedded empty light.
func (e *Emitter) writeModern(w *codec.Writer, v version.Protocol, cx, cz int32, sections []section) {
	w.WriteInt32(cx)
	w.WriteInt32(cz)

	if v.AtLeast(version.V1_21_5) {
		w.WriteVarInt(0) // heightmaps (type, longs) pairs
	} else {
		nbt.WriteNetwork(w, "", nbt.Compound(), packet.NBTOptions(v))
	}

	col := codec.NewWriter()
	for _, s := range sections {
		col.WriteInt16(s.nonAir)
		writeModernContainer(col, v, s.palette, 4, 8, 15)
		writeModernContainer(col, v, SinglePalette(e.Biome), 1, 3, 6)
	}
	w.WriteByteArray(col.Bytes())

	w.WriteVarInt(0) // block entities
	if v < version.V1_20 {
		w.WriteBool(true) // trust edges
	}
	w.WriteVarInt(0) // sky light mask
	w.WriteVarInt(0) // block light mask
	w.WriteVarInt(0) // empty sky light mask
	w.WriteVarInt(0) // empty block light mask
	w.WriteVarInt(0) // sky light arrays
	w.WriteVarInt(0) // block light arrays
}

// writeModernContainer emits a 1.18+ paletted container. 1.21.5 dropped
// the long-array length prefix.
func writeModernContainer(w *codec.Writer, v version.Protocol, p Palette, minBits, maxBits, directBits int) {
	withLen := v < version.V1_21_5

	switch p.Kind {
	case PaletteSingle:
		w.WriteUint8(0)
		w.WriteVarInt(p.Single)
		if withLen {
			w.WriteVarInt(0)
		}
	case PalettePaletted:
		bits := bitsFor(len(p.Entries))
		if bits < minBits {
			bits = minBits
		}
		if bits > maxBits {
			bits = maxBits
		}
		w.WriteUint8(uint8(bits))
		w.WriteVarInt(int32(len(p.Entries)))
		for _, id := range p.Entries {
			w.WriteVarInt(id)
		}
		values := make([]uint32, len(p.Indices))
		for i, idx := range p.Indices {
			values[i] = uint32(idx)
		}
		longs := packLongs(values, bits, true)
		if withLen {
			w.WriteVarInt(int32(len(longs)))
		}
		for _, l := range longs {
			w.WriteUint64(l)
		}
	default:
		w.WriteUint8(uint8(directBits))
		longs := packLongs(cellIDs(p), directBits, true)
		if withLen {
			w.WriteVarInt(int32(len(longs)))
		}
		for _, l := range longs {
			w.WriteUint64(l)
		}
	}
}
