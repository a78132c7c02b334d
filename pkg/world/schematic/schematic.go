// Package schematic parses Sponge-format .schem files (versions 1
// through 3) into internal block ids for pasting at spawn.
package schematic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/world/blocks"
)

var ErrMalformed = errors.New("schematic: malformed file")

// Schematic is a parsed region. Blocks are stored as internal ids in
// (y, z, x) order; coordinates outside the region read as air.
type Schematic struct {
	Width  int32
	Height int32
	Length int32

	blocks []int32
	air    int32
}

// Parse decompresses and decodes a .schem file, resolving every palette
// entry to an internal id through the block registry.
func Parse(data []byte, reg *blocks.Registry) (*Schematic, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	_, root, err := nbt.Read(codec.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// Version 3 nests everything under a "Schematic" compound.
	if inner, ok := root.Get("Schematic"); ok && inner.IsCompound() {
		root = inner
	}

	width, ok := shortField(root, "Width")
	if !ok {
		return nil, fmt.Errorf("%w: missing Width", ErrMalformed)
	}
	height, ok := shortField(root, "Height")
	if !ok {
		return nil, fmt.Errorf("%w: missing Height", ErrMalformed)
	}
	length, ok := shortField(root, "Length")
	if !ok {
		return nil, fmt.Errorf("%w: missing Length", ErrMalformed)
	}

	palette, blockData, err := blockContainer(root)
	if err != nil {
		return nil, err
	}

	// Palette entries are "name[prop=value,...]" keyed to indices.
	ids := make(map[int32]int32, len(palette.Compound))
	for _, e := range palette.Compound {
		if e.Value.Tag != nbt.TagInt {
			return nil, fmt.Errorf("%w: palette entry %s", ErrMalformed, e.Name)
		}
		name, props := splitState(e.Name)
		id, err := reg.InternalID(name, props)
		if err != nil {
			return nil, fmt.Errorf("schematic palette: %w", err)
		}
		ids[e.Value.Int] = id
	}

	volume := int(width) * int(height) * int(length)
	cells := make([]int32, 0, volume)
	r := codec.NewReader(blockData)
	for r.Remaining() > 0 {
		idx, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: block data", ErrMalformed)
		}
		id, ok := ids[idx]
		if !ok {
			return nil, fmt.Errorf("%w: palette index %d", ErrMalformed, idx)
		}
		cells = append(cells, id)
	}
	if len(cells) != volume {
		return nil, fmt.Errorf("%w: %d cells for %dx%dx%d", ErrMalformed, len(cells), width, height, length)
	}

	return &Schematic{
		Width:  int32(width),
		Height: int32(height),
		Length: int32(length),
		blocks: cells,
		air:    reg.AirID(),
	}, nil
}

// BlockAt returns the internal id at region coordinates, air outside.
func (s *Schematic) BlockAt(x, y, z int32) int32 {
	if x < 0 || y < 0 || z < 0 || x >= s.Width || y >= s.Height || z >= s.Length {
		return s.air
	}
	return s.blocks[(int(y)*int(s.Length)+int(z))*int(s.Width)+int(x)]
}

func shortField(c nbt.Value, name string) (int16, bool) {
	v, ok := c.Get(name)
	if !ok || v.Tag != nbt.TagShort {
		return 0, false
	}
	return v.Short, true
}

// blockContainer finds the palette compound and block-index bytes in
// either the flat v1/v2 layout or the v3 Blocks compound.
func blockContainer(root nbt.Value) (nbt.Value, []byte, error) {
	if inner, ok := root.Get("Blocks"); ok && inner.IsCompound() {
		palette, ok := inner.Get("Palette")
		if !ok || !palette.IsCompound() {
			return nbt.Value{}, nil, fmt.Errorf("%w: missing Blocks.Palette", ErrMalformed)
		}
		data, ok := inner.Get("Data")
		if !ok || data.Tag != nbt.TagByteArray {
			return nbt.Value{}, nil, fmt.Errorf("%w: missing Blocks.Data", ErrMalformed)
		}
		return palette, data.ByteArray, nil
	}

	palette, ok := root.Get("Palette")
	if !ok || !palette.IsCompound() {
		return nbt.Value{}, nil, fmt.Errorf("%w: missing Palette", ErrMalformed)
	}
	data, ok := root.Get("BlockData")
	if !ok || data.Tag != nbt.TagByteArray {
		return nbt.Value{}, nil, fmt.Errorf("%w: missing BlockData", ErrMalformed)
	}
	return palette, data.ByteArray, nil
}

// splitState parses "minecraft:oak_slab[type=top,waterlogged=false]".
func splitState(s string) (string, map[string]string) {
	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return s, nil
	}
	name := s[:open]
	props := make(map[string]string)
	for _, pair := range strings.Split(s[open+1:len(s)-1], ",") {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return name, props
}

// readUvarint reads the unsigned varint index encoding BlockData uses.
// It is not the wire VarInt: values are plain LEB128 without sign.
func readUvarint(r *codec.Reader) (int32, error) {
	var v uint32
	var shift uint
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return int32(v), nil
		}
		shift += 7
		if shift >= 35 {
			return 0, ErrMalformed
		}
	}
}
