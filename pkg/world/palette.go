package world

// SectionVolume is the cell count of a 16x16x16 chunk section.
const SectionVolume = 16 * 16 * 16

// PaletteKind selects the palette representation for a section.
type PaletteKind uint8

const (
	PaletteSingle PaletteKind = iota
	PalettePaletted
	PaletteDirect
)

// maxPalettedEntries is the distinct-id threshold above which a section
// stores ids directly instead of through a palette.
const maxPalettedEntries = 256

// Palette is the block (or biome) content of one section in compact
// form. Ids are internal ids; remapping to a version's report ids
// happens at emission time.
type Palette struct {
	Kind PaletteKind

	// Single holds the id when Kind == PaletteSingle.
	Single int32

	// Entries and Indices hold the distinct ids and per-cell palette
	// indices when Kind == PalettePaletted.
	Entries []int32
	Indices []uint16

	// Cells holds per-cell ids when Kind == PaletteDirect.
	Cells []int32
}

// SinglePalette is the palette for a section filled with one id.
func SinglePalette(id int32) Palette {
	return Palette{Kind: PaletteSingle, Single: id}
}

// BuildPalette picks the smallest representation for a full section of
// cells: Single for one distinct id, Paletted up to 256, Direct beyond.
func BuildPalette(cells []int32) Palette {
	index := make(map[int32]uint16)
	entries := make([]int32, 0, 16)
	indices := make([]uint16, len(cells))
	for i, id := range cells {
		pos, ok := index[id]
		if !ok {
			if len(entries) == maxPalettedEntries {
				out := make([]int32, len(cells))
				copy(out, cells)
				return Palette{Kind: PaletteDirect, Cells: out}
			}
			pos = uint16(len(entries))
			index[id] = pos
			entries = append(entries, id)
		}
		indices[i] = pos
	}
	if len(entries) == 1 {
		return SinglePalette(entries[0])
	}
	return Palette{Kind: PalettePaletted, Entries: entries, Indices: indices}
}

// Remap applies an id translation, preserving the representation.
func (p Palette) Remap(f func(int32) int32) Palette {
	switch p.Kind {
	case PaletteSingle:
		return SinglePalette(f(p.Single))
	case PalettePaletted:
		entries := make([]int32, len(p.Entries))
		for i, id := range p.Entries {
			entries[i] = f(id)
		}
		return Palette{Kind: PalettePaletted, Entries: entries, Indices: p.Indices}
	default:
		cells := make([]int32, len(p.Cells))
		for i, id := range p.Cells {
			cells[i] = f(id)
		}
		return Palette{Kind: PaletteDirect, Cells: cells}
	}
}

// bitsFor is the width needed to index n values.
func bitsFor(n int) int {
	bits := 0
	for 1<<bits < n {
		bits++
	}
	return bits
}

// packLongs packs values of the given bit width into longs. Padded
// packing never splits a value across longs (1.16+); spanning packing
// fills every bit (pre-1.16).
func packLongs(values []uint32, bits int, padded bool) []uint64 {
	if bits == 0 || len(values) == 0 {
		return nil
	}
	if padded {
		perLong := 64 / bits
		longs := make([]uint64, (len(values)+perLong-1)/perLong)
		for i, v := range values {
			longs[i/perLong] |= uint64(v) << (uint(i%perLong) * uint(bits))
		}
		return longs
	}
	longs := make([]uint64, (len(values)*bits+63)/64)
	for i, v := range values {
		bit := i * bits
		idx, off := bit/64, uint(bit%64)
		longs[idx] |= uint64(v) << off
		if off+uint(bits) > 64 {
			longs[idx+1] |= uint64(v) >> (64 - off)
		}
	}
	return longs
}
