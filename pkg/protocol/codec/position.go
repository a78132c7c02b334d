package codec

// Position is a block position packed into a single 64-bit field on the
// wire: x and z are 26-bit signed, y is 12-bit signed. 1.14 moved y from
// the middle of the word to the low bits, so both layouts are supported
// and the caller selects per protocol version.
type Position struct {
	X int32
	Y int32
	Z int32
}

// packedModern is the 1.14+ layout: x:26 | z:26 | y:12.
func (p Position) packedModern() uint64 {
	return (uint64(p.X)&0x3FFFFFF)<<38 | (uint64(p.Z)&0x3FFFFFF)<<12 | (uint64(p.Y) & 0xFFF)
}

// packedLegacy is the pre-1.14 layout: x:26 | y:12 | z:26.
func (p Position) packedLegacy() uint64 {
	return (uint64(p.X)&0x3FFFFFF)<<38 | (uint64(p.Y)&0xFFF)<<26 | (uint64(p.Z) & 0x3FFFFFF)
}

// WritePosition appends the packed position. modern selects the 1.14+
// bit layout.
func (w *Writer) WritePosition(p Position, modern bool) {
	if modern {
		w.WriteUint64(p.packedModern())
	} else {
		w.WriteUint64(p.packedLegacy())
	}
}

// ReadPosition reads a packed position. modern selects the 1.14+ bit layout.
func (r *Reader) ReadPosition(modern bool) (Position, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return Position{}, err
	}
	var p Position
	p.X = signExtend(int32(v>>38&0x3FFFFFF), 26)
	if modern {
		p.Y = signExtend(int32(v&0xFFF), 12)
		p.Z = signExtend(int32(v>>12&0x3FFFFFF), 26)
	} else {
		p.Y = signExtend(int32(v>>26&0xFFF), 12)
		p.Z = signExtend(int32(v&0x3FFFFFF), 26)
	}
	return p, nil
}

// signExtend interprets the low bits of v as a signed bits-wide integer.
func signExtend(v int32, bits uint) int32 {
	shift := 32 - bits
	return v << shift >> shift
}
