// Package codec implements the primitive wire types of the Minecraft Java
// Edition protocol: big-endian fixed-width integers, LEB128-style variable
// width integers (VarInt/VarLong), length-prefixed UTF-8 strings, raw UUIDs
// and packed block positions.
//
// A Reader advances an index over a borrowed byte slice; a Writer appends to
// an owned buffer. Every successful Writer encode followed by a Reader decode
// yields the original value.
package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxStringLength is the server-side maximum for the byte length of a
// wire string. Reads beyond this fail with ErrStringTooLong.
const MaxStringLength = 32767

// Reader decodes protocol primitives from a borrowed byte slice.
// The zero value is not usable; construct with NewReader.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf. The Reader borrows buf and never
// copies it; callers must not mutate buf while reading.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// ReadBytes consumes and returns the next n bytes. The returned slice
// aliases the underlying buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadRemaining consumes and returns all unread bytes.
func (r *Reader) ReadRemaining() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}

// ReadUint8 reads one unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadInt8 reads one signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadUint8()
	return int8(b), err
}

// ReadBool reads a boolean encoded as a single byte (non-zero is true).
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	return b != 0, err
}

// ReadUint16 reads a big-endian unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a big-endian unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a big-endian IEEE-754 single-precision float.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a big-endian IEEE-754 double-precision float.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadVarInt reads a variable-width 32-bit integer: 7 data bits per byte,
// high bit set on all but the last byte, at most 5 bytes. Negative values
// occupy the full 5 bytes (two's complement reinterpreted as unsigned,
// no zig-zag).
func (r *Reader) ReadVarInt() (int32, error) {
	var value uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(value), nil
		}
	}
	return 0, ErrVarIntTooLarge
}

// ReadVarLong reads a variable-width 64-bit integer (at most 10 bytes).
func (r *Reader) ReadVarLong() (int64, error) {
	var value uint64
	for i := 0; i < 10; i++ {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		value |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int64(value), nil
		}
	}
	return 0, ErrVarLongTooLarge
}

// ReadString reads a VarInt byte length followed by UTF-8 bytes. Lengths
// above MaxStringLength fail with ErrStringTooLong; invalid UTF-8 fails
// with ErrInvalidUTF8.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	if n > MaxStringLength {
		return "", ErrStringTooLong
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// ReadUUID reads 16 raw bytes as a UUID.
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// ReadByteArray reads a VarInt length followed by that many raw bytes.
func (r *Reader) ReadByteArray() ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	return r.ReadBytes(int(n))
}
