package codec

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Writer encodes protocol primitives into an owned, growing buffer.
// The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded buffer. The slice aliases the Writer's
// internal storage and is invalidated by further writes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len reports the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset truncates the buffer for reuse.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// WriteBytes appends raw bytes without a length prefix.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint8 appends one unsigned byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteInt8 appends one signed byte.
func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

// WriteBool appends a boolean as a single byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteUint16 appends a big-endian unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// WriteInt16 appends a big-endian signed 16-bit integer.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

// WriteUint32 appends a big-endian unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// WriteInt32 appends a big-endian signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 appends a big-endian unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

// WriteInt64 appends a big-endian signed 64-bit integer.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteFloat32 appends a big-endian IEEE-754 single-precision float.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a big-endian IEEE-754 double-precision float.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteVarInt appends a variable-width 32-bit integer.
func (w *Writer) WriteVarInt(v int32) {
	u := uint32(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if u == 0 {
			return
		}
	}
}

// WriteVarLong appends a variable-width 64-bit integer.
func (w *Writer) WriteVarLong(v int64) {
	u := uint64(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if u == 0 {
			return
		}
	}
}

// WriteString appends a VarInt byte length followed by the UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.WriteVarInt(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteUUID appends the 16 raw bytes of a UUID.
func (w *Writer) WriteUUID(id uuid.UUID) {
	w.buf = append(w.buf, id[:]...)
}

// WriteByteArray appends a VarInt length followed by the raw bytes.
func (w *Writer) WriteByteArray(b []byte) {
	w.WriteVarInt(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// VarIntSize reports how many bytes WriteVarInt would emit for v.
func VarIntSize(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}
