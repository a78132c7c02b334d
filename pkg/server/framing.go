package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/klauspost/compress/zlib"

	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
)

// maxFrameSize bounds a single packet frame. The vanilla protocol caps
// frames at 2^21-1; anything larger is a malformed or hostile peer.
const maxFrameSize = 1 << 21

var errFrameTooLarge = errors.New("frame exceeds protocol maximum")

// frameConn layers Minecraft packet framing over a TCP connection:
// [length:VarInt][packet id + body], with the compressed inner layer
// [uncompressedLen:VarInt][zlib?] once a threshold is negotiated.
//
// Reads tolerate partial receives through the buffered reader; a frame
// is returned only once fully received. frameConn is not safe for
// concurrent use on the same direction; the session serializes writes
// through its outbound queue.
type frameConn struct {
	conn net.Conn
	r    *bufio.Reader

	// threshold is -1 while compression is off. Once set, frames at or
	// above it are deflated; smaller ones carry the 0 marker.
	threshold int
}

func newFrameConn(conn net.Conn) *frameConn {
	return &frameConn{conn: conn, r: bufio.NewReader(conn), threshold: -1}
}

// EnableCompression turns on the compressed framing layer for both
// directions. Takes effect for every frame after the call.
func (f *frameConn) EnableCompression(threshold int) {
	f.threshold = threshold
}

// readStreamVarInt reads a VarInt byte-by-byte from the stream.
func (f *frameConn) readStreamVarInt() (int32, error) {
	var out uint32
	for i := 0; i < 5; i++ {
		b, err := f.r.ReadByte()
		if err != nil {
			return 0, err
		}
		out |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(out), nil
		}
	}
	return 0, codec.ErrVarIntTooLarge
}

// ReadFrame returns the next packet body (id byte included), inflating
// the compressed layer when active.
func (f *frameConn) ReadFrame() ([]byte, error) {
	length, err := f.readStreamVarInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || length > maxFrameSize {
		return nil, errFrameTooLarge
	}
	frame := make([]byte, length)
	if _, err := io.ReadFull(f.r, frame); err != nil {
		return nil, err
	}
	if f.threshold < 0 {
		return frame, nil
	}

	r := codec.NewReader(frame)
	uncompressed, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if uncompressed == 0 {
		return r.ReadRemaining(), nil
	}
	if uncompressed > maxFrameSize {
		return nil, errFrameTooLarge
	}
	zr, err := zlib.NewReader(bytes.NewReader(r.ReadRemaining()))
	if err != nil {
		return nil, fmt.Errorf("inflate frame: %w", err)
	}
	defer zr.Close()
	body := make([]byte, uncompressed)
	if _, err := io.ReadFull(zr, body); err != nil {
		return nil, fmt.Errorf("inflate frame: %w", err)
	}
	return body, nil
}

// WriteFrame frames and writes a packet body (id byte included).
func (f *frameConn) WriteFrame(body []byte) error {
	frame, err := encodeFrame(body, f.threshold)
	if err != nil {
		return err
	}
	_, err = f.conn.Write(frame)
	return err
}

// encodeFrame builds the on-wire bytes for a packet body under the
// given compression threshold (-1 for none).
func encodeFrame(body []byte, threshold int) ([]byte, error) {
	w := codec.NewWriter()
	switch {
	case threshold < 0:
		w.WriteVarInt(int32(len(body)))
		w.WriteBytes(body)

	case len(body) < threshold:
		// Below threshold: 0 marker, body verbatim.
		w.WriteVarInt(int32(len(body)) + 1)
		w.WriteUint8(0)
		w.WriteBytes(body)

	default:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return nil, fmt.Errorf("deflate frame: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("deflate frame: %w", err)
		}
		inner := codec.NewWriter()
		inner.WriteVarInt(int32(len(body)))
		inner.WriteBytes(buf.Bytes())
		w.WriteVarInt(int32(inner.Len()))
		w.WriteBytes(inner.Bytes())
	}
	return w.Bytes(), nil
}
