package codec

import "errors"

// Codec errors are fatal to the session that produced them: a malformed
// buffer means the stream can no longer be framed reliably.
var (
	// ErrUnexpectedEOF indicates the buffer ended before the value was complete.
	ErrUnexpectedEOF = errors.New("codec: unexpected end of buffer")

	// ErrVarIntTooLarge indicates a VarInt whose fifth byte still has the
	// continuation bit set.
	ErrVarIntTooLarge = errors.New("codec: VarInt exceeds 5 bytes")

	// ErrVarLongTooLarge indicates a VarLong whose tenth byte still has the
	// continuation bit set.
	ErrVarLongTooLarge = errors.New("codec: VarLong exceeds 10 bytes")

	// ErrStringTooLong indicates a string whose declared length exceeds the
	// server-side maximum of 32767 bytes.
	ErrStringTooLong = errors.New("codec: string exceeds maximum length")

	// ErrInvalidUTF8 indicates string bytes that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("codec: string is not valid UTF-8")

	// ErrNegativeLength indicates a length prefix that decoded to a
	// negative value.
	ErrNegativeLength = errors.New("codec: negative length prefix")
)
