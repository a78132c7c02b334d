package nbt

import (
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
)

// Write serializes a named root value in the classic disk format: the
// root carries its tag, name and payload.
func Write(w *codec.Writer, name string, v Value) {
	WriteNetwork(w, name, v, Options{})
}

// WriteNetwork serializes a root value under the given network options.
// With NamelessRoot the root name is omitted entirely.
func WriteNetwork(w *codec.Writer, name string, v Value, opts Options) {
	w.WriteUint8(uint8(v.Tag))
	if !opts.NamelessRoot {
		writeName(w, name)
	}
	writePayload(w, v, opts)
}

func writeName(w *codec.Writer, name string) {
	w.WriteUint16(uint16(len(name)))
	w.WriteBytes([]byte(name))
}

func writePayload(w *codec.Writer, v Value, opts Options) {
	switch v.Tag {
	case TagEnd:
	case TagByte:
		w.WriteInt8(v.Byte)
	case TagShort:
		w.WriteInt16(v.Short)
	case TagInt:
		w.WriteInt32(v.Int)
	case TagLong:
		w.WriteInt64(v.Long)
	case TagFloat:
		w.WriteFloat32(v.Float)
	case TagDouble:
		w.WriteFloat64(v.Double)
	case TagByteArray:
		w.WriteInt32(int32(len(v.ByteArray)))
		w.WriteBytes(v.ByteArray)
	case TagString:
		writeName(w, v.String)
	case TagList:
		writeList(w, v, opts)
	case TagCompound:
		for _, e := range v.Compound {
			w.WriteUint8(uint8(e.Value.Tag))
			writeName(w, e.Name)
			writePayload(w, e.Value, opts)
		}
		w.WriteUint8(uint8(TagEnd))
	case TagIntArray:
		w.WriteInt32(int32(len(v.IntArray)))
		for _, n := range v.IntArray {
			w.WriteInt32(n)
		}
	case TagLongArray:
		w.WriteInt32(int32(len(v.LongArray)))
		for _, n := range v.LongArray {
			w.WriteInt64(n)
		}
	}
}

func writeList(w *codec.Writer, v Value, opts Options) {
	if opts.HeterogeneousLists {
		// Tag-per-element form: no list-wide element tag on the wire.
		w.WriteInt32(int32(len(v.List)))
		for _, e := range v.List {
			w.WriteUint8(uint8(e.Tag))
			writePayload(w, e, opts)
		}
		return
	}

	elem := v.ElementTag
	if len(v.List) > 0 {
		elem = v.List[0].Tag
	}
	w.WriteUint8(uint8(elem))
	w.WriteInt32(int32(len(v.List)))
	for _, e := range v.List {
		writePayload(w, e, opts)
	}
}
