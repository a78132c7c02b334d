package nbt

import (
	"fmt"

	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
)

// Read deserializes a named root value in the classic disk format.
func Read(r *codec.Reader) (string, Value, error) {
	return ReadNetwork(r, Options{})
}

// ReadNetwork deserializes a root value under the given network options.
// With NamelessRoot the returned name is always empty.
func ReadNetwork(r *codec.Reader, opts Options) (string, Value, error) {
	tag, err := readTag(r)
	if err != nil {
		return "", Value{}, err
	}
	var name string
	if !opts.NamelessRoot {
		name, err = readName(r)
		if err != nil {
			return "", Value{}, err
		}
	}
	v, err := readPayload(r, tag, opts, 0)
	if err != nil {
		return "", Value{}, err
	}
	return name, v, nil
}

func readTag(r *codec.Reader) (Tag, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return 0, err
	}
	if Tag(b) > tagMax {
		return 0, fmt.Errorf("%w: unknown tag %#x", ErrMalformed, b)
	}
	return Tag(b), nil
}

func readName(r *codec.Reader) (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readPayload(r *codec.Reader, tag Tag, opts Options, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, ErrTooDeep
	}

	v := Value{Tag: tag}
	var err error

	switch tag {
	case TagEnd:
	case TagByte:
		v.Byte, err = r.ReadInt8()
	case TagShort:
		v.Short, err = r.ReadInt16()
	case TagInt:
		v.Int, err = r.ReadInt32()
	case TagLong:
		v.Long, err = r.ReadInt64()
	case TagFloat:
		v.Float, err = r.ReadFloat32()
	case TagDouble:
		v.Double, err = r.ReadFloat64()
	case TagByteArray:
		var n int32
		if n, err = r.ReadInt32(); err != nil {
			break
		}
		if n < 0 {
			return Value{}, fmt.Errorf("%w: negative byte array length", ErrMalformed)
		}
		v.ByteArray, err = r.ReadBytes(int(n))
	case TagString:
		v.String, err = readName(r)
	case TagList:
		v, err = readList(r, opts, depth)
	case TagCompound:
		for {
			var entryTag Tag
			if entryTag, err = readTag(r); err != nil {
				break
			}
			if entryTag == TagEnd {
				break
			}
			var name string
			if name, err = readName(r); err != nil {
				break
			}
			var entry Value
			if entry, err = readPayload(r, entryTag, opts, depth+1); err != nil {
				break
			}
			v.Compound = append(v.Compound, Named{Name: name, Value: entry})
		}
	case TagIntArray:
		var n int32
		if n, err = r.ReadInt32(); err != nil {
			break
		}
		if n < 0 {
			return Value{}, fmt.Errorf("%w: negative int array length", ErrMalformed)
		}
		v.IntArray = make([]int32, n)
		for i := range v.IntArray {
			if v.IntArray[i], err = r.ReadInt32(); err != nil {
				break
			}
		}
	case TagLongArray:
		var n int32
		if n, err = r.ReadInt32(); err != nil {
			break
		}
		if n < 0 {
			return Value{}, fmt.Errorf("%w: negative long array length", ErrMalformed)
		}
		v.LongArray = make([]int64, n)
		for i := range v.LongArray {
			if v.LongArray[i], err = r.ReadInt64(); err != nil {
				break
			}
		}
	}

	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func readList(r *codec.Reader, opts Options, depth int) (Value, error) {
	v := Value{Tag: TagList}

	if opts.HeterogeneousLists {
		n, err := r.ReadInt32()
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{}, fmt.Errorf("%w: negative list length", ErrMalformed)
		}
		for i := int32(0); i < n; i++ {
			tag, err := readTag(r)
			if err != nil {
				return Value{}, err
			}
			e, err := readPayload(r, tag, opts, depth+1)
			if err != nil {
				return Value{}, err
			}
			v.List = append(v.List, e)
		}
		if len(v.List) > 0 {
			v.ElementTag = v.List[0].Tag
		}
		return v, nil
	}

	elem, err := readTag(r)
	if err != nil {
		return Value{}, err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return Value{}, err
	}
	if n < 0 {
		return Value{}, fmt.Errorf("%w: negative list length", ErrMalformed)
	}
	v.ElementTag = elem
	for i := int32(0); i < n; i++ {
		e, err := readPayload(r, elem, opts, depth+1)
		if err != nil {
			return Value{}, err
		}
		v.List = append(v.List, e)
	}
	return v, nil
}
