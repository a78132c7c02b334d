// Package nbt implements the Named Binary Tag format used by Minecraft for
// structured values, including the two network-mode variants: nameless root
// compounds (protocol 1.20.2+) and heterogeneous lists (protocol 1.21.5+).
//
// Values form a tagged union; consumers switch on Value.Tag and read the
// matching payload field. Strings inside NBT are prefixed by an unsigned
// 16-bit big-endian length, unlike the VarInt-prefixed wire strings.
package nbt

import "errors"

// Tag identifies the payload type of a Value.
type Tag uint8

const (
	TagEnd Tag = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray

	tagMax = TagLongArray
)

var (
	// ErrMalformed indicates structurally invalid NBT (unknown tag id,
	// negative length, truncated payload).
	ErrMalformed = errors.New("nbt: malformed data")

	// ErrTooDeep indicates nesting beyond the supported depth.
	ErrTooDeep = errors.New("nbt: nesting too deep")
)

// maxDepth bounds compound/list nesting to keep hostile payloads from
// exhausting the stack.
const maxDepth = 512

// Value is a single NBT value. Only the payload field matching Tag is
// meaningful; the rest are zero.
type Value struct {
	Tag Tag

	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []byte
	String    string

	// ElementTag is the declared element type of a List. An empty list may
	// declare TagEnd. Under heterogeneous-list serialization the field is
	// ignored on the wire and each element carries its own tag.
	ElementTag Tag
	List       []Value

	// Compound preserves insertion order; lookup is linear.
	Compound []Named

	IntArray  []int32
	LongArray []int64
}

// Named pairs a compound entry name with its value.
type Named struct {
	Name  string
	Value Value
}

// Options select the network-mode serialization variants.
type Options struct {
	// NamelessRoot omits the root tag's name field (protocol >= 764).
	NamelessRoot bool

	// HeterogeneousLists writes lists in tag-per-element form, allowing
	// mixed element types (protocol >= 770).
	HeterogeneousLists bool
}

// Byte returns a TagByte value.
func Byte(v int8) Value { return Value{Tag: TagByte, Byte: v} }

// Short returns a TagShort value.
func Short(v int16) Value { return Value{Tag: TagShort, Short: v} }

// Int returns a TagInt value.
func Int(v int32) Value { return Value{Tag: TagInt, Int: v} }

// Long returns a TagLong value.
func Long(v int64) Value { return Value{Tag: TagLong, Long: v} }

// Float returns a TagFloat value.
func Float(v float32) Value { return Value{Tag: TagFloat, Float: v} }

// Double returns a TagDouble value.
func Double(v float64) Value { return Value{Tag: TagDouble, Double: v} }

// String returns a TagString value.
func String(v string) Value { return Value{Tag: TagString, String: v} }

// List returns a TagList value with the given declared element tag.
func List(elem Tag, values ...Value) Value {
	return Value{Tag: TagList, ElementTag: elem, List: values}
}

// Compound returns a TagCompound value preserving entry order.
func Compound(entries ...Named) Value {
	return Value{Tag: TagCompound, Compound: entries}
}

// Entry builds a named compound entry.
func Entry(name string, v Value) Named { return Named{Name: name, Value: v} }

// Get returns the named entry of a compound, if present.
func (v Value) Get(name string) (Value, bool) {
	if v.Tag != TagCompound {
		return Value{}, false
	}
	for _, e := range v.Compound {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// IsCompound reports whether the value is a compound.
func (v Value) IsCompound() bool { return v.Tag == TagCompound }
