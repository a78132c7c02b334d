// Package packet declares every packet type the server reads or writes,
// together with the table-driven serializer that handles their
// version-conditional layouts.
//
// Each packet lists its fields in wire order. A field may carry a protocol
// version range: outside the range it keeps its zero value in memory and
// never appears on the wire. Fields whose type changed across versions are
// modeled as two fields with disjoint ranges. Encode and Decode walk the
// same list, so the two directions cannot drift apart.
package packet

import (
	"github.com/google/uuid"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// Packet is a declarative packet type: a canonical name plus an ordered
// field list. The same list drives both encode and decode.
type Packet interface {
	// Name is the canonical, version-stable packet name ("minecraft:hello").
	Name() string

	// Fields returns the ordered field list bound to the packet's storage.
	Fields() []Field
}

// Field is one wire field with an optional active version range and an
// optional runtime presence guard.
type Field struct {
	// Name is used in error messages only.
	Name string

	// Since is the first version the field appears in; zero means always.
	Since version.Protocol

	// Until is the first version the field no longer appears in (exclusive
	// upper bound); zero means open-ended.
	Until version.Protocol

	// When, if non-nil, gates the field on a runtime condition (an
	// "optional" prefixed by a boolean field earlier in the list).
	When func() bool

	Enc func(w *codec.Writer, v version.Protocol)
	Dec func(r *codec.Reader, v version.Protocol) error
}

// active reports whether the field participates at version v.
func (f *Field) active(v version.Protocol) bool {
	if f.Since != 0 && v < f.Since {
		return false
	}
	if f.Until != 0 && v >= f.Until {
		return false
	}
	if f.When != nil && !f.When() {
		return false
	}
	return true
}

// Encode serializes p for protocol version v.
func Encode(p Packet, w *codec.Writer, v version.Protocol) {
	for _, f := range p.Fields() {
		if f.active(v) {
			f.Enc(w, v)
		}
	}
}

// Decode deserializes p from r for protocol version v. On error the
// packet's storage is partially filled and must be discarded.
func Decode(p Packet, r *codec.Reader, v version.Protocol) error {
	for _, f := range p.Fields() {
		if !f.active(v) {
			continue
		}
		if err := f.Dec(r, v); err != nil {
			return err
		}
	}
	return nil
}

// rng attaches a version range to a field.
func (f Field) rng(since, until version.Protocol) Field {
	f.Since = since
	f.Until = until
	return f
}

// when attaches a runtime presence guard to a field.
func (f Field) when(cond func() bool) Field {
	f.When = cond
	return f
}

// Typed field constructors. Each binds a pointer into the packet struct.

func fBool(name string, p *bool) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteBool(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadBool()
			return
		},
	}
}

func fUint8(name string, p *uint8) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteUint8(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadUint8()
			return
		},
	}
}

func fInt8(name string, p *int8) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteInt8(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadInt8()
			return
		},
	}
}

func fUint16(name string, p *uint16) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteUint16(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadUint16()
			return
		},
	}
}

func fInt32(name string, p *int32) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteInt32(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadInt32()
			return
		},
	}
}

func fInt64(name string, p *int64) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteInt64(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadInt64()
			return
		},
	}
}

func fFloat32(name string, p *float32) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteFloat32(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadFloat32()
			return
		},
	}
}

func fFloat64(name string, p *float64) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteFloat64(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadFloat64()
			return
		},
	}
}

func fVarInt(name string, p *int32) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteVarInt(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadVarInt()
			return
		},
	}
}

func fVarLong(name string, p *int64) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteVarLong(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadVarLong()
			return
		},
	}
}

func fString(name string, p *string) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteString(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadString()
			return
		},
	}
}

func fUUID(name string, p *uuid.UUID) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteUUID(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadUUID()
			return
		},
	}
}

// fUUIDString is the pre-1.16 login-success form: the UUID as a dashed
// string rather than 16 raw bytes.
func fUUIDString(name string, p *uuid.UUID) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteString(p.String()) },
		Dec: func(r *codec.Reader, _ version.Protocol) error {
			s, err := r.ReadString()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return err
			}
			*p = id
			return nil
		},
	}
}

// fByteArray is a VarInt-length-prefixed byte vector.
func fByteArray(name string, p *[]byte) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteByteArray(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) (err error) {
			*p, err = r.ReadByteArray()
			return
		},
	}
}

// fRemaining is an unprefixed trailing byte blob: everything to the end of
// the packet body.
func fRemaining(name string, p *[]byte) Field {
	return Field{
		Name: name,
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteBytes(*p) },
		Dec: func(r *codec.Reader, _ version.Protocol) error {
			*p = r.ReadRemaining()
			return nil
		},
	}
}

// fPosition is a packed block position; the bit layout switches at 1.14.
func fPosition(name string, p *codec.Position) Field {
	return Field{
		Name: name,
		Enc: func(w *codec.Writer, v version.Protocol) {
			w.WritePosition(*p, v.AtLeast(version.V1_14))
		},
		Dec: func(r *codec.Reader, v version.Protocol) (err error) {
			*p, err = r.ReadPosition(v.AtLeast(version.V1_14))
			return
		},
	}
}

// fNBT is a network-mode NBT blob (nameless root from 1.20.2,
// heterogeneous lists from 1.21.5).
func fNBT(name string, p *nbt.Value) Field {
	return Field{
		Name: name,
		Enc: func(w *codec.Writer, v version.Protocol) {
			nbt.WriteNetwork(w, "", *p, NBTOptions(v))
		},
		Dec: func(r *codec.Reader, v version.Protocol) error {
			_, val, err := nbt.ReadNetwork(r, NBTOptions(v))
			if err != nil {
				return err
			}
			*p = val
			return nil
		},
	}
}

// NBTOptions returns the NBT network-mode flags for a protocol version.
func NBTOptions(v version.Protocol) nbt.Options {
	return nbt.Options{
		NamelessRoot:       v.AtLeast(version.V1_20_2),
		HeterogeneousLists: v.AtLeast(version.V1_21_5),
	}
}
