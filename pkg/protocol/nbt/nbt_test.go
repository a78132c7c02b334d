package nbt

import (
	"errors"
	"reflect"
	"testing"

	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
)

func sample() Value {
	return Compound(
		Entry("name", String("limbo")),
		Entry("count", Int(42)),
		Entry("nested", Compound(
			Entry("flag", Byte(1)),
			Entry("ratio", Double(0.5)),
		)),
		Entry("ids", List(TagInt, Int(1), Int(2), Int(3))),
		Entry("raw", Value{Tag: TagByteArray, ByteArray: []byte{1, 2, 3}}),
		Entry("longs", Value{Tag: TagLongArray, LongArray: []int64{-1, 0, 1}}),
	)
}

func TestRoundTripNamedRoot(t *testing.T) {
	w := codec.NewWriter()
	Write(w, "root", sample())

	name, got, err := Read(codec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if name != "root" {
		t.Errorf("root name = %q, want %q", name, "root")
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, sample())
	}
}

func TestRoundTripNamelessRoot(t *testing.T) {
	opts := Options{NamelessRoot: true}

	w := codec.NewWriter()
	WriteNetwork(w, "ignored", sample(), opts)

	name, got, err := ReadNetwork(codec.NewReader(w.Bytes()), opts)
	if err != nil {
		t.Fatal(err)
	}
	if name != "" {
		t.Errorf("nameless root returned name %q", name)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
}

func TestNamelessRootShorter(t *testing.T) {
	named := codec.NewWriter()
	Write(named, "root", sample())

	nameless := codec.NewWriter()
	WriteNetwork(nameless, "root", sample(), Options{NamelessRoot: true})

	// The nameless form drops exactly the 2-byte length plus name bytes.
	if diff := named.Len() - nameless.Len(); diff != 2+len("root") {
		t.Errorf("size difference = %d, want %d", diff, 2+len("root"))
	}
}

func TestHeterogeneousList(t *testing.T) {
	opts := Options{NamelessRoot: true, HeterogeneousLists: true}
	mixed := Compound(
		Entry("mixed", Value{Tag: TagList, ElementTag: TagInt, List: []Value{
			Int(7),
			String("seven"),
		}}),
	)

	w := codec.NewWriter()
	WriteNetwork(w, "", mixed, opts)

	_, got, err := ReadNetwork(codec.NewReader(w.Bytes()), opts)
	if err != nil {
		t.Fatal(err)
	}
	list, ok := got.Get("mixed")
	if !ok || list.Tag != TagList {
		t.Fatalf("missing mixed list: %+v", got)
	}
	if len(list.List) != 2 || list.List[0].Int != 7 || list.List[1].String != "seven" {
		t.Errorf("mixed list round-trip: %+v", list.List)
	}
}

func TestEmptyListNonZeroElementTag(t *testing.T) {
	// An empty list is allowed to declare a non-End element tag.
	v := Compound(Entry("empty", List(TagCompound)))

	w := codec.NewWriter()
	Write(w, "", v)

	_, got, err := Read(codec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	list, ok := got.Get("empty")
	if !ok || list.Tag != TagList || len(list.List) != 0 {
		t.Fatalf("empty list round-trip: %+v", list)
	}
	if list.ElementTag != TagCompound {
		t.Errorf("element tag = %d, want TagCompound", list.ElementTag)
	}
}

func TestUnknownTagFails(t *testing.T) {
	_, _, err := Read(codec.NewReader([]byte{0x0D, 0x00, 0x00}))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("unknown tag: got %v, want ErrMalformed", err)
	}
}

func TestTruncatedCompoundFails(t *testing.T) {
	w := codec.NewWriter()
	Write(w, "root", sample())
	wire := w.Bytes()

	// Drop the trailing End sentinel plus a payload byte.
	if _, _, err := Read(codec.NewReader(wire[:len(wire)-2])); err == nil {
		t.Fatal("truncated compound decoded without error")
	}
}

func TestGet(t *testing.T) {
	v := sample()
	if _, ok := v.Get("missing"); ok {
		t.Error("Get(missing) reported present")
	}
	got, ok := v.Get("count")
	if !ok || got.Int != 42 {
		t.Errorf("Get(count) = %+v, %v", got, ok)
	}
}
