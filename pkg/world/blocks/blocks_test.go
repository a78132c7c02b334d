package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/joelkoen/picolimbo/pkg/assets"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

type testState struct {
	id    int32
	props map[string]string
}

type testBlock struct {
	name       string
	defaultIdx int32
	states     []testState
}

var testBlocks = []testBlock{
	{name: "minecraft:air", defaultIdx: 0, states: []testState{{id: 0}}},
	{name: "minecraft:stone", defaultIdx: 0, states: []testState{{id: 1}}},
	{name: "minecraft:oak_slab", defaultIdx: 1, states: []testState{
		{id: 2, props: map[string]string{"type": "top", "waterlogged": "false"}},
		{id: 3, props: map[string]string{"type": "bottom", "waterlogged": "false"}},
		{id: 4, props: map[string]string{"type": "top", "waterlogged": "true"}},
		{id: 5, props: map[string]string{"type": "bottom", "waterlogged": "true"}},
	}},
}

func encodeMapping(bs []testBlock) []byte {
	w := codec.NewWriter()
	w.WriteUint8(mappingFormat)
	w.WriteVarInt(int32(len(bs)))
	for _, b := range bs {
		w.WriteString(b.name)
		w.WriteVarInt(b.defaultIdx)
		w.WriteVarInt(int32(len(b.states)))
		for _, s := range b.states {
			w.WriteVarInt(s.id)
			w.WriteVarInt(int32(len(s.props)))
			for k, v := range s.props {
				w.WriteString(k)
				w.WriteString(v)
			}
		}
	}
	return w.Bytes()
}

func writeAssets(t *testing.T) *assets.Store {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "internal_mapping.bin"), encodeMapping(testBlocks), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "blocks"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Every version maps internal ids straight through except the
	// oldest, which predates slabs of this shape.
	for _, v := range version.All() {
		table := []int32{0, 10, 20, 21, 22, 23}
		if v == version.Oldest() {
			table = []int32{0, 10, -1, -1, -1, -1}
		}
		data, err := json.Marshal(table)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, "blocks", fmt.Sprintf("%d.json", int32(v))), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	s, err := assets.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadAndLookups(t *testing.T) {
	reg, err := Load(writeAssets(t))
	if err != nil {
		t.Fatal(err)
	}

	if reg.AirID() != 0 {
		t.Errorf("air id = %d", reg.AirID())
	}

	id, err := reg.InternalID("minecraft:stone", nil)
	if err != nil || id != 1 {
		t.Errorf("stone = %d, %v", id, err)
	}

	// No properties resolves to the block's default state.
	id, err = reg.InternalID("minecraft:oak_slab", nil)
	if err != nil || id != 3 {
		t.Errorf("oak_slab default = %d, %v", id, err)
	}

	// Full property assignment.
	id, err = reg.InternalID("minecraft:oak_slab", map[string]string{"type": "top", "waterlogged": "true"})
	if err != nil || id != 4 {
		t.Errorf("oak_slab[top,waterlogged] = %d, %v", id, err)
	}

	// Partial assignment fills the rest from the default state.
	id, err = reg.InternalID("minecraft:oak_slab", map[string]string{"type": "top"})
	if err != nil || id != 2 {
		t.Errorf("oak_slab[top] = %d, %v", id, err)
	}

	if _, err := reg.InternalID("minecraft:bedrock", nil); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("unknown block err = %v", err)
	}
	if _, err := reg.InternalID("minecraft:oak_slab", map[string]string{"type": "sideways"}); !errors.Is(err, ErrUnknownState) {
		t.Errorf("unknown state err = %v", err)
	}
}

func TestReportRemap(t *testing.T) {
	reg, err := Load(writeAssets(t))
	if err != nil {
		t.Fatal(err)
	}

	if got := reg.ReportID(version.Latest(), 3); got != 21 {
		t.Errorf("latest slab = %d", got)
	}
	// Unmapped on the oldest version collapses to its air id.
	if got := reg.ReportID(version.Oldest(), 3); got != 0 {
		t.Errorf("oldest slab = %d", got)
	}
	// Out of range collapses to air.
	if got := reg.ReportID(version.Latest(), 999); got != 0 {
		t.Errorf("out of range = %d", got)
	}
}

func TestLoadRejectsBadMapping(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "internal_mapping.bin"), []byte{99}, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := assets.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(s); err == nil {
		t.Error("bad format accepted")
	}
}
