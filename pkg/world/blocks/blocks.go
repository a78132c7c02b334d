// Package blocks holds the block-state registry: an internal id space
// shared across versions plus per-version report tables that remap
// internal ids to each version's wire ids at emission time.
package blocks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joelkoen/picolimbo/pkg/assets"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

const AirName = "minecraft:air"

var (
	ErrUnknownBlock = errors.New("unknown block")
	ErrUnknownState = errors.New("unknown block state")
)

// State is one block state: its property assignment and internal id.
type State struct {
	Properties map[string]string
	InternalID int32
}

// Block is a named block with its states and default internal id.
type Block struct {
	Name      string
	States    []State
	DefaultID int32
}

// Registry answers internal-id lookups for schematic pastes and
// report-id lookups for chunk emission.
type Registry struct {
	blocks  map[string]*Block
	air     int32
	reports map[version.Protocol][]int32
}

const mappingFormat = 1

// NewRegistry assembles a registry from already-decoded blocks and
// per-version report tables.
func NewRegistry(bs []Block, reports map[version.Protocol][]int32) (*Registry, error) {
	reg := &Registry{blocks: make(map[string]*Block, len(bs)), air: -1, reports: reports}
	for i := range bs {
		b := bs[i]
		reg.blocks[b.Name] = &b
	}
	air, ok := reg.blocks[AirName]
	if !ok {
		return nil, fmt.Errorf("mapping has no %s", AirName)
	}
	reg.air = air.DefaultID
	return reg, nil
}

// Load reads the internal mapping and one block report per supported
// version from the asset store.
func Load(store *assets.Store) (*Registry, error) {
	raw, err := store.InternalMapping()
	if err != nil {
		return nil, err
	}
	reg, err := parseMapping(raw)
	if err != nil {
		return nil, fmt.Errorf("internal_mapping.bin: %w", err)
	}

	reg.reports = make(map[version.Protocol][]int32, len(version.All()))
	for _, v := range version.All() {
		data, err := store.BlockReport(int32(v))
		if err != nil {
			return nil, err
		}
		var table []int32
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("blocks/%d.json: %w", v, err)
		}
		reg.reports[v] = table
	}
	return reg, nil
}

// parseMapping decodes the internal mapping table. Layout: a format
// byte, then a VarInt block count, then per block the name, the default
// state index, and the states as (internal id, property pairs).
func parseMapping(raw []byte) (*Registry, error) {
	r := codec.NewReader(raw)
	format, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if format != mappingFormat {
		return nil, fmt.Errorf("unsupported mapping format %d", format)
	}
	blockCount, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if blockCount < 0 {
		return nil, codec.ErrNegativeLength
	}

	reg := &Registry{blocks: make(map[string]*Block, blockCount), air: -1}
	for i := int32(0); i < blockCount; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		defaultIdx, err := r.ReadVarInt()
		if err != nil {
			return nil, err
		}
		stateCount, err := r.ReadVarInt()
		if err != nil {
			return nil, err
		}
		if stateCount <= 0 || defaultIdx < 0 || defaultIdx >= stateCount {
			return nil, fmt.Errorf("block %s: bad state table", name)
		}

		b := &Block{Name: name, States: make([]State, 0, stateCount)}
		for j := int32(0); j < stateCount; j++ {
			id, err := r.ReadVarInt()
			if err != nil {
				return nil, err
			}
			propCount, err := r.ReadVarInt()
			if err != nil {
				return nil, err
			}
			if propCount < 0 {
				return nil, codec.ErrNegativeLength
			}
			var props map[string]string
			if propCount > 0 {
				props = make(map[string]string, propCount)
			}
			for k := int32(0); k < propCount; k++ {
				key, err := r.ReadString()
				if err != nil {
					return nil, err
				}
				val, err := r.ReadString()
				if err != nil {
					return nil, err
				}
				props[key] = val
			}
			b.States = append(b.States, State{Properties: props, InternalID: id})
		}
		b.DefaultID = b.States[defaultIdx].InternalID
		reg.blocks[name] = b
	}

	air, ok := reg.blocks[AirName]
	if !ok {
		return nil, fmt.Errorf("mapping has no %s", AirName)
	}
	reg.air = air.DefaultID
	return reg, nil
}

// AirID is the canonical internal id used as the fill for empty
// sections.
func (r *Registry) AirID() int32 { return r.air }

// InternalID resolves (name, properties) to an internal id. Properties
// left unspecified take the block's default values.
func (r *Registry) InternalID(name string, props map[string]string) (int32, error) {
	b, ok := r.blocks[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
	}
	if len(props) == 0 {
		return b.DefaultID, nil
	}

	var defaults map[string]string
	for _, s := range b.States {
		if s.InternalID == b.DefaultID {
			defaults = s.Properties
			break
		}
	}
	for _, s := range b.States {
		if stateMatches(s.Properties, props, defaults) {
			return s.InternalID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %v", ErrUnknownState, name, props)
}

// stateMatches reports whether a state carries every requested property
// value, with unrequested properties at their defaults.
func stateMatches(state, want, defaults map[string]string) bool {
	if len(state) < len(want) {
		return false
	}
	for key, val := range state {
		if w, ok := want[key]; ok {
			if w != val {
				return false
			}
			continue
		}
		if val != defaults[key] {
			return false
		}
	}
	return true
}

// ReportID remaps an internal id to a version's wire id. Ids the
// version does not know collapse to its air id.
func (r *Registry) ReportID(v version.Protocol, internal int32) int32 {
	table := r.reports[v]
	if internal < 0 || int(internal) >= len(table) {
		return r.reportAir(v)
	}
	id := table[internal]
	if id < 0 {
		return r.reportAir(v)
	}
	return id
}

func (r *Registry) reportAir(v version.Protocol) int32 {
	table := r.reports[v]
	if r.air >= 0 && int(r.air) < len(table) && table[r.air] >= 0 {
		return table[r.air]
	}
	return 0
}
