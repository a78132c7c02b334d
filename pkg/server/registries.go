package server

import (
	"fmt"

	"github.com/joelkoen/picolimbo/pkg/assets"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/packet"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// registryEntry is one element of a registry's value list: the entry
// identifier, its numeric id, and the element compound.
type registryEntry struct {
	Name    string
	ID      int32
	Element nbt.Value
}

// registry is one parsed registry payload: the vanilla codec form
// { "type": <name>, "value": [ { name, id, element } ] }.
type registry struct {
	Name    string
	Root    nbt.Value
	Entries []registryEntry
}

// registrySet holds every registry payload bundled per version. Built
// once at startup and shared read-only; versions without registry data
// (pre-1.16) simply have no entry.
type registrySet struct {
	byVersion map[version.Protocol][]registry
}

// loadRegistries parses registries/<pvn>/*.nbt for every supported
// version. A malformed payload is fatal; an absent directory is not.
func loadRegistries(store *assets.Store) (*registrySet, error) {
	set := &registrySet{byVersion: make(map[version.Protocol][]registry)}
	for _, v := range version.All() {
		files, err := store.Registries(int32(v))
		if err != nil {
			return nil, fmt.Errorf("registries for %s: %w", v.Name(), err)
		}
		if files == nil {
			continue
		}
		regs := make([]registry, 0, len(files))
		for _, f := range files {
			reg, err := parseRegistry(f)
			if err != nil {
				return nil, fmt.Errorf("registry %s for %s: %w", f.Name, v.Name(), err)
			}
			regs = append(regs, reg)
		}
		set.byVersion[v] = regs
	}
	return set, nil
}

func parseRegistry(f assets.RegistryFile) (registry, error) {
	_, root, err := nbt.Read(codec.NewReader(f.Data))
	if err != nil {
		return registry{}, err
	}
	reg := registry{Name: f.Name, Root: root}

	value, ok := root.Get("value")
	if !ok {
		return registry{}, fmt.Errorf("payload has no value list")
	}
	for _, elem := range value.List {
		var e registryEntry
		if name, ok := elem.Get("name"); ok {
			e.Name = name.String
		}
		if id, ok := elem.Get("id"); ok {
			e.ID = id.Int
		}
		if el, ok := elem.Get("element"); ok {
			e.Element = el
		}
		reg.Entries = append(reg.Entries, e)
	}
	return reg, nil
}

// MonolithicCodec assembles the single registry-codec compound used by
// the 1.16..1.20.4 login and configuration packets.
func (rs *registrySet) MonolithicCodec(v version.Protocol) nbt.Value {
	regs := rs.byVersion[v]
	entries := make([]nbt.Named, 0, len(regs))
	for _, reg := range regs {
		entries = append(entries, nbt.Entry(reg.Name, reg.Root))
	}
	return nbt.Compound(entries...)
}

// PerRegistryPackets builds the 1.20.5+ configuration stream: one
// registry_data packet per bundled registry, entries in file order.
func (rs *registrySet) PerRegistryPackets(v version.Protocol) []*packet.RegistryData {
	regs := rs.byVersion[v]
	out := make([]*packet.RegistryData, 0, len(regs))
	for _, reg := range regs {
		p := &packet.RegistryData{RegistryID: reg.Name}
		for _, e := range reg.Entries {
			elem := e.Element
			p.Entries = append(p.Entries, packet.RegistryEntry{ID: e.Name, Data: &elem})
		}
		out = append(out, p)
	}
	return out
}

// DimensionElement returns the dimension_type element compound for a
// dimension identifier, used by the 1.16.2..1.18.2 login packet.
func (rs *registrySet) DimensionElement(v version.Protocol, identifier string) (nbt.Value, bool) {
	for _, reg := range rs.byVersion[v] {
		if reg.Name != "minecraft:dimension_type" {
			continue
		}
		for _, e := range reg.Entries {
			if e.Name == identifier {
				return e.Element, true
			}
		}
	}
	return nbt.Value{}, false
}

// DimensionIndex returns the registry id of a dimension type, used by
// the 1.20.5+ login packet.
func (rs *registrySet) DimensionIndex(v version.Protocol, identifier string) int32 {
	for _, reg := range rs.byVersion[v] {
		if reg.Name != "minecraft:dimension_type" {
			continue
		}
		for _, e := range reg.Entries {
			if e.Name == identifier {
				return e.ID
			}
		}
	}
	return 0
}
