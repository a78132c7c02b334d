package packet

import (
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// CustomPayload is the plugin-message packet, used clientbound for the
// minecraft:brand announcement and accepted serverbound for anything.
type CustomPayload struct {
	Channel string
	Data    []byte
}

func (p *CustomPayload) Name() string { return "minecraft:custom_payload" }

func (p *CustomPayload) Fields() []Field {
	return []Field{
		fString("channel", &p.Channel),
		fRemaining("data", &p.Data),
	}
}

// BrandPayload builds the minecraft:brand plugin message. The payload is a
// wire string (VarInt length prefix) inside the plugin-message body.
func BrandPayload(brand string) *CustomPayload {
	w := codec.NewWriter()
	w.WriteString(brand)
	return &CustomPayload{Channel: "minecraft:brand", Data: w.Bytes()}
}

// KnownPack identifies a data pack the server expects the client to know.
type KnownPack struct {
	Namespace string
	ID        string
	Version   string
}

// SelectKnownPacks (1.20.5+) announces the server's data packs before the
// registry stream; the client answers with the subset it has.
type SelectKnownPacks struct {
	Packs []KnownPack
}

func (p *SelectKnownPacks) Name() string { return "minecraft:select_known_packs" }

func (p *SelectKnownPacks) Fields() []Field {
	return []Field{
		fKnownPacks("packs", &p.Packs),
	}
}

// RegistryData carries registry contents during configuration. 1.20.2 to
// 1.20.4 send the monolithic registry codec; 1.20.5+ send one packet per
// registry with entries streamed as (id, has_data, nbt?).
type RegistryData struct {
	// Codec is the monolithic registry compound (1.20.2..1.20.4).
	Codec nbt.Value

	// RegistryID and Entries are the per-registry form (1.20.5+).
	RegistryID string
	Entries    []RegistryEntry
}

// RegistryEntry is one element of a 1.20.5+ registry packet. A nil Data
// tells the client to use its own built-in value for the id.
type RegistryEntry struct {
	ID   string
	Data *nbt.Value
}

func (p *RegistryData) Name() string { return "minecraft:registry_data" }

func (p *RegistryData) Fields() []Field {
	return []Field{
		fNBT("codec", &p.Codec).rng(version.V1_20_2, version.V1_20_5),
		fString("registry_id", &p.RegistryID).rng(version.V1_20_5, 0),
		fRegistryEntries("entries", &p.Entries).rng(version.V1_20_5, 0),
	}
}

// FinishConfiguration is sent by the server when the configuration stream
// is complete; the client echoes the serverbound form to enter play.
type FinishConfiguration struct{}

func (p *FinishConfiguration) Name() string    { return "minecraft:finish_configuration" }
func (p *FinishConfiguration) Fields() []Field { return nil }

// ConfigDisconnect is the configuration-state disconnect. The reason moved
// from JSON string to NBT in 1.20.3.
type ConfigDisconnect struct {
	ReasonJSON string
	Reason     nbt.Value
}

func (p *ConfigDisconnect) Name() string { return "minecraft:disconnect" }

func (p *ConfigDisconnect) Fields() []Field {
	return []Field{
		fString("reason", &p.ReasonJSON).rng(0, version.V1_20_3),
		fNBT("reason", &p.Reason).rng(version.V1_20_3, 0),
	}
}

// ClientInformation is accepted and ignored; its presence is all the
// server cares about.
type ClientInformation struct {
	Raw []byte
}

func (p *ClientInformation) Name() string { return "minecraft:client_information" }

func (p *ClientInformation) Fields() []Field {
	return []Field{
		fRemaining("raw", &p.Raw),
	}
}

func fKnownPacks(name string, p *[]KnownPack) Field {
	return Field{
		Name: name,
		Enc: func(w *codec.Writer, _ version.Protocol) {
			w.WriteVarInt(int32(len(*p)))
			for _, pack := range *p {
				w.WriteString(pack.Namespace)
				w.WriteString(pack.ID)
				w.WriteString(pack.Version)
			}
		},
		Dec: func(r *codec.Reader, _ version.Protocol) error {
			n, err := r.ReadVarInt()
			if err != nil {
				return err
			}
			if n < 0 {
				return codec.ErrNegativeLength
			}
			packs := make([]KnownPack, 0, n)
			for i := int32(0); i < n; i++ {
				var pack KnownPack
				if pack.Namespace, err = r.ReadString(); err != nil {
					return err
				}
				if pack.ID, err = r.ReadString(); err != nil {
					return err
				}
				if pack.Version, err = r.ReadString(); err != nil {
					return err
				}
				packs = append(packs, pack)
			}
			*p = packs
			return nil
		},
	}
}

func fRegistryEntries(name string, p *[]RegistryEntry) Field {
	return Field{
		Name: name,
		Enc: func(w *codec.Writer, v version.Protocol) {
			w.WriteVarInt(int32(len(*p)))
			for _, e := range *p {
				w.WriteString(e.ID)
				w.WriteBool(e.Data != nil)
				if e.Data != nil {
					nbt.WriteNetwork(w, "", *e.Data, NBTOptions(v))
				}
			}
		},
		Dec: func(r *codec.Reader, v version.Protocol) error {
			n, err := r.ReadVarInt()
			if err != nil {
				return err
			}
			if n < 0 {
				return codec.ErrNegativeLength
			}
			entries := make([]RegistryEntry, 0, n)
			for i := int32(0); i < n; i++ {
				var e RegistryEntry
				if e.ID, err = r.ReadString(); err != nil {
					return err
				}
				hasData, err := r.ReadBool()
				if err != nil {
					return err
				}
				if hasData {
					_, val, err := nbt.ReadNetwork(r, NBTOptions(v))
					if err != nil {
						return err
					}
					e.Data = &val
				}
				entries = append(entries, e)
			}
			*p = entries
			return nil
		},
	}
}
