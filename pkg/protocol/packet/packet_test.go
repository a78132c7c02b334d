package packet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/joelkoen/picolimbo/pkg/profile"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/ids"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

func roundTrip(t *testing.T, v version.Protocol, in, out Packet) {
	t.Helper()
	w := codec.NewWriter()
	Encode(in, w, v)
	r := codec.NewReader(w.Bytes())
	if err := Decode(out, r, v); err != nil {
		t.Fatalf("decode %s at %s: %v", in.Name(), v.Name(), err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("decode %s at %s left %d bytes", in.Name(), v.Name(), r.Remaining())
	}
}

func TestIntentionRoundTrip(t *testing.T) {
	in := &Intention{Protocol: 769, Hostname: "play.example.org", Port: 25565, NextState: NextStateLogin}
	out := &Intention{}
	roundTrip(t, version.V1_21_4, in, out)
	if *out != *in {
		t.Errorf("round-trip: got %+v, want %+v", out, in)
	}
}

func TestHelloPerVersion(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	tests := []struct {
		v        version.Protocol
		in       *Hello
		wantUUID uuid.UUID
	}{
		// Pre-1.19: username only.
		{version.V1_8, &Hello{Username: "Alex"}, uuid.Nil},
		// 1.19: signature block, no UUID.
		{version.V1_19, &Hello{Username: "Alex", HasSigData: true, SigTimestamp: 99,
			SigPublicKey: []byte{1}, SigSignature: []byte{2}}, uuid.Nil},
		// 1.19.1: signature block plus optional UUID.
		{version.V1_19_1, &Hello{Username: "Alex", HasUUID: true, PlayerUUID: id}, id},
		// 1.19.3: optional UUID only.
		{version.V1_19_3, &Hello{Username: "Alex", HasUUID: true, PlayerUUID: id}, id},
		// 1.20.2+: mandatory UUID.
		{version.V1_21_4, &Hello{Username: "Alex", PlayerUUID: id}, id},
	}

	for _, tt := range tests {
		out := &Hello{}
		roundTrip(t, tt.v, tt.in, out)
		if out.Username != "Alex" {
			t.Errorf("%s: username = %q", tt.v.Name(), out.Username)
		}
		if out.PlayerUUID != tt.wantUUID {
			t.Errorf("%s: uuid = %s, want %s", tt.v.Name(), out.PlayerUUID, tt.wantUUID)
		}
	}
}

func TestVersionGatedFieldsAbsentFromWire(t *testing.T) {
	// At 1.8 the Hello packet is just the username string.
	in := &Hello{Username: "Alex", HasSigData: true, SigTimestamp: 42, PlayerUUID: uuid.Max}
	w := codec.NewWriter()
	Encode(in, w, version.V1_8)
	if got, want := w.Len(), 1+len("Alex"); got != want {
		t.Errorf("1.8 hello wire size = %d, want %d", got, want)
	}
}

func TestGameProfileUUIDForms(t *testing.T) {
	id := profile.OfflineUUID("Alex")
	in := &GameProfile{UUID: id, Username: "Alex"}

	// Pre-1.16: dashed string.
	w := codec.NewWriter()
	Encode(in, w, version.V1_8)
	r := codec.NewReader(w.Bytes())
	s, err := r.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if s != id.String() {
		t.Errorf("1.8 uuid string = %q, want %q", s, id.String())
	}

	// Modern: raw 16 bytes, then properties vector.
	in.Properties = []profile.Property{{Name: "textures", Value: "v", Signature: "s"}}
	out := &GameProfile{}
	roundTrip(t, version.V1_21, in, out)
	if out.UUID != id || out.Username != "Alex" {
		t.Errorf("modern profile = %+v", out)
	}
	if len(out.Properties) != 1 || out.Properties[0] != in.Properties[0] {
		t.Errorf("properties = %+v", out.Properties)
	}
}

func TestKeepAliveForms(t *testing.T) {
	for _, tt := range []struct {
		v    version.Protocol
		size int
	}{
		{version.V1_7_2, 4}, // int32
		{version.V1_8, 1},   // VarInt
		{version.V1_12_2, 8}, // int64
	} {
		in := &KeepAlive{ID: 7}
		w := codec.NewWriter()
		Encode(in, w, tt.v)
		if w.Len() != tt.size {
			t.Errorf("%s: keep_alive size = %d, want %d", tt.v.Name(), w.Len(), tt.size)
		}
		out := &KeepAlive{}
		roundTrip(t, tt.v, in, out)
		if out.ID != 7 {
			t.Errorf("%s: id = %d", tt.v.Name(), out.ID)
		}
	}
}

func TestPlayerPositionForms(t *testing.T) {
	in := &PlayerPosition{TeleportID: 3, X: 8.5, Y: 65, Z: 8.5, Yaw: 90, Pitch: -10}

	for _, v := range []version.Protocol{version.V1_7_2, version.V1_8, version.V1_9,
		version.V1_17, version.V1_19_4, version.V1_21_2, version.V1_21_4} {
		out := &PlayerPosition{}
		roundTrip(t, v, in, out)
		if out.X != in.X || out.Y != in.Y || out.Z != in.Z {
			t.Errorf("%s: position = %+v", v.Name(), out)
		}
		if v.AtLeast(version.V1_9) && out.TeleportID != 3 {
			t.Errorf("%s: teleport id = %d", v.Name(), out.TeleportID)
		}
	}
}

func TestLoginRoundTripAcrossEras(t *testing.T) {
	in := &Login{
		EntityID:            1,
		IsHardcore:          false,
		GameMode:            3,
		PreviousGameMode:    -1,
		WorldNames:          []string{"minecraft:the_end"},
		DimensionCodec:      nbt.Compound(),
		Dimension:           nbt.Compound(),
		DimensionName:       "minecraft:the_end",
		DimensionID:         1,
		DimensionTypeID:     2,
		WorldName:           "minecraft:the_end",
		HashedSeed:          12345,
		LevelType:           "flat",
		MaxPlayers:          20,
		ViewDistance:        2,
		SimulationDistance:  2,
		EnableRespawnScreen: true,
	}

	for _, v := range version.All() {
		out := &Login{}
		roundTrip(t, v, in, out)
		if out.EntityID != 1 {
			t.Errorf("%s: entity id = %d", v.Name(), out.EntityID)
		}
		if v.AtLeast(version.V1_14) && v < version.V1_20_2 && out.ViewDistance != 2 {
			t.Errorf("%s: view distance = %d", v.Name(), out.ViewDistance)
		}
		if v.AtLeast(version.V1_20_2) && out.GameMode != 3 {
			t.Errorf("%s: game mode = %d", v.Name(), out.GameMode)
		}
	}
}

func TestLoginLevelTypeThrough115(t *testing.T) {
	// 1.14 and 1.15 dropped difficulty but still carry the level-type
	// string between max-players and view-distance; it only disappears
	// at 1.16 when is_debug/is_flat replace it.
	in := &Login{GameMode: 3, DimensionID: 1, MaxPlayers: 20, LevelType: "flat", ViewDistance: 2}

	for _, v := range []version.Protocol{version.V1_14, version.V1_15, version.V1_15_2} {
		w := codec.NewWriter()
		Encode(in, w, v)
		r := codec.NewReader(w.Bytes())

		if _, err := r.ReadInt32(); err != nil { // entity id
			t.Fatal(err)
		}
		if _, err := r.ReadUint8(); err != nil { // game mode
			t.Fatal(err)
		}
		if _, err := r.ReadInt32(); err != nil { // dimension
			t.Fatal(err)
		}
		if v.AtLeast(version.V1_15) {
			if _, err := r.ReadInt64(); err != nil { // hashed seed
				t.Fatal(err)
			}
		}
		if mp, err := r.ReadUint8(); err != nil || mp != 20 {
			t.Fatalf("%s: max players = %d, %v", v.Name(), mp, err)
		}
		if lt, err := r.ReadString(); err != nil || lt != "flat" {
			t.Errorf("%s: level type = %q, %v", v.Name(), lt, err)
		}
		if vd, err := r.ReadVarInt(); err != nil || vd != 2 {
			t.Errorf("%s: view distance = %d, %v", v.Name(), vd, err)
		}
	}
}

func TestRegistryDataForms(t *testing.T) {
	// Monolithic form (1.20.2..1.20.4).
	mono := &RegistryData{Codec: nbt.Compound(nbt.Entry("k", nbt.Int(1)))}
	out := &RegistryData{}
	roundTrip(t, version.V1_20_2, mono, out)
	if v, ok := out.Codec.Get("k"); !ok || v.Int != 1 {
		t.Errorf("monolithic codec = %+v", out.Codec)
	}

	// Per-registry form (1.20.5+).
	data := nbt.Compound(nbt.Entry("height", nbt.Int(256)))
	per := &RegistryData{
		RegistryID: "minecraft:dimension_type",
		Entries: []RegistryEntry{
			{ID: "minecraft:the_end", Data: &data},
			{ID: "minecraft:overworld"},
		},
	}
	out = &RegistryData{}
	roundTrip(t, version.V1_21_4, per, out)
	if out.RegistryID != per.RegistryID || len(out.Entries) != 2 {
		t.Fatalf("per-registry = %+v", out)
	}
	if out.Entries[0].Data == nil || out.Entries[1].Data != nil {
		t.Errorf("entry data presence = %+v", out.Entries)
	}
}

func TestSystemChatNBTForm(t *testing.T) {
	in := &SystemChat{Content: nbt.String("You fell"), Overlay: false}
	out := &SystemChat{}
	roundTrip(t, version.V1_21_4, in, out)
	if out.Content.String != "You fell" {
		t.Errorf("content = %+v", out.Content)
	}
}

func TestNewServerbound(t *testing.T) {
	if p := NewServerbound(ids.StateHandshake, "minecraft:intention"); p == nil {
		t.Error("intention constructor missing")
	}
	if p := NewServerbound(ids.StateTransfer, "minecraft:hello"); p == nil {
		t.Error("transfer should share login constructors")
	}
	if p := NewServerbound(ids.StatePlay, "minecraft:swing"); p != nil {
		t.Error("unmodeled packet should return nil")
	}
}

func TestBrandPayload(t *testing.T) {
	p := BrandPayload("PicoLimbo")
	if p.Channel != "minecraft:brand" {
		t.Errorf("channel = %q", p.Channel)
	}
	r := codec.NewReader(p.Data)
	s, err := r.ReadString()
	if err != nil || s != "PicoLimbo" {
		t.Errorf("brand payload = %q, %v", s, err)
	}
}
