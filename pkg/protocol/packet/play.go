package packet

import (
	"github.com/google/uuid"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/nbt"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// Login is the clientbound join packet. It is the most version-sensitive
// packet the server emits; 1.20.2 reshuffled the field order wholesale, so
// the layout is expressed as a shared prefix plus two disjoint-range
// blocks binding the same storage.
type Login struct {
	EntityID   int32
	IsHardcore bool

	GameMode         uint8
	PreviousGameMode int8

	WorldNames []string

	// DimensionCodec is the monolithic registry compound (1.16..1.20.1).
	DimensionCodec nbt.Value
	// Dimension is the 1.16.2..1.18.2 dimension-type compound.
	Dimension nbt.Value
	// DimensionName is the dimension identifier (1.16..1.16.1 and 1.19+).
	DimensionName string
	// DimensionID is the pre-1.16 numeric dimension.
	DimensionID int32
	// DimensionTypeID is the 1.20.5+ registry index.
	DimensionTypeID int32

	WorldName  string
	HashedSeed int64
	Difficulty uint8
	LevelType  string

	MaxPlayers         int32
	ViewDistance       int32
	SimulationDistance int32

	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	DoLimitedCrafting   bool
	IsDebug             bool
	IsFlat              bool

	HasDeathLocation bool
	DeathDimension   string
	DeathPosition    codec.Position

	PortalCooldown      int32
	SeaLevel            int32
	StrictErrorHandling bool
	EnforcesSecureChat  bool
}

func (p *Login) Name() string { return "minecraft:login" }

func (p *Login) Fields() []Field {
	hasDeath := func() bool { return p.HasDeathLocation }

	fields := []Field{
		fInt32("entity_id", &p.EntityID),
		fBool("is_hardcore", &p.IsHardcore).rng(version.V1_16_2, 0),
	}

	// Pre-1.20.2 layout.
	fields = append(fields,
		fUint8("game_mode", &p.GameMode).rng(0, version.V1_20_2),
		fInt8("previous_game_mode", &p.PreviousGameMode).rng(version.V1_16, version.V1_20_2),
		fStringList("world_names", &p.WorldNames).rng(version.V1_16, version.V1_20_2),
		fNBT("dimension_codec", &p.DimensionCodec).rng(version.V1_16, version.V1_20_2),
		fNBT("dimension", &p.Dimension).rng(version.V1_16_2, version.V1_19),
		fString("dimension_name", &p.DimensionName).rng(version.V1_16, version.V1_16_2),
		fString("dimension_name", &p.DimensionName).rng(version.V1_19, version.V1_20_2),
		fInt32("dimension_id", &p.DimensionID).rng(version.V1_9_1, version.V1_16),
		fDimensionInt8(&p.DimensionID).rng(0, version.V1_9_1),
		fUint8("difficulty", &p.Difficulty).rng(0, version.V1_14),
		fString("world_name", &p.WorldName).rng(version.V1_16, version.V1_20_2),
		fInt64("hashed_seed", &p.HashedSeed).rng(version.V1_15, version.V1_20_2),
		fMaxPlayersUint8(&p.MaxPlayers).rng(0, version.V1_16),
		fVarInt("max_players", &p.MaxPlayers).rng(version.V1_16, version.V1_20_2),
		fString("level_type", &p.LevelType).rng(0, version.V1_16),
		fVarInt("view_distance", &p.ViewDistance).rng(version.V1_14, version.V1_20_2),
		fVarInt("simulation_distance", &p.SimulationDistance).rng(version.V1_18, version.V1_20_2),
		fBool("reduced_debug_info", &p.ReducedDebugInfo).rng(version.V1_8, version.V1_20_2),
		fBool("enable_respawn_screen", &p.EnableRespawnScreen).rng(version.V1_15, version.V1_20_2),
		fBool("is_debug", &p.IsDebug).rng(version.V1_16, version.V1_20_2),
		fBool("is_flat", &p.IsFlat).rng(version.V1_16, version.V1_20_2),
		fBool("has_death_location", &p.HasDeathLocation).rng(version.V1_19, version.V1_20_2),
		fString("death_dimension", &p.DeathDimension).rng(version.V1_19, version.V1_20_2).when(hasDeath),
		fPosition("death_position", &p.DeathPosition).rng(version.V1_19, version.V1_20_2).when(hasDeath),
		fVarInt("portal_cooldown", &p.PortalCooldown).rng(version.V1_20, version.V1_20_2),
	)

	// 1.20.2+ layout.
	fields = append(fields,
		fStringList("world_names", &p.WorldNames).rng(version.V1_20_2, 0),
		fVarInt("max_players", &p.MaxPlayers).rng(version.V1_20_2, 0),
		fVarInt("view_distance", &p.ViewDistance).rng(version.V1_20_2, 0),
		fVarInt("simulation_distance", &p.SimulationDistance).rng(version.V1_20_2, 0),
		fBool("reduced_debug_info", &p.ReducedDebugInfo).rng(version.V1_20_2, 0),
		fBool("enable_respawn_screen", &p.EnableRespawnScreen).rng(version.V1_20_2, 0),
		fBool("do_limited_crafting", &p.DoLimitedCrafting).rng(version.V1_20_2, 0),
		fString("dimension_type", &p.DimensionName).rng(version.V1_20_2, version.V1_20_5),
		fVarInt("dimension_type", &p.DimensionTypeID).rng(version.V1_20_5, 0),
		fString("world_name", &p.WorldName).rng(version.V1_20_2, 0),
		fInt64("hashed_seed", &p.HashedSeed).rng(version.V1_20_2, 0),
		fUint8("game_mode", &p.GameMode).rng(version.V1_20_2, 0),
		fInt8("previous_game_mode", &p.PreviousGameMode).rng(version.V1_20_2, 0),
		fBool("is_debug", &p.IsDebug).rng(version.V1_20_2, 0),
		fBool("is_flat", &p.IsFlat).rng(version.V1_20_2, 0),
		fBool("has_death_location", &p.HasDeathLocation).rng(version.V1_20_2, 0),
		fString("death_dimension", &p.DeathDimension).rng(version.V1_20_2, 0).when(hasDeath),
		fPosition("death_position", &p.DeathPosition).rng(version.V1_20_2, 0).when(hasDeath),
		fVarInt("portal_cooldown", &p.PortalCooldown).rng(version.V1_20_2, 0),
		fVarInt("sea_level", &p.SeaLevel).rng(version.V1_21_2, 0),
		fBool("strict_error_handling", &p.StrictErrorHandling).rng(version.V1_20_5, version.V1_21_2),
		fBool("enforces_secure_chat", &p.EnforcesSecureChat).rng(version.V1_21_2, 0),
	)

	return fields
}

// SetDefaultSpawnPosition anchors the compass and the respawn point.
// 1.17 added the yaw angle.
type SetDefaultSpawnPosition struct {
	Position codec.Position
	Angle    float32
}

func (p *SetDefaultSpawnPosition) Name() string { return "minecraft:set_default_spawn_position" }

func (p *SetDefaultSpawnPosition) Fields() []Field {
	return []Field{
		fPosition("position", &p.Position),
		fFloat32("angle", &p.Angle).rng(version.V1_17, 0),
	}
}

// SetChunkCacheCenter (1.14+) tells the client which chunk column the
// view-distance square is centered on.
type SetChunkCacheCenter struct {
	ChunkX int32
	ChunkZ int32
}

func (p *SetChunkCacheCenter) Name() string { return "minecraft:set_chunk_cache_center" }

func (p *SetChunkCacheCenter) Fields() []Field {
	return []Field{
		fVarInt("chunk_x", &p.ChunkX),
		fVarInt("chunk_z", &p.ChunkZ),
	}
}

// GameEvent signals generic game state changes; the server uses event 13,
// start-waiting-for-chunks (1.20.3+).
type GameEvent struct {
	Event uint8
	Value float32
}

// GameEventStartWaitingForChunks is the event id the 1.20.3+ client waits
// for before leaving the "Loading terrain" screen.
const GameEventStartWaitingForChunks uint8 = 13

func (p *GameEvent) Name() string { return "minecraft:game_event" }

func (p *GameEvent) Fields() []Field {
	return []Field{
		fUint8("event", &p.Event),
		fFloat32("value", &p.Value),
	}
}

// PlayerPosition synchronizes the client to an absolute position. 1.21.2
// rebuilt the packet around a leading teleport id and a velocity triple.
type PlayerPosition struct {
	TeleportID int32
	X, Y, Z    float64
	VelX       float64
	VelY       float64
	VelZ       float64
	Yaw        float32
	Pitch      float32
	Flags      int32
	Dismount   bool
	OnGround   bool
}

func (p *PlayerPosition) Name() string { return "minecraft:player_position" }

func (p *PlayerPosition) Fields() []Field {
	return []Field{
		fVarInt("teleport_id", &p.TeleportID).rng(version.V1_21_2, 0),
		fFloat64("x", &p.X),
		fFloat64("y", &p.Y),
		fFloat64("z", &p.Z),
		fFloat64("vel_x", &p.VelX).rng(version.V1_21_2, 0),
		fFloat64("vel_y", &p.VelY).rng(version.V1_21_2, 0),
		fFloat64("vel_z", &p.VelZ).rng(version.V1_21_2, 0),
		fFloat32("yaw", &p.Yaw),
		fFloat32("pitch", &p.Pitch),
		fFlagsUint8(&p.Flags).rng(version.V1_8, version.V1_21_2),
		fInt32("flags", &p.Flags).rng(version.V1_21_2, 0),
		fVarInt("teleport_id", &p.TeleportID).rng(version.V1_9, version.V1_21_2),
		fBool("dismount", &p.Dismount).rng(version.V1_17, version.V1_19_4),
		fBool("on_ground", &p.OnGround).rng(0, version.V1_8),
	}
}

// KeepAlive is used in both directions; the id shrank and grew over the
// years (int32, then VarInt, then int64 from 1.12.2).
type KeepAlive struct {
	ID int64
}

func (p *KeepAlive) Name() string { return "minecraft:keep_alive" }

func (p *KeepAlive) Fields() []Field {
	return []Field{
		{
			Name:  "id",
			Until: version.V1_8,
			Enc:   func(w *codec.Writer, _ version.Protocol) { w.WriteInt32(int32(p.ID)) },
			Dec: func(r *codec.Reader, _ version.Protocol) error {
				v, err := r.ReadInt32()
				p.ID = int64(v)
				return err
			},
		},
		{
			Name:  "id",
			Since: version.V1_8,
			Until: version.V1_12_2,
			Enc:   func(w *codec.Writer, _ version.Protocol) { w.WriteVarInt(int32(p.ID)) },
			Dec: func(r *codec.Reader, _ version.Protocol) error {
				v, err := r.ReadVarInt()
				p.ID = int64(v)
				return err
			},
		},
		fInt64("id", &p.ID).rng(version.V1_12_2, 0),
	}
}

// SystemChat (1.19+) displays a system message; the content moved from
// JSON to NBT in 1.20.3.
type SystemChat struct {
	ContentJSON string
	Content     nbt.Value
	Overlay     bool
}

func (p *SystemChat) Name() string { return "minecraft:system_chat" }

func (p *SystemChat) Fields() []Field {
	return []Field{
		fString("content", &p.ContentJSON).rng(0, version.V1_20_3),
		fNBT("content", &p.Content).rng(version.V1_20_3, 0),
		fBool("overlay", &p.Overlay),
	}
}

// LegacyChat is the pre-1.19 chat packet used for system messages.
type LegacyChat struct {
	JSON     string
	Position int8
	Sender   uuid.UUID
}

func (p *LegacyChat) Name() string { return "minecraft:chat" }

func (p *LegacyChat) Fields() []Field {
	return []Field{
		fString("json", &p.JSON),
		fInt8("position", &p.Position).rng(version.V1_8, 0),
		fUUID("sender", &p.Sender).rng(version.V1_16, 0),
	}
}

// SetTime drives the daylight cycle. A negative time-of-day freezes the
// client-side cycle before 1.21.2; 1.21.2 added an explicit flag.
type SetTime struct {
	WorldAge       int64
	TimeOfDay      int64
	TimeIncreasing bool
}

func (p *SetTime) Name() string { return "minecraft:set_time" }

func (p *SetTime) Fields() []Field {
	return []Field{
		fInt64("world_age", &p.WorldAge),
		fInt64("time_of_day", &p.TimeOfDay),
		fBool("time_increasing", &p.TimeIncreasing).rng(version.V1_21_2, 0),
	}
}

// TabList sets the player-list header and footer; JSON before 1.20.3, NBT
// after.
type TabList struct {
	HeaderJSON string
	Header     nbt.Value
	FooterJSON string
	Footer     nbt.Value
}

func (p *TabList) Name() string { return "minecraft:tab_list" }

func (p *TabList) Fields() []Field {
	return []Field{
		fString("header", &p.HeaderJSON).rng(0, version.V1_20_3),
		fNBT("header", &p.Header).rng(version.V1_20_3, 0),
		fString("footer", &p.FooterJSON).rng(0, version.V1_20_3),
		fNBT("footer", &p.Footer).rng(version.V1_20_3, 0),
	}
}

// PlayDisconnect is the play-state disconnect; JSON before 1.20.3, NBT
// after.
type PlayDisconnect struct {
	ReasonJSON string
	Reason     nbt.Value
}

func (p *PlayDisconnect) Name() string { return "minecraft:disconnect" }

func (p *PlayDisconnect) Fields() []Field {
	return []Field{
		fString("reason", &p.ReasonJSON).rng(0, version.V1_20_3),
		fNBT("reason", &p.Reason).rng(version.V1_20_3, 0),
	}
}

// AcceptTeleportation confirms a PlayerPosition teleport.
type AcceptTeleportation struct {
	TeleportID int32
}

func (p *AcceptTeleportation) Name() string { return "minecraft:accept_teleportation" }

func (p *AcceptTeleportation) Fields() []Field {
	return []Field{
		fVarInt("teleport_id", &p.TeleportID),
	}
}

// MovePlayerPos reports the player's feet position. 1.21.2 replaced the
// on-ground boolean with a flags byte; the server only reads FeetY.
type MovePlayerPos struct {
	X        float64
	FeetY    float64
	Z        float64
	Stance   float64
	OnGround bool
	Flags    uint8
}

func (p *MovePlayerPos) Name() string { return "minecraft:move_player_pos" }

func (p *MovePlayerPos) Fields() []Field {
	return []Field{
		fFloat64("x", &p.X),
		fFloat64("feet_y", &p.FeetY),
		fFloat64("stance", &p.Stance).rng(0, version.V1_8),
		fFloat64("z", &p.Z),
		fBool("on_ground", &p.OnGround).rng(0, version.V1_21_2),
		fUint8("flags", &p.Flags).rng(version.V1_21_2, 0),
	}
}

// MovePlayerPosRot is MovePlayerPos plus the look direction.
type MovePlayerPosRot struct {
	X        float64
	FeetY    float64
	Z        float64
	Stance   float64
	Yaw      float32
	Pitch    float32
	OnGround bool
	Flags    uint8
}

func (p *MovePlayerPosRot) Name() string { return "minecraft:move_player_pos_rot" }

func (p *MovePlayerPosRot) Fields() []Field {
	return []Field{
		fFloat64("x", &p.X),
		fFloat64("feet_y", &p.FeetY),
		fFloat64("stance", &p.Stance).rng(0, version.V1_8),
		fFloat64("z", &p.Z),
		fFloat32("yaw", &p.Yaw),
		fFloat32("pitch", &p.Pitch),
		fBool("on_ground", &p.OnGround).rng(0, version.V1_21_2),
		fUint8("flags", &p.Flags).rng(version.V1_21_2, 0),
	}
}

// Version-specific helper fields for Login and PlayerPosition.

// fDimensionInt8 is the pre-1.9.1 single-byte dimension id.
func fDimensionInt8(p *int32) Field {
	return Field{
		Name: "dimension_id",
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteInt8(int8(*p)) },
		Dec: func(r *codec.Reader, _ version.Protocol) error {
			v, err := r.ReadInt8()
			*p = int32(v)
			return err
		},
	}
}

// fMaxPlayersUint8 is the pre-1.16 single-byte max player count.
func fMaxPlayersUint8(p *int32) Field {
	return Field{
		Name: "max_players",
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteUint8(uint8(*p)) },
		Dec: func(r *codec.Reader, _ version.Protocol) error {
			v, err := r.ReadUint8()
			*p = int32(v)
			return err
		},
	}
}

// fFlagsUint8 is the 1.8..1.21.1 relative-teleport flags byte.
func fFlagsUint8(p *int32) Field {
	return Field{
		Name: "flags",
		Enc:  func(w *codec.Writer, _ version.Protocol) { w.WriteUint8(uint8(*p)) },
		Dec: func(r *codec.Reader, _ version.Protocol) error {
			v, err := r.ReadUint8()
			*p = int32(v)
			return err
		},
	}
}

// fStringList is a VarInt-count-prefixed vector of wire strings.
func fStringList(name string, p *[]string) Field {
	return Field{
		Name: name,
		Enc: func(w *codec.Writer, _ version.Protocol) {
			w.WriteVarInt(int32(len(*p)))
			for _, s := range *p {
				w.WriteString(s)
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
			out := make([]string, 0, n)
			for i := int32(0); i < n; i++ {
				s, err := r.ReadString()
				if err != nil {
					return err
				}
				out = append(out, s)
			}
			*p = out
			return nil
		},
	}
}
