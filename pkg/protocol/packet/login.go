package packet

import (
	"github.com/google/uuid"
	"github.com/joelkoen/picolimbo/pkg/profile"
	"github.com/joelkoen/picolimbo/pkg/protocol/codec"
	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// Hello is the serverbound login start. The shape shifted several times:
// 1.19 added chat-session signature data, 1.19.1 an optional UUID, 1.19.3
// dropped the signature data again, and 1.20.2 made the UUID mandatory.
type Hello struct {
	Username string

	HasSigData   bool
	SigTimestamp int64
	SigPublicKey []byte
	SigSignature []byte

	HasUUID    bool
	PlayerUUID uuid.UUID
}

func (p *Hello) Name() string { return "minecraft:hello" }

func (p *Hello) Fields() []Field {
	return []Field{
		fString("username", &p.Username),
		fBool("has_sig_data", &p.HasSigData).rng(version.V1_19, version.V1_19_3),
		fInt64("sig_timestamp", &p.SigTimestamp).rng(version.V1_19, version.V1_19_3).when(func() bool { return p.HasSigData }),
		fByteArray("sig_public_key", &p.SigPublicKey).rng(version.V1_19, version.V1_19_3).when(func() bool { return p.HasSigData }),
		fByteArray("sig_signature", &p.SigSignature).rng(version.V1_19, version.V1_19_3).when(func() bool { return p.HasSigData }),
		fBool("has_uuid", &p.HasUUID).rng(version.V1_19_1, version.V1_20_2),
		fUUID("player_uuid", &p.PlayerUUID).rng(version.V1_19_1, version.V1_20_2).when(func() bool { return p.HasUUID }),
		fUUID("player_uuid", &p.PlayerUUID).rng(version.V1_20_2, 0),
	}
}

// LoginDisconnect carries a JSON text component; the login state kept the
// JSON form on every version.
type LoginDisconnect struct {
	Reason string
}

func (p *LoginDisconnect) Name() string { return "minecraft:login_disconnect" }

func (p *LoginDisconnect) Fields() []Field {
	return []Field{
		fString("reason", &p.Reason),
	}
}

// LoginCompression announces the compression threshold; every later packet
// uses the compressed framing.
type LoginCompression struct {
	Threshold int32
}

func (p *LoginCompression) Name() string { return "minecraft:login_compression" }

func (p *LoginCompression) Fields() []Field {
	return []Field{
		fVarInt("threshold", &p.Threshold),
	}
}

// CustomQuery is the clientbound login plugin request. The forwarding
// subsystem uses it to open the velocity:player_info exchange.
type CustomQuery struct {
	MessageID int32
	Channel   string
	Data      []byte
}

func (p *CustomQuery) Name() string { return "minecraft:custom_query" }

func (p *CustomQuery) Fields() []Field {
	return []Field{
		fVarInt("message_id", &p.MessageID),
		fString("channel", &p.Channel),
		fRemaining("data", &p.Data),
	}
}

// CustomQueryAnswer is the serverbound login plugin response.
type CustomQueryAnswer struct {
	MessageID  int32
	Successful bool
	Data       []byte
}

func (p *CustomQueryAnswer) Name() string { return "minecraft:custom_query_answer" }

func (p *CustomQueryAnswer) Fields() []Field {
	return []Field{
		fVarInt("message_id", &p.MessageID),
		fBool("successful", &p.Successful),
		fRemaining("data", &p.Data),
	}
}

// profileFields is the shared layout of the two login-success forms.
// Pre-1.16 the UUID travels as a dashed string; properties appeared in
// 1.19.
func profileFields(u *uuid.UUID, name *string, props *[]profile.Property) []Field {
	return []Field{
		fUUIDString("uuid", u).rng(0, version.V1_16),
		fUUID("uuid", u).rng(version.V1_16, 0),
		fString("username", name),
		fProperties("properties", props).rng(version.V1_19, 0),
	}
}

// GameProfile is the login success used through 1.21.1. The
// strict-error-handling flag existed only in 1.20.5..1.21.1.
type GameProfile struct {
	UUID                uuid.UUID
	Username            string
	Properties          []profile.Property
	StrictErrorHandling bool
}

func (p *GameProfile) Name() string { return "minecraft:game_profile" }

func (p *GameProfile) Fields() []Field {
	fields := profileFields(&p.UUID, &p.Username, &p.Properties)
	return append(fields,
		fBool("strict_error_handling", &p.StrictErrorHandling).rng(version.V1_20_5, version.V1_21_2),
	)
}

// LoginFinished replaced GameProfile in 1.21.2; same layout minus the
// strict-error-handling flag.
type LoginFinished struct {
	UUID       uuid.UUID
	Username   string
	Properties []profile.Property
}

func (p *LoginFinished) Name() string { return "minecraft:login_finished" }

func (p *LoginFinished) Fields() []Field {
	return profileFields(&p.UUID, &p.Username, &p.Properties)
}

// LoginAcknowledged moves a 1.20.2+ session into configuration. No fields.
type LoginAcknowledged struct{}

func (p *LoginAcknowledged) Name() string    { return "minecraft:login_acknowledged" }
func (p *LoginAcknowledged) Fields() []Field { return nil }

// fProperties encodes a profile property vector: VarInt count, then
// name, value and an optional signature per entry.
func fProperties(name string, p *[]profile.Property) Field {
	return Field{
		Name: name,
		Enc: func(w *codec.Writer, _ version.Protocol) {
			w.WriteVarInt(int32(len(*p)))
			for _, prop := range *p {
				w.WriteString(prop.Name)
				w.WriteString(prop.Value)
				w.WriteBool(prop.Signature != "")
				if prop.Signature != "" {
					w.WriteString(prop.Signature)
				}
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
			props := make([]profile.Property, 0, n)
			for i := int32(0); i < n; i++ {
				var prop profile.Property
				if prop.Name, err = r.ReadString(); err != nil {
					return err
				}
				if prop.Value, err = r.ReadString(); err != nil {
					return err
				}
				signed, err := r.ReadBool()
				if err != nil {
					return err
				}
				if signed {
					if prop.Signature, err = r.ReadString(); err != nil {
						return err
					}
				}
				props = append(props, prop)
			}
			*p = props
			return nil
		},
	}
}
