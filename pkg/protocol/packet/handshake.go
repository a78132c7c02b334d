package packet

// Intention is the first packet of every connection. NextState selects the
// follow-up state: 1 status, 2 login, 3 transfer.
type Intention struct {
	Protocol  int32
	Hostname  string
	Port      uint16
	NextState int32
}

func (p *Intention) Name() string { return "minecraft:intention" }

func (p *Intention) Fields() []Field {
	return []Field{
		fVarInt("protocol", &p.Protocol),
		fString("hostname", &p.Hostname),
		fUint16("port", &p.Port),
		fVarInt("next_state", &p.NextState),
	}
}

// Intention NextState values.
const (
	NextStateStatus   int32 = 1
	NextStateLogin    int32 = 2
	NextStateTransfer int32 = 3
)
