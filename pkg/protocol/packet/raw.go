package packet

// Raw is a pre-serialized packet body paired with a canonical name. The
// chunk emitter builds its payloads directly and hands them over as Raw;
// the session still resolves the numeric id per version as usual.
type Raw struct {
	PacketName string
	Body       []byte
}

func (p *Raw) Name() string { return p.PacketName }

func (p *Raw) Fields() []Field {
	return []Field{
		fRemaining("body", &p.Body),
	}
}
