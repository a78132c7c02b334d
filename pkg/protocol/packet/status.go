package packet

// StatusRequest asks for the server list JSON. No fields.
type StatusRequest struct{}

func (p *StatusRequest) Name() string    { return "minecraft:status_request" }
func (p *StatusRequest) Fields() []Field { return nil }

// StatusResponse carries the server list JSON document.
type StatusResponse struct {
	JSON string
}

func (p *StatusResponse) Name() string { return "minecraft:status_response" }

func (p *StatusResponse) Fields() []Field {
	return []Field{
		fString("json", &p.JSON),
	}
}

// PingRequest carries an arbitrary client timestamp to be echoed back.
type PingRequest struct {
	Timestamp int64
}

func (p *PingRequest) Name() string { return "minecraft:ping_request" }

func (p *PingRequest) Fields() []Field {
	return []Field{
		fInt64("timestamp", &p.Timestamp),
	}
}

// PongResponse echoes the ping timestamp. The client closes afterwards.
type PongResponse struct {
	Timestamp int64
}

func (p *PongResponse) Name() string { return "minecraft:pong_response" }

func (p *PongResponse) Fields() []Field {
	return []Field{
		fInt64("timestamp", &p.Timestamp),
	}
}
