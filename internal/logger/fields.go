package logger

// Standard field keys for structured logging. Use these consistently
// across packages so output stays greppable and aggregatable.
const (
	// Connection identity
	KeyRemoteAddr = "remote_addr" // Client address (host:port)
	KeyState      = "state"       // Connection state name
	KeyProtocol   = "protocol"    // Protocol version number
	KeyUsername   = "username"    // Player name
	KeyUUID       = "uuid"        // Player UUID

	// Wire traffic
	KeyPacket   = "packet"    // Canonical packet name
	KeyPacketID = "packet_id" // Numeric packet id
	KeySize     = "size"      // Payload size in bytes

	// Server lifecycle
	KeyAddress  = "address"  // Bind address
	KeySessions = "sessions" // Active session count

	// Outcomes
	KeyError      = "error"       // Error message
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
)
