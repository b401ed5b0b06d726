package core

// Frame is a marshaled wire message ready for delivery.
type Frame []byte

// SessionID identifies one physical connection for its lifetime.
// Assigned by the transport adapter, opaque to everything else.
type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Envelope is the outbound wire format: an event name plus its payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PublishResult reports delivery stats for one fan-out.
type PublishResult struct {
	SentTo  int
	Dropped int
}
