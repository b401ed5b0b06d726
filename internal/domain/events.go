package domain

// Inbound event names, as sent by clients.
const (
	EventJoin          = "join"
	EventLeave         = "leave"
	EventVoiceData     = "voice_data"
	EventVoiceActivity = "voice_activity"
	EventMuteStatus    = "mute_status"
)

// Outbound event names. The three relay names are echoed verbatim.
const (
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventJoined     = "joined"
	EventError      = "error"
)

// UserJoined announces a new room member together with the refreshed roster.
type UserJoined struct {
	Username string   `json:"username"`
	Room     RoomName `json:"room"`
	Users    []string `json:"users"`
}

// UserLeft is room-scoped after a leave. After a disconnect it is delivered
// to everyone with only Username set, since the departing connection's room
// is not tracked precisely enough to scope it.
type UserLeft struct {
	Username string   `json:"username"`
	Room     RoomName `json:"room,omitempty"`
	Users    []string `json:"users,omitempty"`
}

// JoinResult is the acknowledgement returned to the joining client.
type JoinResult struct {
	Success bool     `json:"success"`
	Room    RoomName `json:"room"`
	Users   []string `json:"users"`
}

// ErrorReply carries a structural error back to the sender only.
type ErrorReply struct {
	Error string `json:"error"`
}
