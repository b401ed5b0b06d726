package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"voicehub/internal/core"
	"voicehub/internal/domain"
)

// Coordinator is the only writer of Registry and Directory. One mutex covers
// every paired mutation: no goroutine may observe a registry binding without
// its directory membership or vice versa. Fan-out happens after the mutex is
// released, from a snapshot taken while holding it.
type Coordinator struct {
	mu       sync.Mutex
	registry *Registry
	rooms    *Directory
	bcast    *core.Broadcaster
}

func NewCoordinator(registry *Registry, rooms *Directory, bcast *core.Broadcaster) *Coordinator {
	return &Coordinator{registry: registry, rooms: rooms, bcast: bcast}
}

// Join binds the connection to a display name and adds it to the room.
// On failure nothing is mutated. On success the returned roster is the
// post-join membership, and a user_joined event goes to the whole room,
// the joiner included.
func (c *Coordinator) Join(sid core.SessionID, username string, room domain.RoomName) (*domain.JoinResult, error) {
	if room == "" {
		room = domain.DefaultRoom
	}
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.rooms.Exists(room) {
		c.mu.Unlock()
		return nil, domain.ErrUnknownRoom
	}
	c.registry.Set(sid, username)
	c.rooms.Add(room, username)
	roster := c.rooms.Members(room)
	c.mu.Unlock()

	// Enter the delivery group before announcing, so the joiner receives
	// its own user_joined along with the rest of the room.
	c.bcast.JoinGroup(room, sid)
	c.bcast.ToRoom(domain.EventUserJoined, domain.UserJoined{
		Username: username,
		Room:     room,
		Users:    roster,
	}, room, sid, true)

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).
		Str("username", username).Str("room", string(room)).Msg("joined room")
	return &domain.JoinResult{Success: true, Room: room, Users: roster}, nil
}

// Leave removes the connection's name from the given room. The room argument
// is caller-trusted; there is no check that it matches the room actually
// joined. The leaver exits the delivery group before the announcement, so
// only the remaining members receive the user_left.
func (c *Coordinator) Leave(sid core.SessionID, room domain.RoomName) error {
	c.mu.Lock()
	username, bound := c.registry.Get(sid)
	if !bound || room == "" {
		c.mu.Unlock()
		return domain.ErrInvalidRequest
	}
	c.rooms.Discard(room, username)
	roster := c.rooms.Members(room)
	c.mu.Unlock()

	c.bcast.LeaveGroup(room, sid)
	c.bcast.ToRoom(domain.EventUserLeft, domain.UserLeft{
		Username: username,
		Room:     room,
		Users:    roster,
	}, room, sid, true)

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).
		Str("username", username).Str("room", string(room)).Msg("left room")
	return nil
}

// Disconnect is unconditionally safe and idempotent. With a bound name it
// sweeps that name from every room, drops the binding, and announces the
// departure to everyone; re-joins can leave stale memberships behind, and
// this is where they get cleaned up.
func (c *Coordinator) Disconnect(sid core.SessionID) {
	c.mu.Lock()
	username, bound := c.registry.Get(sid)
	if bound {
		c.rooms.DiscardEverywhere(username)
		c.registry.Remove(sid)
	}
	c.mu.Unlock()

	c.bcast.Detach(sid)
	if !bound {
		return
	}
	c.bcast.ToAll(domain.EventUserLeft, domain.UserLeft{Username: username})
	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).
		Str("username", username).Msg("disconnected")
}

// RelayVoice forwards an opaque voice payload to the rest of the sender's
// room. Malformed payloads and unknown rooms are dropped without error.
func (c *Coordinator) RelayVoice(sid core.SessionID, payload json.RawMessage) {
	var peek struct {
		Room domain.RoomName `json:"room"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil || peek.Room == "" {
		return
	}
	if !c.roomKnown(peek.Room) {
		return
	}
	c.bcast.ToRoom(domain.EventVoiceData, payload, peek.Room, sid, false)
}

// RelayActivity forwards a voice-activity signal, stamping the sender's
// name onto the payload when the client omitted it. The sender gets no echo.
func (c *Coordinator) RelayActivity(sid core.SessionID, payload map[string]any) {
	c.relaySigned(domain.EventVoiceActivity, sid, payload, false)
}

// RelayMute forwards a mute-status change. Unlike voice activity the sender
// is included; its UI confirms the change off the round-trip.
func (c *Coordinator) RelayMute(sid core.SessionID, payload map[string]any) {
	c.relaySigned(domain.EventMuteStatus, sid, payload, true)
}

func (c *Coordinator) relaySigned(event string, sid core.SessionID, payload map[string]any, includeSender bool) {
	room, _ := payload["room"].(string)
	if room == "" {
		return
	}

	c.mu.Lock()
	known := c.rooms.Exists(domain.RoomName(room))
	username, bound := c.registry.Get(sid)
	c.mu.Unlock()
	if !known || !bound {
		return
	}
	if _, ok := payload["username"]; !ok {
		payload["username"] = username
	}
	c.bcast.ToRoom(event, payload, domain.RoomName(room), sid, includeSender)
}

func (c *Coordinator) roomKnown(room domain.RoomName) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.Exists(room)
}

// RoomNames lists the configured rooms for the read-only API.
func (c *Coordinator) RoomNames() []domain.RoomName {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.Names()
}

// Usernames lists the currently bound display names for the read-only API.
func (c *Coordinator) Usernames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Usernames()
}
