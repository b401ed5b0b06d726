package core

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"voicehub/internal/domain"
)

// Broadcaster owns the transport-side delivery groups: which connections are
// attached at all, and which group (room) each belongs to for fan-out.
// It never closes adapter-owned connections.
type Broadcaster struct {
	mu     sync.RWMutex
	conns  map[SessionID]SignalConnection
	groups map[domain.RoomName]map[SessionID]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		conns:  make(map[SessionID]SignalConnection),
		groups: make(map[domain.RoomName]map[SessionID]struct{}),
	}
}

// Attach registers a live connection for delivery. Called on connect,
// before any join is possible.
func (b *Broadcaster) Attach(sid SessionID, conn SignalConnection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[sid] = conn
	log.Info().Str("module", "core.broadcaster").Str("sid", string(sid)).Msg("connection attached")
}

// Detach removes the connection and its membership in every group.
func (b *Broadcaster) Detach(sid SessionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, sid)
	for _, members := range b.groups {
		delete(members, sid)
	}
	log.Info().Str("module", "core.broadcaster").Str("sid", string(sid)).Msg("connection detached")
}

func (b *Broadcaster) JoinGroup(room domain.RoomName, sid SessionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.groups[room]
	if !ok {
		members = make(map[SessionID]struct{})
		b.groups[room] = members
	}
	members[sid] = struct{}{}
}

func (b *Broadcaster) LeaveGroup(room domain.RoomName, sid SessionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.groups[room]; ok {
		delete(members, sid)
	}
}

// ToRoom delivers the event to every connection grouped under room.
// When includeSender is false the originating connection is skipped.
// An unknown room is a silent no-op; relay callers tolerate malformed input.
func (b *Broadcaster) ToRoom(event string, data any, room domain.RoomName, from SessionID, includeSender bool) PublishResult {
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		return PublishResult{}
	}
	recipients := b.snapshotRoom(room, from, includeSender)
	return b.deliver(event, frame, recipients)
}

// ToAll delivers the event to every attached connection. Used for the
// disconnect-triggered user_left, which is not scoped to one room.
func (b *Broadcaster) ToAll(event string, data any) PublishResult {
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		return PublishResult{}
	}
	b.mu.RLock()
	recipients := make([]SignalConnection, 0, len(b.conns))
	for _, conn := range b.conns {
		recipients = append(recipients, conn)
	}
	b.mu.RUnlock()
	return b.deliver(event, frame, recipients)
}

// snapshotRoom resolves the recipient connections under the read lock so the
// actual sends happen without holding it.
func (b *Broadcaster) snapshotRoom(room domain.RoomName, from SessionID, includeSender bool) []SignalConnection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	members, ok := b.groups[room]
	if !ok {
		return nil
	}
	out := make([]SignalConnection, 0, len(members))
	for sid := range members {
		if !includeSender && sid == from {
			continue
		}
		if conn, ok := b.conns[sid]; ok {
			out = append(out, conn)
		}
	}
	return out
}

func (b *Broadcaster) deliver(event string, frame Frame, recipients []SignalConnection) PublishResult {
	res := PublishResult{}
	for _, conn := range recipients {
		if err := conn.TrySend(frame); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.broadcaster").Str("event", event).
		Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("fan-out done")
	return res
}

func marshalEnvelope(event string, data any) (Frame, error) {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "core.broadcaster").Str("event", event).Msg("marshal envelope")
		return nil, err
	}
	return frame, nil
}
