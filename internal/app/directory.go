package app

import (
	"github.com/samber/lo"

	"voicehub/internal/domain"
)

// Directory holds the fixed room set and the member names present in each.
// Room names are immutable after construction; the member sets are the only
// mutable part. Locking discipline is the Coordinator's, same as Registry.
type Directory struct {
	rooms map[domain.RoomName]map[string]struct{}
}

// NewDirectory pre-populates the fixed room set. Rooms are a configuration
// concern; the core exposes no create/destroy operations.
func NewDirectory(names []domain.RoomName) *Directory {
	d := &Directory{rooms: make(map[domain.RoomName]map[string]struct{}, len(names))}
	for _, name := range names {
		d.rooms[name] = make(map[string]struct{})
	}
	return d
}

func (d *Directory) Exists(room domain.RoomName) bool {
	_, ok := d.rooms[room]
	return ok
}

// Add has set semantics; adding a present name is a no-op.
func (d *Directory) Add(room domain.RoomName, name string) {
	if members, ok := d.rooms[room]; ok {
		members[name] = struct{}{}
	}
}

// Discard removes the name if present; absent is a no-op.
func (d *Directory) Discard(room domain.RoomName, name string) {
	if members, ok := d.rooms[room]; ok {
		delete(members, name)
	}
}

// DiscardEverywhere removes the name from every room. Disconnect cleanup
// is deliberately global: a connection only ever joined one room at a time,
// but stale memberships from re-joins are swept here.
func (d *Directory) DiscardEverywhere(name string) {
	for _, members := range d.rooms {
		delete(members, name)
	}
}

// Members snapshots the roster after the triggering mutation, so joined and
// left users see themselves reflected in it.
func (d *Directory) Members(room domain.RoomName) []string {
	members, ok := d.rooms[room]
	if !ok {
		return nil
	}
	return lo.Keys(members)
}

func (d *Directory) Names() []domain.RoomName {
	return lo.Keys(d.rooms)
}
