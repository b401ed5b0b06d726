package app

import (
	"github.com/samber/lo"

	"voicehub/internal/core"
)

// Registry binds a connection to the display name it joined with.
// Not self-locking: the Coordinator is the only writer and guards Registry
// and Directory mutations together, since the invariants span both.
type Registry struct {
	names map[core.SessionID]string
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[core.SessionID]string)}
}

// Set records the name bound to a connection. Last write wins.
func (r *Registry) Set(sid core.SessionID, name string) {
	r.names[sid] = name
}

// Get reports the bound name; absence is an expected outcome for a
// connection that never joined.
func (r *Registry) Get(sid core.SessionID) (string, bool) {
	name, ok := r.names[sid]
	return name, ok
}

// Remove is idempotent; removing an absent connection is a no-op.
func (r *Registry) Remove(sid core.SessionID) {
	delete(r.names, sid)
}

// Usernames snapshots the currently bound names for the query surface.
func (r *Registry) Usernames() []string {
	return lo.Values(r.names)
}
