// Package realtime tracks live participant connections and fans newly
// written or seen-updated messages out to them, best effort.
package realtime

import (
	"sync"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/security"
)

// Conn is a live connection handle. Push must not block: it reports false
// when the payload could not be queued. Close releases the handle; it must
// be safe to call more than once.
type Conn interface {
	Push(ev model.PushEvent) bool
	Close()
}

// Registry is the process-wide table of participant id to live connection.
// It is an injected component with an explicit register/deregister lifecycle;
// at most one handle is held per participant id.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register associates conn with the participant. A later registration for
// the same id silently replaces the earlier one (last-connect-wins); the
// displaced handle is not closed or notified, its pumps wind down on their
// own disconnect.
func (r *Registry) Register(participantID string, conn Conn) {
	r.mu.Lock()
	_, replaced := r.conns[participantID]
	r.conns[participantID] = conn
	r.mu.Unlock()
	if !replaced {
		security.ConnectionOpened()
	}
}

// Deregister removes the participant's registration, but only if it still
// refers to conn: a stale disconnect must not evict a newer registration
// for the same id.
func (r *Registry) Deregister(participantID string, conn Conn) {
	r.mu.Lock()
	current, ok := r.conns[participantID]
	if ok && current == conn {
		delete(r.conns, participantID)
	} else {
		ok = false
	}
	r.mu.Unlock()
	if ok {
		security.ConnectionClosed()
	}
}

// Connected reports whether the participant has a live registration.
func (r *Registry) Connected(participantID string) bool {
	r.mu.RLock()
	_, ok := r.conns[participantID]
	r.mu.RUnlock()
	return ok
}

// Push delivers ev to the participant's connection. Unknown ids are a
// silent no-op. A connection that cannot accept the payload is dropped
// from the registry and closed; delivery is best effort either way.
func (r *Registry) Push(participantID string, ev model.PushEvent) bool {
	r.mu.RLock()
	conn, ok := r.conns[participantID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if conn.Push(ev) {
		security.PushDelivered()
		return true
	}
	security.PushDropped()
	r.Deregister(participantID, conn)
	conn.Close()
	return false
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
