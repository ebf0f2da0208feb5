// Package hub fans events out to live staff connections.  The registry is
// an explicitly constructed instance handed to its call sites; there is
// no package-level state.  Delivery is at-most-once and best-effort;
// durability for offline recipients lives in the notification store, not
// here.
package hub

import (
	"log"
	"sync"

	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// DefaultSendBuffer is the per-connection outbound queue depth used when
// the registry is constructed with a non-positive buffer size.
const DefaultSendBuffer = 64

// RoleGroup names the dispatch group for a staff role.
func RoleGroup(role string) string { return "role:" + role }

// DepartmentGroup names the dispatch group for a department.
func DepartmentGroup(id string) string { return "department:" + id }

type session struct {
	recipientID string
	groups      []string
}

// Registry tracks which recipients hold which open connections.  A
// recipient may hold zero, one or many connections at once.  All three
// maps are guarded by one mutex; register and unregister are individually
// atomic, so a disconnect racing a dispatch can never leave a dangling
// handle that a later send blocks on.
type Registry struct {
	mu         sync.Mutex
	recipients map[string]map[*Conn]struct{}
	groups     map[string]map[*Conn]struct{}
	sessions   map[*Conn]session

	buffer int
	logger *log.Logger
}

func NewRegistry(sendBuffer int, logger *log.Logger) *Registry {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Registry{
		recipients: make(map[string]map[*Conn]struct{}),
		groups:     make(map[string]map[*Conn]struct{}),
		sessions:   make(map[*Conn]session),
		buffer:     sendBuffer,
		logger:     logger,
	}
}

// Register adds a connection for recipientID, joined to the given groups,
// and starts its writer.  Group membership is fixed for the connection's
// lifetime; it comes from the session's credentials at connect time and is
// never persisted.
func (r *Registry) Register(recipientID string, groups []string, sender Sender) *Conn {
	conn := newConn(sender, r.buffer)

	r.mu.Lock()
	if r.recipients[recipientID] == nil {
		r.recipients[recipientID] = make(map[*Conn]struct{})
	}
	r.recipients[recipientID][conn] = struct{}{}
	for _, g := range groups {
		if r.groups[g] == nil {
			r.groups[g] = make(map[*Conn]struct{})
		}
		r.groups[g][conn] = struct{}{}
	}
	r.sessions[conn] = session{recipientID: recipientID, groups: groups}
	r.mu.Unlock()

	go conn.writeLoop(r)
	return conn
}

// Unregister removes every registry entry for conn and closes it.  The
// session is found by reverse lookup, so disconnect handling needs only
// the handle.  Safe to call more than once.
func (r *Registry) Unregister(conn *Conn) {
	r.mu.Lock()
	sess, ok := r.sessions[conn]
	if ok {
		delete(r.sessions, conn)
		if set := r.recipients[sess.recipientID]; set != nil {
			delete(set, conn)
			if len(set) == 0 {
				delete(r.recipients, sess.recipientID)
			}
		}
		for _, g := range sess.groups {
			if set := r.groups[g]; set != nil {
				delete(set, conn)
				if len(set) == 0 {
					delete(r.groups, g)
				}
			}
		}
	}
	r.mu.Unlock()

	if ok {
		conn.close()
	}
}

// ConnectionCount returns how many connections recipientID currently holds.
func (r *Registry) ConnectionCount(recipientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recipients[recipientID])
}

// ── Dispatch ─────────────────────────────────────────────────────────────────
//
// Target connections are snapshotted under the lock and enqueued outside
// it.  Enqueue never blocks: a full buffer drops the event for that
// connection rather than propagating backpressure to the producer.

// ToRecipient delivers ev to every connection recipientID holds.  A
// recipient with no connections is a silent no-op.
func (r *Registry) ToRecipient(recipientID string, ev types.Event) {
	r.mu.Lock()
	conns := snapshot(r.recipients[recipientID])
	r.mu.Unlock()

	for _, c := range conns {
		c.enqueue(ev)
	}
}

// Broadcast delivers ev to every registered connection.
func (r *Registry) Broadcast(ev types.Event) {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.sessions))
	for c := range r.sessions {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.enqueue(ev)
	}
}

// ToRole delivers ev to connections whose session joined the role group.
func (r *Registry) ToRole(role string, ev types.Event) {
	r.toGroup(RoleGroup(role), ev)
}

// ToDepartment delivers ev to connections whose session joined the
// department group.
func (r *Registry) ToDepartment(departmentID string, ev types.Event) {
	r.toGroup(DepartmentGroup(departmentID), ev)
}

func (r *Registry) toGroup(group string, ev types.Event) {
	r.mu.Lock()
	conns := snapshot(r.groups[group])
	r.mu.Unlock()

	for _, c := range conns {
		c.enqueue(ev)
	}
}

func snapshot(set map[*Conn]struct{}) []*Conn {
	if len(set) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
