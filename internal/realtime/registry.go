package realtime

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

// AdminsRoom groups every SuperAdmin and BranchAdmin connection.
const AdminsRoom = "admins"

// UserRoom returns the personal room of a user.  Every session of the
// user joins it, so a message routed here reaches all of them.
func UserRoom(userID uint64) string { return "user:" + strconv.FormatUint(userID, 10) }

// Client is one live connection as seen by the Registry.  Send must not
// block: a slow peer loses messages rather than stalling the sender.
type Client interface {
	ID() string
	Send(payload []byte) error
}

// Registry maps rooms to the clients joined to them.  Joins and leaves
// take the write lock; routing iterates under the read lock, so
// membership never changes mid fan-out.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[Client]struct{}
	joined map[Client][]string
	logger *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[string]map[Client]struct{}),
		joined: make(map[Client][]string),
		logger: logger.With("component", "registry"),
	}
}

// OnConnect joins c to its personal room and, for admins, to the
// admins room.  It returns the rooms joined.
func (r *Registry) OnConnect(c Client, userID uint64, role model.Role) []string {
	rooms := []string{UserRoom(userID)}
	if role.IsAdmin() {
		rooms = append(rooms, AdminsRoom)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range rooms {
		members, ok := r.rooms[room]
		if !ok {
			members = make(map[Client]struct{})
			r.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	r.joined[c] = append(r.joined[c], rooms...)
	return rooms
}

// OnDisconnect removes c from every room.  It is safe to call twice.
func (r *Registry) OnDisconnect(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.joined[c] {
		members := r.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.joined, c)
}

// Route delivers payload to every client in room and returns how many
// accepted it.  Delivery is best effort.
func (r *Registry) Route(room string, payload []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deliver(r.rooms[room], payload)
}

// RouteAll delivers payload to every connected client.
func (r *Registry) RouteAll(payload []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for c := range r.joined {
		if r.send(c, payload) {
			n++
		}
	}
	return n
}

// deliver must be called with at least the read lock held.
func (r *Registry) deliver(members map[Client]struct{}, payload []byte) int {
	n := 0
	for c := range members {
		if r.send(c, payload) {
			n++
		}
	}
	return n
}

func (r *Registry) send(c Client, payload []byte) bool {
	if err := c.Send(payload); err != nil {
		r.logger.Warn("dropped message", "client_id", c.ID(), "error", err)
		return false
	}
	return true
}

// Rooms returns the rooms c has joined, sorted.
func (r *Registry) Rooms(c Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.joined[c]...)
	sort.Strings(out)
	return out
}

// Len returns the number of connected clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joined)
}

// Stats reports connection and room counts for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		"connections": len(r.joined),
		"rooms":       len(r.rooms),
		"admins":      len(r.rooms[AdminsRoom]),
	}
}
