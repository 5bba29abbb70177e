package realtime

import (
	"sync"
)

// rooms is the room table: room name -> member connections.
type rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]*client
}

func newRooms() *rooms {
	return &rooms{members: make(map[string]map[string]*client)}
}

func (r *rooms) join(room string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[room]
	if !ok {
		set = make(map[string]*client)
		r.members[room] = set
	}
	set[c.id] = c
}

// leave must run before c.send is closed; emit holds the read lock while sending.
func (r *rooms) leave(room string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.members[room]
	delete(set, c.id)
	if len(set) == 0 {
		delete(r.members, room)
	}
}

// emit queues frame for every member of room and reports how many got it.
// Members with a full send buffer are skipped.
func (r *rooms) emit(room string, frame []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	delivered := 0
	for _, c := range r.members[room] {
		if c.enqueue(frame) {
			delivered++
		}
	}
	return delivered
}

// closeAll drops every member's socket; their read loops then unwind normally.
func (r *rooms) closeAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, set := range r.members {
		for _, c := range set {
			_ = c.conn.Close()
		}
	}
}
