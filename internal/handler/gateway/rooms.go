package gateway

import (
	"log"
	"sync"
)

// rooms tracks which clients belong to which named room.
type rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]*client
}

func newRooms() *rooms {
	return &rooms{members: make(map[string]map[string]*client)}
}

func (r *rooms) join(name string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[name]
	if !ok {
		set = make(map[string]*client)
		r.members[name] = set
	}
	set[c.id] = c
}

func (r *rooms) leave(name string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[name]
	if !ok {
		return
	}
	delete(set, c.id)
	if len(set) == 0 {
		delete(r.members, name)
	}
}

// broadcast queues event for every member of name except the client with id
// except. A member whose send buffer is full is disconnected rather than
// allowed to stall the sender.
func (r *rooms) broadcast(name, except, event string, data any) {
	r.mu.RLock()
	targets := make([]*client, 0, len(r.members[name]))
	for id, c := range r.members[name] {
		if id != except {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if !c.offer(event, data) {
			log.Printf("[gateway] dropping slow client %s on %s", c.id, event)
			c.close()
		}
	}
}
