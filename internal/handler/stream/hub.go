package stream

import (
	"context"
	"log"
	"sync"
	"time"
)

// Event is one message published to a room's subscribers.
type Event struct {
	Type            string    `json:"type"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	ParticipantName string    `json:"participantName"`
}

const subscriberBuffer = 64

type roomChannel struct {
	subscribers map[chan Event]struct{}
	cancels     map[int]context.CancelFunc
	nextCancel  int
}

// Hub fans events out to per-room subscribers and tracks in-flight
// generations so closing a room can cancel them.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*roomChannel
}

func NewHub() *Hub {
	return &Hub{rooms: map[string]*roomChannel{}}
}

func (h *Hub) room(name string) *roomChannel {
	rc, ok := h.rooms[name]
	if !ok {
		rc = &roomChannel{subscribers: map[chan Event]struct{}{}, cancels: map[int]context.CancelFunc{}}
		h.rooms[name] = rc
	}
	return rc
}

// Subscribe registers a listener on room. The returned func unsubscribes.
func (h *Hub) Subscribe(room string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	h.room(room).subscribers[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		rc, ok := h.rooms[room]
		if !ok {
			return
		}
		if _, ok := rc.subscribers[ch]; ok {
			delete(rc.subscribers, ch)
			close(ch)
		}
		h.prune(room, rc)
	}
}

// Publish delivers ev to every subscriber of room. Slow subscribers drop events.
func (h *Hub) Publish(room string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rc, ok := h.rooms[room]
	if !ok {
		return
	}
	for ch := range rc.subscribers {
		select {
		case ch <- ev:
		default:
			log.Printf("[hub] dropping %s event for slow subscriber in room=%s", ev.Type, room)
		}
	}
}

// Subscribers returns the number of listeners on room.
func (h *Hub) Subscribers(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rc, ok := h.rooms[room]; ok {
		return len(rc.subscribers)
	}
	return 0
}

// Track derives a context for a generation in room. Call the returned func
// when the generation ends.
func (h *Hub) Track(parent context.Context, room string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	h.mu.Lock()
	rc := h.room(room)
	id := rc.nextCancel
	rc.nextCancel++
	rc.cancels[id] = cancel
	h.mu.Unlock()

	return ctx, func() {
		cancel()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(rc.cancels, id)
		if h.rooms[room] == rc {
			h.prune(room, rc)
		}
	}
}

// Close cancels the room's generations and disconnects its subscribers.
func (h *Hub) Close(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rc, ok := h.rooms[room]
	if !ok {
		return
	}
	for _, cancel := range rc.cancels {
		cancel()
	}
	for ch := range rc.subscribers {
		close(ch)
	}
	delete(h.rooms, room)
}

// CloseAll closes every room.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	h.mu.Unlock()

	for _, name := range names {
		h.Close(name)
	}
}

func (h *Hub) prune(name string, rc *roomChannel) {
	if len(rc.subscribers) == 0 && len(rc.cancels) == 0 {
		delete(h.rooms, name)
	}
}
