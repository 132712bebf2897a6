package websocket

import (
	"sync"
)

// Hub tracks the live fan-out rooms. Room existence is validated
// against the store by the caller before a connection is added here.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*Room),
	}
}

func (h *Hub) GetOrCreateRoom(code string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[code]; ok {
		return room
	}
	room := NewRoom(code)
	h.rooms[code] = room
	return room
}

// GetRoom returns nil when no connection has opened the room yet.
func (h *Hub) GetRoom(code string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[code]
}

func (h *Hub) DropRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, code)
}
