package websocket

import (
	"log"
	"sync"
)

// Room fans messages out to every connection watching one game room.
// Connections are keyed by player id; spectators get a synthetic id.
type Room struct {
	Code string

	mu      sync.Mutex
	clients map[string]*Client
}

func NewRoom(code string) *Room {
	return &Room{
		Code:    code,
		clients: make(map[string]*Client),
	}
}

func (r *Room) AddClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.clients[c.PlayerID]; ok {
		old.CloseSend()
	}
	r.clients[c.PlayerID] = c
	c.Room = r
	log.Printf("Client %s joined room %s", c.PlayerID, r.Code)
}

// RemoveClient reports whether the room is now empty.
func (r *Room) RemoveClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[c.PlayerID] == c {
		delete(r.clients, c.PlayerID)
		log.Printf("Client %s left room %s", c.PlayerID, r.Code)
	}
	return len(r.clients) == 0
}

// Broadcast sends to every connection except senderID. Pass "" to reach
// everyone. Slow consumers are skipped rather than blocked on.
func (r *Room) Broadcast(senderID string, message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, client := range r.clients {
		if id == senderID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			log.Printf("Dropping message for slow client %s in room %s", id, r.Code)
		}
	}
}

func (r *Room) SendTo(playerID string, message []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[playerID]
	if !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}
