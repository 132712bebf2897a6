package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// GeneralClient is a connection to the out-of-room notification
// channel, keyed by the name the player queues with.
type GeneralClient struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

type GeneralHub struct {
	mu      sync.Mutex
	clients map[string]*GeneralClient
}

func NewGeneralHub() *GeneralHub {
	return &GeneralHub{
		clients: make(map[string]*GeneralClient),
	}
}

func (h *GeneralHub) AddClient(c *GeneralClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	log.Printf("General client %s connected", c.ID)
}

func (h *GeneralHub) RemoveClient(c *GeneralClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.ID] == c {
		delete(h.clients, c.ID)
		log.Printf("General client %s disconnected", c.ID)
	}
}

func (h *GeneralHub) SendToClient(id string, message []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[id]
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
