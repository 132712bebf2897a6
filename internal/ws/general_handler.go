package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	wsPkg "github.com/seastrike/seastrike-backend/pkg/websocket"
)

// GeneralHandler serves the out-of-room notification channel used for
// matchmaking results. Clients identify by the name they queued with.
type GeneralHandler struct {
	Hub *wsPkg.GeneralHub
}

func NewGeneralHandler(hub *wsPkg.GeneralHub) *GeneralHandler {
	return &GeneralHandler{Hub: hub}
}

func (h *GeneralHandler) ServeGeneralWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsPkg.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("General WS upgrade failed: %v", err)
		return
	}

	playerName := r.URL.Query().Get("player")
	if playerName == "" {
		log.Println("Player name missing in general WS request")
		conn.Close()
		return
	}

	client := &wsPkg.GeneralClient{
		ID:   playerName,
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	h.Hub.AddClient(client)

	go h.read(client)
	go h.write(client)
}

func (h *GeneralHandler) read(c *wsPkg.GeneralClient) {
	defer func() {
		h.Hub.RemoveClient(c)
		close(c.Send)
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
		// Inbound messages are ignored on this channel.
	}
}

func (h *GeneralHandler) write(c *wsPkg.GeneralClient) {
	defer c.Conn.Close()

	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("General write error for client %s: %v", c.ID, err)
			return
		}
	}
}
