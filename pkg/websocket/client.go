package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the reverse proxy in front of the server.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live connection to a room channel. Spectators receive
// broadcasts but their messages are ignored.
type Client struct {
	PlayerID  string
	Spectator bool
	Conn      *websocket.Conn
	Send      chan []byte
	Room      *Room

	closeOnce sync.Once
}

func NewClient(playerID string, spectator bool, conn *websocket.Conn) *Client {
	return &Client{
		PlayerID:  playerID,
		Spectator: spectator,
		Conn:      conn,
		Send:      make(chan []byte, 16),
	}
}

// CloseSend shuts the outbound channel so the write pump drains and
// exits. Safe to call from both the hub and the read pump.
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}
