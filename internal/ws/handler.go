package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/seastrike/seastrike-backend/internal/game"
	"github.com/seastrike/seastrike-backend/internal/room"
	wsPkg "github.com/seastrike/seastrike-backend/pkg/websocket"
)

// Handler serves the per-room channel. Client commands mutate the room
// through the room service; resulting events reach every watcher via
// the notification worker, so only direct replies are written here.
type Handler struct {
	Hub   *wsPkg.Hub
	rooms *room.Service
}

func NewHandler(hub *wsPkg.Hub, rooms *room.Service) *Handler {
	return &Handler{Hub: hub, rooms: rooms}
}

type clientMessage struct {
	Type      string           `json:"type"`
	Col       int              `json:"col"`
	Row       int              `json:"row"`
	Ability   game.AbilityKey  `json:"ability,omitempty"`
	Line      game.Orientation `json:"line,omitempty"`
	Placement game.Placement   `json:"placement,omitempty"`
	Category  string           `json:"category,omitempty"`
	Text      string           `json:"text,omitempty"`
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsPkg.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed: %v", err)
		return
	}

	code, err := room.NormalizeCode(r.URL.Query().Get("room"))
	if err != nil {
		log.Printf("Rejecting WS connection: %v", err)
		conn.Close()
		return
	}
	playerID := r.URL.Query().Get("playerId")
	spectator := r.URL.Query().Get("spectate") == "true"

	rm, err := h.rooms.Get(r.Context(), code)
	if err != nil {
		log.Printf("Room %s lookup failed: %v", code, err)
		conn.Close()
		return
	}

	if spectator {
		playerID = "spectator:" + uuid.NewString()
	} else if _, err := rm.Player(playerID); err != nil {
		log.Printf("Player %s is not seated in room %s", playerID, code)
		conn.Close()
		return
	}

	client := wsPkg.NewClient(playerID, spectator, conn)
	h.Hub.GetOrCreateRoom(code).AddClient(client)

	go h.read(client, code)
	go h.write(client)
}

func (h *Handler) read(c *wsPkg.Client, code string) {
	defer func() {
		if c.Room != nil && c.Room.RemoveClient(c) {
			h.Hub.DropRoom(code)
		}
		c.CloseSend()
		c.Conn.Close()
	}()

	sess := room.Session{PlayerID: c.PlayerID, RoomCode: code}
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			log.Printf("Read error for client %s: %v", c.PlayerID, err)
			return
		}
		if c.Spectator {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(c, "malformed message")
			continue
		}
		if closed := h.dispatch(context.Background(), c, sess, msg); closed {
			return
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, c *wsPkg.Client, sess room.Session, msg clientMessage) bool {
	switch msg.Type {
	case "placement":
		_, err := h.rooms.SubmitPlacement(ctx, sess, msg.Placement)
		h.reply(c, "placement", err)
	case "auto_place":
		_, err := h.rooms.AutoPlace(ctx, sess)
		h.reply(c, "auto_place", err)
	case "ready":
		_, err := h.rooms.MarkReady(ctx, sess)
		h.reply(c, "ready", err)
	case "attack":
		out, _, err := h.rooms.Attack(ctx, sess, msg.Col, msg.Row)
		if err != nil {
			h.sendError(c, err.Error())
			return false
		}
		h.send(c, struct {
			Type    string             `json:"type"`
			Outcome game.AttackOutcome `json:"outcome"`
		}{Type: "attack_result", Outcome: out})
	case "ability":
		target := game.AbilityTarget{Col: msg.Col, Row: msg.Row, Line: msg.Line}
		out, _, err := h.rooms.UseAbility(ctx, sess, msg.Ability, target)
		if err != nil {
			h.sendError(c, err.Error())
			return false
		}
		h.send(c, struct {
			Type    string              `json:"type"`
			Ability game.AbilityKey     `json:"ability"`
			Outcome game.AbilityOutcome `json:"outcome"`
		}{Type: "ability_result", Ability: msg.Ability, Outcome: out})
	case "emote":
		_, err := h.rooms.SendEmote(ctx, sess, msg.Category, msg.Text)
		h.reply(c, "emote", err)
	case "leave":
		if err := h.rooms.Leave(ctx, sess); err != nil {
			h.sendError(c, err.Error())
			return false
		}
		return true
	default:
		h.sendError(c, "unknown message type: "+msg.Type)
	}
	return false
}

func (h *Handler) reply(c *wsPkg.Client, action string, err error) {
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	h.send(c, struct {
		Type   string `json:"type"`
		Action string `json:"action"`
	}{Type: "ack", Action: action})
}

func (h *Handler) sendError(c *wsPkg.Client, message string) {
	h.send(c, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "error", Message: message})
}

func (h *Handler) send(c *wsPkg.Client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal reply for %s: %v", c.PlayerID, err)
		return
	}
	select {
	case c.Send <- payload:
	default:
		log.Printf("Dropping reply for slow client %s", c.PlayerID)
	}
}

func (h *Handler) write(c *wsPkg.Client) {
	defer c.Conn.Close()

	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("Write error for client %s: %v", c.PlayerID, err)
			return
		}
	}
}
