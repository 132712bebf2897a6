package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/seastrike/seastrike-backend/internal/room"
	wsPkg "github.com/seastrike/seastrike-backend/pkg/websocket"
)

// NotificationWorker bridges store events onto live connections: every
// event a room publishes is fanned out to that room's watchers.
type NotificationWorker struct {
	rdb *redis.Client
	hub *wsPkg.Hub
}

func NewNotificationWorker(rdb *redis.Client, hub *wsPkg.Hub) *NotificationWorker {
	return &NotificationWorker{rdb: rdb, hub: hub}
}

func (w *NotificationWorker) Run(ctx context.Context) {
	log.Println("Notification worker starting...")
	pubsub := w.rdb.PSubscribe(ctx, room.EventsChannelPattern)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("Notification pub/sub error: %v", err)
			continue
		}

		var ev room.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("Failed to unmarshal event: %v", err)
			continue
		}

		// Nobody watching the room yet is not an error.
		wsRoom := w.hub.GetRoom(ev.RoomCode)
		if wsRoom == nil {
			continue
		}
		wsRoom.Broadcast("", []byte(msg.Payload))
	}
}
