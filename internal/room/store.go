package room

import (
	"context"
	"errors"
	"time"

	"github.com/seastrike/seastrike-backend/internal/game"
)

// ErrConcurrentUpdate is returned by Store.Update when the room document
// changed between the read and the conditional write. The service
// retries once with a fresh read before surfacing a conflict.
var ErrConcurrentUpdate = errors.New("room modified concurrently")

// ErrNoChange aborts an Update without writing and without failing it.
// Timer ticks use it when the deadline they fired for is already gone.
var ErrNoChange = errors.New("no change")

// Event is what subscribers see after every accepted mutation of a room.
type Event struct {
	Type        string      `json:"type"`
	RoomCode    string      `json:"roomCode"`
	Status      game.Status `json:"status"`
	CurrentTurn string      `json:"currentTurn,omitempty"`
	Winner      string      `json:"winner,omitempty"`
	Draw        bool        `json:"draw,omitempty"`
	// Newest move log entry, when the mutation appended one.
	Move *game.Move `json:"move,omitempty"`
	At   time.Time  `json:"at"`
}

const (
	EventRoomCreated = "room_created"
	EventPlayerJoin  = "player_join"
	EventPlacement   = "placement"
	EventReady       = "ready"
	EventMove        = "move"
	EventPause       = "pause"
	EventResume      = "resume"
	EventGameOver    = "game_over"
	EventPlayerLeft  = "player_left"
)

// Store persists room documents keyed by room code. Update must apply fn
// under a conditional write: the room read by fn is only written back if
// the stored document did not change in between.
type Store interface {
	Create(ctx context.Context, r *game.Room) error
	Get(ctx context.Context, code string) (*game.Room, error)
	Update(ctx context.Context, code string, fn func(*game.Room) error) (*game.Room, error)
	Delete(ctx context.Context, code string) error
	// ActiveCodes lists rooms that still need timekeeping.
	ActiveCodes(ctx context.Context) ([]string, error)
	Publish(ctx context.Context, ev Event) error
}
