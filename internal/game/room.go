package game

import (
	"time"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

type GameMode string

const (
	ModeAdmin    GameMode = "admin"
	ModeRandom   GameMode = "random"
	ModeFriendly GameMode = "friendly"
	ModeCustom   GameMode = "custom"
)

func (m GameMode) Valid() bool {
	switch m {
	case ModeAdmin, ModeRandom, ModeFriendly, ModeCustom:
		return true
	}
	return false
}

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusPlacing    Status = "placing"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

const (
	MaxPlayers = 2

	// DefaultMatchTimeLimit is the wall-clock budget for one match.
	DefaultMatchTimeLimit = 15 * time.Minute
)

type Settings struct {
	GridSize int `json:"gridSize"`
	// Seconds per turn, 0 = unlimited.
	TurnTimeLimit int `json:"turnTimeLimit"`
	// Seconds for the whole match, 0 = unlimited.
	MatchTimeLimit   int    `json:"matchTimeLimit"`
	AbilitiesEnabled bool   `json:"abilitiesEnabled"`
	Fleet            []Ship `json:"fleet"`
}

func DefaultSettings() Settings {
	return Settings{
		GridSize:         8,
		TurnTimeLimit:    30,
		MatchTimeLimit:   int(DefaultMatchTimeLimit / time.Second),
		AbilitiesEnabled: true,
		Fleet:            DefaultFleet(),
	}
}

func (s Settings) Validate() error {
	if !IsValidGridSize(s.GridSize) {
		return apperr.Validation("grid size must be one of %v, got %d", ValidGridSizes, s.GridSize)
	}
	if s.TurnTimeLimit < 0 {
		return apperr.Validation("turn time limit cannot be negative")
	}
	if s.MatchTimeLimit < 0 {
		return apperr.Validation("match time limit cannot be negative")
	}
	return ValidateFleet(s.Fleet, s.GridSize)
}

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	// Where the player's ships sit. Frozen once Ready is set.
	Placement Placement `json:"placement,omitempty"`
	// Defence grid materialized from the placement at ready time, then
	// mutated by incoming shots.
	Grid Grid `json:"grid,omitempty"`
	// Cells of this grid exposed to the opponent by support abilities.
	Revealed   []Coord                      `json:"revealed,omitempty"`
	Abilities  map[AbilityKey]*AbilityState `json:"abilities,omitempty"`
	ShotsFired int                          `json:"shotsFired"`
	ShotsHit   int                          `json:"shotsHit"`
	JoinedAt   time.Time                    `json:"joinedAt"`
}

func (p *Player) accuracy() float64 {
	if p.ShotsFired == 0 {
		return 0
	}
	return float64(p.ShotsHit) / float64(p.ShotsFired)
}

func (p *Player) isRevealed(x, y int) bool {
	for _, c := range p.Revealed {
		if c.X == x && c.Y == y {
			return true
		}
	}
	return false
}

// Room is the root aggregate of one match. It owns its players and move
// log exclusively; nothing inside it is shared across rooms. All
// mutations go through the resolver functions so a rejected action never
// leaves partial state behind.
type Room struct {
	Code   string   `json:"code"`
	Mode   GameMode `json:"mode"`
	Status Status   `json:"status"`
	// Admin identity recorded at creation. Admin overrides are only
	// honored for this identity or a superadmin.
	AdminID string `json:"adminId,omitempty"`

	Players map[string]*Player `json:"players"`
	// Seat order by join time; Seats[0] takes the first turn.
	Seats       []string `json:"seats"`
	CurrentTurn string   `json:"currentTurn,omitempty"`

	Settings Settings `json:"settings"`
	Moves    []Move   `json:"moves"`

	Winner string `json:"winner,omitempty"`
	Draw   bool   `json:"draw,omitempty"`

	// Pre-game lobby countdown, seconds. Zero when not counting.
	Countdown int `json:"countdown,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitempty"`

	// Absolute deadlines driven by the timekeeper. Zero when unlimited.
	TurnDeadline  time.Time `json:"turnDeadline,omitempty"`
	MatchDeadline time.Time `json:"matchDeadline,omitempty"`

	// Remaining timer budget captured when an admin pauses the room.
	PausedAt       time.Time     `json:"pausedAt,omitempty"`
	TurnRemaining  time.Duration `json:"turnRemaining,omitempty"`
	MatchRemaining time.Duration `json:"matchRemaining,omitempty"`
}

func NewRoom(code string, mode GameMode, adminID string, settings Settings, now time.Time) (*Room, error) {
	if !mode.Valid() {
		return nil, apperr.Validation("invalid game mode: %s", mode)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Room{
		Code:      code,
		Mode:      mode,
		AdminID:   adminID,
		Status:    StatusWaiting,
		Players:   make(map[string]*Player, MaxPlayers),
		Settings:  settings,
		CreatedAt: now,
	}, nil
}

func (r *Room) Player(playerID string) (*Player, error) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, apperr.NotFound("player %s is not in room %s", playerID, r.Code)
	}
	return p, nil
}

// Opponent returns the other seated player.
func (r *Room) Opponent(playerID string) (*Player, error) {
	for _, id := range r.Seats {
		if id != playerID {
			return r.Players[id], nil
		}
	}
	return nil, apperr.NotFound("room %s has no opponent for %s", r.Code, playerID)
}

func (r *Room) Completed() bool {
	return r.Status == StatusCompleted
}

// Active reports whether the room still needs timekeeping.
func (r *Room) Active() bool {
	return r.Status == StatusInProgress || r.Status == StatusPaused
}

func (r *Room) appendMove(playerID string, detail MoveDetail, at time.Time) {
	r.Moves = append(r.Moves, Move{PlayerID: playerID, At: at, Detail: detail})
}

// LastMove returns the newest log entry, or nil for an empty log.
func (r *Room) LastMove() *Move {
	if len(r.Moves) == 0 {
		return nil
	}
	return &r.Moves[len(r.Moves)-1]
}
