package db

import "time"

// AdminAccount is one row of the admins collection: the single
// credential representation admin authorization runs against.
type AdminAccount struct {
	Username    string    `json:"username" db:"username"`
	Password    string    `json:"-" db:"password"` // bcrypt hash
	DisplayName string    `json:"display_name" db:"display_name"`
	Permissions []string  `json:"permissions" db:"permissions"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MatchRecord archives one completed room.
type MatchRecord struct {
	ID         int64     `json:"id" db:"id"`
	RoomCode   string    `json:"room_code" db:"room_code"`
	Mode       string    `json:"mode" db:"mode"`
	WinnerName string    `json:"winner_name" db:"winner_name"`
	LoserName  string    `json:"loser_name" db:"loser_name"`
	Draw       bool      `json:"draw" db:"draw"`
	Moves      int       `json:"moves" db:"moves"`
	Duration   int       `json:"duration_seconds" db:"duration_seconds"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

// PlayerStats aggregates archived results per display name.
type PlayerStats struct {
	PlayerName string `json:"player_name" db:"player_name"`
	Wins       int    `json:"wins" db:"wins"`
	Losses     int    `json:"losses" db:"losses"`
	Draws      int    `json:"draws" db:"draws"`
	Elo        int    `json:"elo" db:"elo"`
}
