package game

import (
	"encoding/json"
	"time"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

type MoveType string

const (
	MoveAttack      MoveType = "attack"
	MoveAbility     MoveType = "ability"
	MoveJam         MoveType = "jam"
	MoveCounter     MoveType = "counter"
	MoveTimeout     MoveType = "timeout"
	MoveAdminAction MoveType = "admin_action"
	MoveEmote       MoveType = "emote"
)

// MoveDetail is the variant payload of one move. Each variant carries
// only its own fields; the envelope adds type, actor and timestamp.
type MoveDetail interface {
	MoveType() MoveType
}

type AttackDetail struct {
	Col        int    `json:"col"`
	Row        int    `json:"row"`
	IsHit      bool   `json:"isHit"`
	SunkShipID string `json:"sunkShipId,omitempty"`
}

func (AttackDetail) MoveType() MoveType { return MoveAttack }

type AbilityDetail struct {
	Key AbilityKey `json:"key"`
	// Anchor of the effect where the ability targets a cell or line.
	TargetCol int `json:"targetCol,omitempty"`
	TargetRow int `json:"targetRow,omitempty"`
	// Cells the effect struck, in strike order.
	StruckCells []Coord `json:"struckCells,omitempty"`
	// Cells revealed by support abilities that carry ships.
	RevealedCells []Coord  `json:"revealedCells,omitempty"`
	SunkShipIDs   []string `json:"sunkShipIds,omitempty"`
}

func (AbilityDetail) MoveType() MoveType { return MoveAbility }

// JamDetail records an action absorbed by an armed jam: the blocked
// coordinates and, when an ability was blocked, its key.
type JamDetail struct {
	BlockedCol     int        `json:"blockedCol"`
	BlockedRow     int        `json:"blockedRow"`
	BlockedAbility AbilityKey `json:"blockedAbility,omitempty"`
}

func (JamDetail) MoveType() MoveType { return MoveJam }

// CounterDetail records the synchronous retaliation fired when a hit
// lands on a player holding COUNTER.
type CounterDetail struct {
	TargetCol      int          `json:"targetCol"`
	TargetRow      int          `json:"targetRow"`
	IsHit          bool         `json:"isHit"`
	SunkShipID     string       `json:"sunkShipId,omitempty"`
	OriginalAttack AttackDetail `json:"originalAttack"`
}

func (CounterDetail) MoveType() MoveType { return MoveCounter }

type TimeoutDetail struct{}

func (TimeoutDetail) MoveType() MoveType { return MoveTimeout }

type AdminActionDetail struct {
	Action string `json:"action"`
	// Player the action concerns, when it concerns one.
	TargetPlayerID string     `json:"targetPlayerId,omitempty"`
	QuadrantIndex  int        `json:"quadrantIndex,omitempty"`
	AbilityKey     AbilityKey `json:"abilityKey,omitempty"`
}

func (AdminActionDetail) MoveType() MoveType { return MoveAdminAction }

type EmoteDetail struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

func (EmoteDetail) MoveType() MoveType { return MoveEmote }

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Move is one append-only log entry. Immutable once written; At is the
// ordering key.
type Move struct {
	PlayerID string
	At       time.Time
	Detail   MoveDetail
}

type moveEnvelope struct {
	Type     MoveType        `json:"type"`
	PlayerID string          `json:"playerId,omitempty"`
	At       time.Time       `json:"at"`
	Detail   json.RawMessage `json:"detail"`
}

func (m Move) MarshalJSON() ([]byte, error) {
	detail, err := json.Marshal(m.Detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(moveEnvelope{
		Type:     m.Detail.MoveType(),
		PlayerID: m.PlayerID,
		At:       m.At,
		Detail:   detail,
	})
}

func (m *Move) UnmarshalJSON(data []byte) error {
	var env moveEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var detail MoveDetail
	switch env.Type {
	case MoveAttack:
		detail = &AttackDetail{}
	case MoveAbility:
		detail = &AbilityDetail{}
	case MoveJam:
		detail = &JamDetail{}
	case MoveCounter:
		detail = &CounterDetail{}
	case MoveTimeout:
		detail = &TimeoutDetail{}
	case MoveAdminAction:
		detail = &AdminActionDetail{}
	case MoveEmote:
		detail = &EmoteDetail{}
	default:
		return apperr.Validation("unknown move type: %s", env.Type)
	}
	if len(env.Detail) > 0 {
		if err := json.Unmarshal(env.Detail, detail); err != nil {
			return err
		}
	}

	m.PlayerID = env.PlayerID
	m.At = env.At
	switch d := detail.(type) {
	case *AttackDetail:
		m.Detail = *d
	case *AbilityDetail:
		m.Detail = *d
	case *JamDetail:
		m.Detail = *d
	case *CounterDetail:
		m.Detail = *d
	case *TimeoutDetail:
		m.Detail = *d
	case *AdminActionDetail:
		m.Detail = *d
	case *EmoteDetail:
		m.Detail = *d
	}
	return nil
}
