package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The move log round-trips through the stored room document, so the
// envelope must restore each variant with its concrete type.
func TestMoveLogRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	moves := []Move{
		{PlayerID: "p1", At: at, Detail: AttackDetail{Col: 3, Row: 4, IsHit: true, SunkShipID: "scout"}},
		{PlayerID: "p2", At: at, Detail: CounterDetail{TargetCol: 3, TargetRow: 4, IsHit: false, OriginalAttack: AttackDetail{Col: 3, Row: 4, IsHit: true}}},
		{PlayerID: "p1", At: at, Detail: JamDetail{BlockedCol: 3, BlockedRow: 4, BlockedAbility: AbilityNuke}},
		{PlayerID: "p1", At: at, Detail: TimeoutDetail{}},
		{PlayerID: "admin1", At: at, Detail: AdminActionDetail{Action: "gods_hand", TargetPlayerID: "p2", QuadrantIndex: 2}},
		{PlayerID: "p2", At: at, Detail: EmoteDetail{Category: "taunt", Text: "so close"}},
	}

	data, err := json.Marshal(moves)
	require.NoError(t, err)

	var decoded []Move
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, moves, decoded)
}

func TestMoveUnknownTypeRejected(t *testing.T) {
	var m Move
	err := json.Unmarshal([]byte(`{"type":"teleport","at":"2025-03-01T12:00:00Z","detail":{}}`), &m)
	require.Error(t, err)
}
