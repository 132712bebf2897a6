package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newPlacedRoom spins up an 8x8 friendly room with both players seated,
// placed identically and ready, so the match is in progress with p1 to
// act.
func newPlacedRoom(t *testing.T, abilities bool) *Room {
	t.Helper()
	settings := DefaultSettings()
	settings.AbilitiesEnabled = abilities

	r, err := NewRoom("TEST1", ModeFriendly, "", settings, testStart)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, r.Status)

	require.NoError(t, Join(r, "p1", "Ada", testStart))
	require.Equal(t, StatusWaiting, r.Status)
	require.NoError(t, Join(r, "p2", "Grace", testStart.Add(time.Second)))
	require.Equal(t, StatusPlacing, r.Status)

	rng := rand.New(rand.NewSource(42))
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, SubmitPlacement(r, id, validPlacement8()))
		require.NoError(t, MarkReady(r, id, rng, testStart.Add(2*time.Second)))
	}
	require.Equal(t, StatusInProgress, r.Status)
	require.Equal(t, "p1", r.CurrentTurn)
	return r
}

func TestJoinRules(t *testing.T) {
	r, err := NewRoom("AB12", ModeFriendly, "", DefaultSettings(), testStart)
	require.NoError(t, err)

	require.True(t, apperr.Is(Join(r, "p1", "  ", testStart), apperr.KindValidation))
	require.NoError(t, Join(r, "p1", "Ada", testStart))
	require.True(t, apperr.Is(Join(r, "p1", "Ada", testStart), apperr.KindConflict))
	require.NoError(t, Join(r, "p2", "Grace", testStart))

	// Room is in the placement phase now, late joiners bounce.
	err = Join(r, "p3", "Eve", testStart)
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))
}

func TestPlacementLockedAfterReady(t *testing.T) {
	r := newPlacedRoom(t, false)
	err := SubmitPlacement(r, "p1", validPlacement8())
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))
}

func TestMatchStartScenario(t *testing.T) {
	r := newPlacedRoom(t, false)
	require.Equal(t, "p1", r.CurrentTurn)
	require.False(t, r.MatchDeadline.IsZero())
	require.False(t, r.TurnDeadline.IsZero())

	// First attack lands on a battleship segment and passes the turn.
	out, err := Attack(r, "p1", 3, 3, testStart.Add(5*time.Second))
	require.NoError(t, err)
	require.True(t, out.Shot.IsHit)
	require.Empty(t, out.Shot.SunkShipID)
	require.Equal(t, "p2", r.CurrentTurn)

	require.Len(t, r.Moves, 1)
	detail, ok := r.Moves[0].Detail.(AttackDetail)
	require.True(t, ok)
	require.Equal(t, AttackDetail{Col: 3, Row: 3, IsHit: true}, detail)
	require.Equal(t, "p1", r.Moves[0].PlayerID)
}

func TestAttackAlternatesTurnEvenOnHit(t *testing.T) {
	r := newPlacedRoom(t, false)

	_, err := Attack(r, "p1", 0, 0, testStart)
	require.NoError(t, err)
	require.Equal(t, "p2", r.CurrentTurn)

	_, err = Attack(r, "p2", 7, 7, testStart)
	require.NoError(t, err)
	require.Equal(t, "p1", r.CurrentTurn)
}

func TestAttackRejections(t *testing.T) {
	r := newPlacedRoom(t, false)

	// Out of turn.
	_, err := Attack(r, "p2", 0, 0, testStart)
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))

	// Out of bounds.
	_, err = Attack(r, "p1", 8, 0, testStart)
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))

	// Unknown player.
	_, err = Attack(r, "ghost", 0, 0, testStart)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	// Rejected actions leave no trace.
	require.Empty(t, r.Moves)
	require.Equal(t, "p1", r.CurrentTurn)

	// Already targeted cell.
	_, err = Attack(r, "p1", 0, 0, testStart)
	require.NoError(t, err)
	_, err = Attack(r, "p2", 5, 5, testStart)
	require.NoError(t, err)
	_, err = Attack(r, "p1", 0, 0, testStart)
	require.True(t, apperr.Is(err, apperr.KindConflict))
	require.Len(t, r.Moves, 2)
}

func TestTimeout(t *testing.T) {
	r := newPlacedRoom(t, false)
	deadline := r.TurnDeadline

	// Timer has not elapsed yet: silently discarded.
	require.False(t, Timeout(r, deadline.Add(-time.Second)))
	require.Equal(t, "p1", r.CurrentTurn)

	require.True(t, Timeout(r, deadline))
	require.Equal(t, "p2", r.CurrentTurn)
	require.Len(t, r.Moves, 1)
	require.IsType(t, TimeoutDetail{}, r.Moves[0].Detail)

	// A stale timer firing after the turn advanced loses against the
	// refreshed deadline.
	require.False(t, Timeout(r, deadline))
}

func TestTimeoutDiscardedWhenUnlimited(t *testing.T) {
	settings := DefaultSettings()
	settings.TurnTimeLimit = 0
	r, err := NewRoom("NOTM", ModeCustom, "", settings, testStart)
	require.NoError(t, err)
	require.NoError(t, Join(r, "p1", "Ada", testStart))
	require.NoError(t, Join(r, "p2", "Grace", testStart))
	rng := rand.New(rand.NewSource(1))
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, SubmitPlacement(r, id, validPlacement8()))
		require.NoError(t, MarkReady(r, id, rng, testStart))
	}

	require.True(t, r.TurnDeadline.IsZero())
	require.False(t, Timeout(r, testStart.Add(time.Hour)))
}

func TestPauseAndResume(t *testing.T) {
	r := newPlacedRoom(t, false)
	turnDeadline := r.TurnDeadline

	pausedAt := testStart.Add(10 * time.Second)
	require.NoError(t, Pause(r, pausedAt))
	require.Equal(t, StatusPaused, r.Status)
	require.True(t, r.TurnDeadline.IsZero())
	require.Equal(t, turnDeadline.Sub(pausedAt), r.TurnRemaining)

	// No actions while paused, timers included.
	_, err := Attack(r, "p1", 0, 0, pausedAt)
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))
	require.False(t, Timeout(r, pausedAt.Add(time.Hour)))
	require.True(t, apperr.Is(Pause(r, pausedAt), apperr.KindIllegalAction))

	resumedAt := pausedAt.Add(5 * time.Minute)
	require.NoError(t, Resume(r, resumedAt))
	require.Equal(t, StatusInProgress, r.Status)
	require.Equal(t, resumedAt.Add(turnDeadline.Sub(pausedAt)), r.TurnDeadline)
	require.Zero(t, r.TurnRemaining)

	_, err = Attack(r, "p1", 0, 0, resumedAt)
	require.NoError(t, err)
}

func TestPauseAfterDeadlineKeepsTurnTimed(t *testing.T) {
	r := newPlacedRoom(t, false)

	// The pause lands after the turn deadline already passed.
	pausedAt := r.TurnDeadline.Add(3 * time.Second)
	require.NoError(t, Pause(r, pausedAt))
	require.Equal(t, time.Second, r.TurnRemaining)

	resumedAt := pausedAt.Add(time.Minute)
	require.NoError(t, Resume(r, resumedAt))
	require.False(t, r.TurnDeadline.IsZero())

	// The overdue turn times out on the next sweep instead of running
	// untimed forever.
	require.True(t, Timeout(r, resumedAt.Add(time.Second)))
	require.Equal(t, "p2", r.CurrentTurn)
	require.IsType(t, TimeoutDetail{}, r.Moves[0].Detail)
}

func TestAdminDeclareWinnerAndImmutability(t *testing.T) {
	r := newPlacedRoom(t, false)
	require.NoError(t, AdminDeclareWinner(r, "admin1", "p2", testStart))
	require.Equal(t, StatusCompleted, r.Status)
	require.Equal(t, "p2", r.Winner)
	require.IsType(t, AdminActionDetail{}, r.Moves[0].Detail)

	// Completed room accepts nothing further.
	_, err := Attack(r, "p1", 0, 0, testStart)
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))
	require.True(t, apperr.Is(SendEmote(r, "p1", "taunt", "gg", testStart), apperr.KindIllegalAction))
	require.True(t, apperr.Is(AdminEndGame(r, "admin1", testStart), apperr.KindIllegalAction))
	require.False(t, Timeout(r, testStart.Add(time.Hour)))
	require.Len(t, r.Moves, 1)
}

func TestAdminEndGame(t *testing.T) {
	r := newPlacedRoom(t, false)
	require.NoError(t, AdminEndGame(r, "admin1", testStart))
	require.Equal(t, StatusCompleted, r.Status)
	require.Empty(t, r.Winner)
	require.False(t, r.Draw)
}

func TestEmote(t *testing.T) {
	r := newPlacedRoom(t, false)
	require.NoError(t, SendEmote(r, "p2", "taunt", "you sunk my battleship", testStart))
	require.Equal(t, "p1", r.CurrentTurn, "emotes never consume the turn")
	require.True(t, apperr.Is(SendEmote(r, "p2", "taunt", "  ", testStart), apperr.KindValidation))
	require.True(t, apperr.Is(SendEmote(r, "ghost", "taunt", "hi", testStart), apperr.KindNotFound))
}
