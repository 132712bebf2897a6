package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVictoryWhenAllShipsSunk(t *testing.T) {
	r := newPlacedRoom(t, false)

	// God's Hand over all four quadrants levels p2's entire grid; the
	// strike that sinks the last ship completes the game immediately.
	var last AbilityOutcome
	for q := 0; q < 4; q++ {
		out, err := GodsHand(r, "admin1", "p2", q, testStart)
		require.NoError(t, err)
		last = out
	}
	require.True(t, last.GameOver)
	require.Equal(t, "p1", last.WinnerID)
	require.Equal(t, StatusCompleted, r.Status)
	require.Equal(t, "p1", r.Winner)
	require.False(t, r.Draw)
	require.True(t, r.Players["p2"].Grid.AllShipsSunk())
}

func TestNoVictoryWhileSegmentsSurvive(t *testing.T) {
	r := newPlacedRoom(t, false)
	_, err := Attack(r, "p1", 3, 3, testStart)
	require.NoError(t, err)
	winner, over := CheckVictory(r)
	require.False(t, over)
	require.Empty(t, winner)
	require.Equal(t, StatusInProgress, r.Status)
}

func sinkCells(t *testing.T, p *Player, cells [][2]int) {
	t.Helper()
	for _, c := range cells {
		grid, _, err := p.Grid.ApplyShot(c[0], c[1])
		require.NoError(t, err)
		p.Grid = grid
	}
}

func TestExpireClockMoreSegmentsWins(t *testing.T) {
	r := newPlacedRoom(t, false)

	// Knock two segments off p1, none off p2.
	sinkCells(t, r.Players["p1"], [][2]int{{0, 0}, {1, 0}})

	r.MatchDeadline = testStart
	require.True(t, ExpireClock(r, testStart))
	require.Equal(t, StatusCompleted, r.Status)
	require.Equal(t, "p2", r.Winner)
	require.False(t, r.Draw)
}

func TestExpireClockAccuracyTiebreak(t *testing.T) {
	r := newPlacedRoom(t, false)

	// Equal surviving segments, p1 with the better hit ratio.
	r.Players["p1"].ShotsFired = 10
	r.Players["p1"].ShotsHit = 5
	r.Players["p2"].ShotsFired = 10
	r.Players["p2"].ShotsHit = 2

	r.MatchDeadline = testStart
	require.True(t, ExpireClock(r, testStart))
	require.Equal(t, "p1", r.Winner)
}

func TestExpireClockDraw(t *testing.T) {
	r := newPlacedRoom(t, false)
	r.MatchDeadline = testStart
	require.True(t, ExpireClock(r, testStart))
	require.Equal(t, StatusCompleted, r.Status)
	require.Empty(t, r.Winner)
	require.True(t, r.Draw)
}

func TestExpireClockGuards(t *testing.T) {
	r := newPlacedRoom(t, false)

	// Deadline not reached.
	require.False(t, ExpireClock(r, r.MatchDeadline.Add(-time.Second)))
	require.Equal(t, StatusInProgress, r.Status)

	// Untimed matches never expire.
	r2 := newPlacedRoom(t, false)
	r2.Settings.MatchTimeLimit = 0
	r2.MatchDeadline = time.Time{}
	require.False(t, ExpireClock(r2, testStart.Add(24*time.Hour)))

	// Completed rooms are left alone.
	require.NoError(t, AdminEndGame(r, "admin1", testStart))
	require.False(t, ExpireClock(r, r.MatchDeadline.Add(time.Hour)))
}
