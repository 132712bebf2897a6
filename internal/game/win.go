package game

import "time"

// CheckVictory scans both grids for the primary win condition: a player
// wins the moment every opponent ship cell is hit. Called after every
// state-mutating action.
func CheckVictory(r *Room) (winnerID string, over bool) {
	if len(r.Seats) != MaxPlayers {
		return "", false
	}
	for _, id := range r.Seats {
		p := r.Players[id]
		if p.Grid != nil && p.Grid.AllShipsSunk() {
			opp, err := r.Opponent(id)
			if err != nil {
				return "", false
			}
			return opp.ID, true
		}
	}
	return "", false
}

// ExpireClock settles a match whose wall-clock budget ran out. The
// player with more surviving ship segments wins; ties fall back to hit
// accuracy; a remaining tie is declared a draw. Returns false when the
// clock has not actually expired or the room is not in progress.
func ExpireClock(r *Room, now time.Time) bool {
	if r.Status != StatusInProgress {
		return false
	}
	if r.Settings.MatchTimeLimit <= 0 || r.MatchDeadline.IsZero() {
		return false
	}
	if now.Before(r.MatchDeadline) {
		return false
	}

	a := r.Players[r.Seats[0]]
	b := r.Players[r.Seats[1]]

	segA, segB := a.Grid.SurvivingSegments(), b.Grid.SurvivingSegments()
	switch {
	case segA > segB:
		complete(r, a.ID, false, now)
	case segB > segA:
		complete(r, b.ID, false, now)
	default:
		accA, accB := a.accuracy(), b.accuracy()
		switch {
		case accA > accB:
			complete(r, a.ID, false, now)
		case accB > accA:
			complete(r, b.ID, false, now)
		default:
			complete(r, "", true, now)
		}
	}
	return true
}
