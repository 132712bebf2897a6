package game

import (
	"math/rand"
	"strings"
	"time"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

// Join seats a player in a waiting room. The second join moves the room
// into the placement phase.
func Join(r *Room, playerID, name string, now time.Time) error {
	if r.Status != StatusWaiting {
		return apperr.IllegalAction("room %s is not accepting players (status %s)", r.Code, r.Status)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("player name cannot be empty")
	}
	if playerID == "" {
		return apperr.Validation("player id cannot be empty")
	}
	if _, ok := r.Players[playerID]; ok {
		return apperr.Conflict("player %s already joined room %s", playerID, r.Code)
	}
	if len(r.Seats) >= MaxPlayers {
		return apperr.IllegalAction("room %s is full", r.Code)
	}

	r.Players[playerID] = &Player{
		ID:       playerID,
		Name:     name,
		JoinedAt: now,
	}
	r.Seats = append(r.Seats, playerID)
	if len(r.Seats) == MaxPlayers {
		r.Status = StatusPlacing
	}
	return nil
}

// SubmitPlacement validates and stores a player's full ship layout. It
// may be re-submitted any number of times until the player marks ready.
func SubmitPlacement(r *Room, playerID string, placement Placement) error {
	if r.Status != StatusPlacing {
		return apperr.IllegalAction("room %s is not in the placement phase", r.Code)
	}
	p, err := r.Player(playerID)
	if err != nil {
		return err
	}
	if p.Ready {
		return apperr.IllegalAction("placement for %s is locked after ready", playerID)
	}
	grid, err := BuildGrid(r.Settings.Fleet, r.Settings.GridSize, placement)
	if err != nil {
		return err
	}
	p.Placement = placement
	p.Grid = grid
	return nil
}

// MarkReady freezes the player's placement. When both players are ready
// the match starts: the first-seated player takes the first turn and,
// when abilities are enabled, each player draws one random ability per
// category.
func MarkReady(r *Room, playerID string, rng *rand.Rand, now time.Time) error {
	if r.Status != StatusPlacing {
		return apperr.IllegalAction("room %s is not in the placement phase", r.Code)
	}
	p, err := r.Player(playerID)
	if err != nil {
		return err
	}
	if p.Placement == nil {
		return apperr.IllegalAction("player %s has not submitted a placement", playerID)
	}
	if p.Ready {
		return nil
	}
	p.Ready = true

	for _, id := range r.Seats {
		if !r.Players[id].Ready {
			return nil
		}
	}
	startMatch(r, rng, now)
	return nil
}

func startMatch(r *Room, rng *rand.Rand, now time.Time) {
	r.Status = StatusInProgress
	r.StartedAt = now
	r.CurrentTurn = r.Seats[0]
	if r.Settings.AbilitiesEnabled {
		for _, id := range r.Seats {
			grantRandomLoadout(r.Players[id], rng, now)
		}
	}
	if r.Settings.MatchTimeLimit > 0 {
		r.MatchDeadline = now.Add(time.Duration(r.Settings.MatchTimeLimit) * time.Second)
	}
	resetTurnDeadline(r, now)
}

func resetTurnDeadline(r *Room, now time.Time) {
	if r.Settings.TurnTimeLimit > 0 {
		r.TurnDeadline = now.Add(time.Duration(r.Settings.TurnTimeLimit) * time.Second)
	} else {
		r.TurnDeadline = time.Time{}
	}
}

// validateTurnAction gates every turn-consuming player action.
func validateTurnAction(r *Room, playerID string) (*Player, *Player, error) {
	if r.Status != StatusInProgress {
		return nil, nil, apperr.IllegalAction("room %s is not in progress (status %s)", r.Code, r.Status)
	}
	p, err := r.Player(playerID)
	if err != nil {
		return nil, nil, err
	}
	if r.CurrentTurn != playerID {
		return nil, nil, apperr.IllegalAction("not %s's turn", playerID)
	}
	opp, err := r.Opponent(playerID)
	if err != nil {
		return nil, nil, err
	}
	return p, opp, nil
}

// endTurn flips ownership after a turn-consuming action and advances the
// opponent's duration abilities, which count the acting player's
// completed turns.
func endTurn(r *Room, actorID string, now time.Time) {
	opp, err := r.Opponent(actorID)
	if err != nil {
		return
	}
	tickDurations(opp)
	r.CurrentTurn = opp.ID
	resetTurnDeadline(r, now)
}

func complete(r *Room, winnerID string, draw bool, now time.Time) {
	r.Status = StatusCompleted
	r.Winner = winnerID
	r.Draw = draw
	r.CompletedAt = now
	r.CurrentTurn = ""
	r.TurnDeadline = time.Time{}
	r.MatchDeadline = time.Time{}
}

// AttackOutcome summarizes how one attack resolved.
type AttackOutcome struct {
	Jammed    bool       `json:"jammed"`
	Shot      ShotResult `json:"shot"`
	Countered bool       `json:"countered"`
	Counter   ShotResult `json:"counter"`
	GameOver  bool       `json:"gameOver"`
	WinnerID  string     `json:"winnerId,omitempty"`
}

// Attack fires at (col,row) on the opponent's grid. An armed JAM on the
// defender absorbs the shot and is consumed. A hit on a defender holding
// an armed COUNTER triggers a synchronous retaliation at the same
// coordinate on the attacker's grid. The turn always passes to the
// defender afterwards.
func Attack(r *Room, playerID string, col, row int, now time.Time) (AttackOutcome, error) {
	attacker, defender, err := validateTurnAction(r, playerID)
	if err != nil {
		return AttackOutcome{}, err
	}
	if !defender.Grid.InBounds(col, row) {
		return AttackOutcome{}, apperr.IllegalAction("attack out of grid bounds: (%d,%d)", col, row)
	}

	var out AttackOutcome
	if jam := defender.Abilities[AbilityJam]; jam.armed() {
		jam.Used = true
		jam.Active = false
		out.Jammed = true
		attacker.ShotsFired++
		r.appendMove(playerID, JamDetail{BlockedCol: col, BlockedRow: row}, now)
		endTurn(r, playerID, now)
		return out, nil
	}

	grid, res, err := defender.Grid.ApplyShot(col, row)
	if err != nil {
		return AttackOutcome{}, err
	}
	defender.Grid = grid
	out.Shot = res
	attacker.ShotsFired++
	if res.IsHit {
		attacker.ShotsHit++
	}
	attack := AttackDetail{Col: col, Row: row, IsHit: res.IsHit, SunkShipID: res.SunkShipID}
	r.appendMove(playerID, attack, now)

	// COUNTER resolves inside the triggering attack and chains its own
	// move to the log.
	if res.IsHit {
		if counter := defender.Abilities[AbilityCounter]; counter.armed() {
			counter.Used = true
			counter.Active = false
			out.Countered = true
			detail := CounterDetail{TargetCol: col, TargetRow: row, OriginalAttack: attack}
			if cgrid, cres, cerr := attacker.Grid.ApplyShot(col, row); cerr == nil {
				attacker.Grid = cgrid
				defender.ShotsFired++
				if cres.IsHit {
					defender.ShotsHit++
				}
				out.Counter = cres
				detail.IsHit = cres.IsHit
				detail.SunkShipID = cres.SunkShipID
			}
			r.appendMove(defender.ID, detail, now)
		}
	}

	if winner, over := CheckVictory(r); over {
		complete(r, winner, false, now)
		out.GameOver = true
		out.WinnerID = winner
		return out, nil
	}
	endTurn(r, playerID, now)
	return out, nil
}

// AbilityTarget anchors an ability effect. Line selects the sweep axis
// for ANNIHILATE.
type AbilityTarget struct {
	Col  int         `json:"col"`
	Row  int         `json:"row"`
	Line Orientation `json:"line,omitempty"`
}

type AbilityOutcome struct {
	Jammed   bool     `json:"jammed"`
	Struck   []Coord  `json:"struck,omitempty"`
	Sunk     []string `json:"sunk,omitempty"`
	Revealed []Coord  `json:"revealed,omitempty"`
	GameOver bool     `json:"gameOver"`
	WinnerID string   `json:"winnerId,omitempty"`
}

// UseAbility consumes an installed ability and applies its effect. Using
// an ability ends the turn exactly like an attack. Offensive abilities
// are absorbed by an armed JAM on the defender.
func UseAbility(r *Room, playerID string, key AbilityKey, target AbilityTarget, now time.Time) (AbilityOutcome, error) {
	user, defender, err := validateTurnAction(r, playerID)
	if err != nil {
		return AbilityOutcome{}, err
	}
	ab, err := LookupAbility(key)
	if err != nil {
		return AbilityOutcome{}, err
	}
	if ab.AdminOnly {
		return AbilityOutcome{}, apperr.Authorization("%s is an admin-only override", key)
	}
	st, err := checkUsable(user, key)
	if err != nil {
		return AbilityOutcome{}, err
	}

	cells, err := effectCells(defender.Grid, ab, target)
	if err != nil {
		return AbilityOutcome{}, err
	}

	var out AbilityOutcome
	detail := AbilityDetail{Key: key, TargetCol: target.Col, TargetRow: target.Row}

	if ab.Category == CategoryAttack {
		if jam := defender.Abilities[AbilityJam]; jam.armed() {
			jam.Used = true
			jam.Active = false
			st.Used = true
			st.Active = false
			out.Jammed = true
			r.appendMove(playerID, JamDetail{BlockedCol: target.Col, BlockedRow: target.Row, BlockedAbility: key}, now)
			endTurn(r, playerID, now)
			return out, nil
		}
		grid := defender.Grid
		for _, c := range cells {
			if grid[c.Y][c.X].Targeted() {
				continue
			}
			next, res, shotErr := grid.ApplyShot(c.X, c.Y)
			if shotErr != nil {
				continue
			}
			grid = next
			user.ShotsFired++
			if res.IsHit {
				user.ShotsHit++
			}
			out.Struck = append(out.Struck, c)
			if res.SunkShipID != "" {
				out.Sunk = append(out.Sunk, res.SunkShipID)
			}
		}
		defender.Grid = grid
		detail.StruckCells = out.Struck
		detail.SunkShipIDs = out.Sunk
	} else {
		// Support abilities reveal without damaging.
		out.Revealed = revealCells(defender, ab, cells)
		detail.RevealedCells = out.Revealed
	}

	st.Used = true
	st.Active = false
	r.appendMove(playerID, detail, now)

	if winner, over := CheckVictory(r); over {
		complete(r, winner, false, now)
		out.GameOver = true
		out.WinnerID = winner
		return out, nil
	}
	endTurn(r, playerID, now)
	return out, nil
}

// effectCells resolves the footprint of an ability on the target grid.
// Area effects are clipped to the grid; an anchor fully outside it is
// rejected.
func effectCells(grid Grid, ab Ability, target AbilityTarget) ([]Coord, error) {
	size := grid.Size()
	switch ab.Key {
	case AbilityNuke, AbilityScanner:
		if !grid.InBounds(target.Col, target.Row) {
			return nil, apperr.IllegalAction("%s anchor out of bounds: (%d,%d)", ab.Key, target.Col, target.Row)
		}
		cells := make([]Coord, 0, 4)
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				x, y := target.Col+dx, target.Row+dy
				if grid.InBounds(x, y) {
					cells = append(cells, Coord{X: x, Y: y})
				}
			}
		}
		return cells, nil
	case AbilityAnnihilate:
		if !target.Line.Valid() {
			return nil, apperr.Validation("%s requires a line orientation", ab.Key)
		}
		if target.Line == Horizontal {
			if target.Row < 0 || target.Row >= size {
				return nil, apperr.IllegalAction("row %d out of bounds", target.Row)
			}
			cells := make([]Coord, 0, size)
			for x := 0; x < size; x++ {
				cells = append(cells, Coord{X: x, Y: target.Row})
			}
			return cells, nil
		}
		if target.Col < 0 || target.Col >= size {
			return nil, apperr.IllegalAction("column %d out of bounds", target.Col)
		}
		cells := make([]Coord, 0, size)
		for y := 0; y < size; y++ {
			cells = append(cells, Coord{X: target.Col, Y: y})
		}
		return cells, nil
	case AbilityHacker:
		// Target-free; footprint resolved against hidden ship cells.
		return nil, nil
	}
	return nil, apperr.Validation("ability %s has no effect footprint", ab.Key)
}

func revealCells(defender *Player, ab Ability, cells []Coord) []Coord {
	var revealed []Coord
	switch ab.Key {
	case AbilityScanner:
		for _, c := range cells {
			cell := defender.Grid[c.Y][c.X]
			if cell.ShipID != "" && !cell.Hit {
				revealed = append(revealed, c)
			}
		}
	case AbilityHacker:
		// First hidden ship cell in row-major order.
		for y := range defender.Grid {
			for x := range defender.Grid[y] {
				cell := defender.Grid[y][x]
				if cell.ShipID != "" && !cell.Hit && !defender.isRevealed(x, y) {
					revealed = append(revealed, Coord{X: x, Y: y})
					defender.Revealed = append(defender.Revealed, Coord{X: x, Y: y})
					return revealed
				}
			}
		}
		return nil
	}
	for _, c := range revealed {
		if !defender.isRevealed(c.X, c.Y) {
			defender.Revealed = append(defender.Revealed, c)
		}
	}
	return revealed
}

// SendEmote relays a taunt to the room. Emotes never consume the turn.
func SendEmote(r *Room, playerID, category, text string, now time.Time) error {
	if r.Completed() {
		return apperr.IllegalAction("room %s is completed", r.Code)
	}
	if _, err := r.Player(playerID); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperr.Validation("emote text cannot be empty")
	}
	r.appendMove(playerID, EmoteDetail{Category: category, Text: text}, now)
	return nil
}

// Timeout records an expired turn timer and passes the turn. Returns
// false when the move should be silently discarded: the room left
// in_progress, turns are untimed, or the deadline was already reset by a
// newer action.
func Timeout(r *Room, now time.Time) bool {
	if r.Status != StatusInProgress {
		return false
	}
	if r.Settings.TurnTimeLimit <= 0 || r.TurnDeadline.IsZero() {
		return false
	}
	if now.Before(r.TurnDeadline) {
		return false
	}
	actor := r.CurrentTurn
	r.appendMove(actor, TimeoutDetail{}, now)
	endTurn(r, actor, now)
	return true
}

// Pause freezes the room's timers. Admin toggle only; the remaining turn
// and match budgets are captured and restored on resume.
func Pause(r *Room, now time.Time) error {
	if r.Status != StatusInProgress {
		return apperr.IllegalAction("room %s cannot be paused (status %s)", r.Code, r.Status)
	}
	r.Status = StatusPaused
	r.PausedAt = now
	if !r.TurnDeadline.IsZero() {
		r.TurnRemaining = clampRemaining(r.TurnDeadline.Sub(now))
		r.TurnDeadline = time.Time{}
	}
	if !r.MatchDeadline.IsZero() {
		r.MatchRemaining = clampRemaining(r.MatchDeadline.Sub(now))
		r.MatchDeadline = time.Time{}
	}
	return nil
}

// clampRemaining keeps a captured budget positive so a deadline that
// already passed when the pause landed resumes as immediately due (the
// timekeeper fires it) instead of erasing the timer.
func clampRemaining(d time.Duration) time.Duration {
	if d < time.Second {
		return time.Second
	}
	return d
}

func Resume(r *Room, now time.Time) error {
	if r.Status != StatusPaused {
		return apperr.IllegalAction("room %s is not paused (status %s)", r.Code, r.Status)
	}
	r.Status = StatusInProgress
	if r.TurnRemaining > 0 {
		r.TurnDeadline = now.Add(r.TurnRemaining)
	}
	if r.MatchRemaining > 0 {
		r.MatchDeadline = now.Add(r.MatchRemaining)
	}
	r.PausedAt = time.Time{}
	r.TurnRemaining = 0
	r.MatchRemaining = 0
	return nil
}

// AdminGrantAbility installs an ability on a player outside the normal
// draw, logged as an admin action.
func AdminGrantAbility(r *Room, adminID, targetPlayerID string, key AbilityKey, now time.Time) error {
	if r.Completed() {
		return apperr.IllegalAction("room %s is completed", r.Code)
	}
	p, err := r.Player(targetPlayerID)
	if err != nil {
		return err
	}
	if err := GrantAbility(p, key, now); err != nil {
		return err
	}
	r.appendMove(adminID, AdminActionDetail{Action: "grant_ability", TargetPlayerID: targetPlayerID, AbilityKey: key}, now)
	return nil
}

// AdminDeclareWinner forces completion with the given winner regardless
// of board state.
func AdminDeclareWinner(r *Room, adminID, winnerID string, now time.Time) error {
	if r.Completed() {
		return apperr.IllegalAction("room %s is already completed", r.Code)
	}
	if _, err := r.Player(winnerID); err != nil {
		return err
	}
	r.appendMove(adminID, AdminActionDetail{Action: "declare_winner", TargetPlayerID: winnerID}, now)
	complete(r, winnerID, false, now)
	return nil
}

// AdminEndGame terminates the room with no winner.
func AdminEndGame(r *Room, adminID string, now time.Time) error {
	if r.Completed() {
		return apperr.IllegalAction("room %s is already completed", r.Code)
	}
	r.appendMove(adminID, AdminActionDetail{Action: "end_game"}, now)
	complete(r, "", false, now)
	return nil
}

// Forfeit completes the room in favor of the abandoning player's
// opponent. Only meaningful once the match started; earlier leavers are
// simply unseated by the caller.
func Forfeit(r *Room, playerID string, now time.Time) error {
	if r.Status != StatusInProgress && r.Status != StatusPaused {
		return apperr.IllegalAction("room %s has no match to forfeit (status %s)", r.Code, r.Status)
	}
	if _, err := r.Player(playerID); err != nil {
		return err
	}
	opp, err := r.Opponent(playerID)
	if err != nil {
		return err
	}
	r.appendMove(playerID, AdminActionDetail{Action: "forfeit", TargetPlayerID: playerID}, now)
	complete(r, opp.ID, false, now)
	return nil
}

// GodsHand destroys a full quadrant of the target player's grid. It is
// an admin override: not gated by turn ownership, does not consume a
// turn, and is accepted only while the match is in progress.
func GodsHand(r *Room, adminID, targetPlayerID string, quadrantIndex int, now time.Time) (AbilityOutcome, error) {
	if r.Status != StatusInProgress {
		return AbilityOutcome{}, apperr.IllegalAction("room %s is not in progress (status %s)", r.Code, r.Status)
	}
	target, err := r.Player(targetPlayerID)
	if err != nil {
		return AbilityOutcome{}, err
	}
	q, err := QuadrantBounds(r.Settings.GridSize, quadrantIndex)
	if err != nil {
		return AbilityOutcome{}, err
	}

	var out AbilityOutcome
	grid := target.Grid
	for y := q.Y; y < q.Y+q.H; y++ {
		for x := q.X; x < q.X+q.W; x++ {
			if grid[y][x].Targeted() {
				continue
			}
			next, res, shotErr := grid.ApplyShot(x, y)
			if shotErr != nil {
				continue
			}
			grid = next
			out.Struck = append(out.Struck, Coord{X: x, Y: y})
			if res.SunkShipID != "" {
				out.Sunk = append(out.Sunk, res.SunkShipID)
			}
		}
	}
	target.Grid = grid
	r.appendMove(adminID, AdminActionDetail{Action: "gods_hand", TargetPlayerID: targetPlayerID, QuadrantIndex: quadrantIndex}, now)

	if winner, over := CheckVictory(r); over {
		complete(r, winner, false, now)
		out.GameOver = true
		out.WinnerID = winner
	}
	return out, nil
}
