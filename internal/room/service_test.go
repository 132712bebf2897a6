package room

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingArchiver struct {
	rooms []*game.Room
}

func (a *recordingArchiver) ArchiveMatch(_ context.Context, r *game.Room) error {
	a.rooms = append(a.rooms, r)
	return nil
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *fakeClock, *recordingArchiver) {
	t.Helper()
	store := NewMemoryStore()
	clk := &fakeClock{t: testStart}
	arch := &recordingArchiver{}
	svc := NewService(store,
		WithClock(clk.now),
		WithRand(rand.New(rand.NewSource(7))),
		WithArchiver(arch),
	)
	return svc, store, clk, arch
}

func testPlacement() game.Placement {
	return game.Placement{
		"carrier":    {OriginX: 0, OriginY: 0, Orientation: game.Horizontal},
		"battleship": {OriginX: 3, OriginY: 3, Orientation: game.Horizontal},
		"cruiser":    {OriginX: 2, OriginY: 2, Orientation: game.Vertical},
		"destroyer":  {OriginX: 0, OriginY: 6, Orientation: game.Horizontal},
		"scout":      {OriginX: 5, OriginY: 5, Orientation: game.Horizontal},
	}
}

// seatTwoPlayers creates room TEST1 with a seated host and a second
// joiner, returning both sessions.
func seatTwoPlayers(t *testing.T, svc *Service) (Session, Session) {
	t.Helper()
	ctx := context.Background()

	r, host, err := svc.CreateRoom(ctx, CreateParams{
		Mode:     game.ModeFriendly,
		Code:     "TEST1",
		HostName: "Ada",
	})
	require.NoError(t, err)
	require.NotNil(t, host)
	require.Equal(t, "TEST1", r.Code)
	require.Equal(t, game.StatusWaiting, r.Status)

	guest, r, err := svc.JoinRoom(ctx, "test1", "Grace")
	require.NoError(t, err)
	require.Equal(t, game.StatusPlacing, r.Status)
	return *host, *guest
}

func TestEndToEndMatchStart(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	// Plain-attack scenario: abilities off so no granted loadout (for
	// example an armed COUNTER) can chain extra moves onto the hit.
	settings := game.DefaultSettings()
	settings.AbilitiesEnabled = false
	r0, hostSess, err := svc.CreateRoom(ctx, CreateParams{
		Mode:     game.ModeFriendly,
		Code:     "TEST1",
		HostName: "Ada",
		Settings: settings,
	})
	require.NoError(t, err)
	require.Equal(t, game.StatusWaiting, r0.Status)
	host := *hostSess

	guestSess, r0, err := svc.JoinRoom(ctx, "test1", "Grace")
	require.NoError(t, err)
	require.Equal(t, game.StatusPlacing, r0.Status)
	guest := *guestSess

	for _, sess := range []Session{host, guest} {
		_, err := svc.SubmitPlacement(ctx, sess, testPlacement())
		require.NoError(t, err)
		_, err = svc.MarkReady(ctx, sess)
		require.NoError(t, err)
	}

	r, err := svc.Get(ctx, "TEST1")
	require.NoError(t, err)
	require.Equal(t, game.StatusInProgress, r.Status)
	// The first joiner acts first.
	require.Equal(t, host.PlayerID, r.CurrentTurn)

	out, r, err := svc.Attack(ctx, host, 3, 3)
	require.NoError(t, err)
	require.True(t, out.Shot.IsHit)
	require.Equal(t, guest.PlayerID, r.CurrentTurn)

	require.Len(t, r.Moves, 1)
	detail, ok := r.Moves[0].Detail.(game.AttackDetail)
	require.True(t, ok)
	require.True(t, detail.IsHit)
	require.Equal(t, 3, detail.Col)
	require.Equal(t, 3, detail.Row)

	// Every accepted mutation reached subscribers.
	var moveEvents int
	for _, ev := range store.Events {
		if ev.Type == EventMove {
			moveEvents++
		}
	}
	require.Equal(t, 1, moveEvents)
}

func TestCreateRoomRejectsDuplicateCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CreateRoom(ctx, CreateParams{Mode: game.ModeFriendly, Code: "SAME1"})
	require.NoError(t, err)
	_, _, err = svc.CreateRoom(ctx, CreateParams{Mode: game.ModeFriendly, Code: "SAME1"})
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCreateRoomValidatesInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CreateRoom(ctx, CreateParams{Mode: "tournament"})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = svc.CreateRoom(ctx, CreateParams{Mode: game.ModeFriendly, Code: "ab"})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	bad := game.DefaultSettings()
	bad.GridSize = 7
	_, _, err = svc.CreateRoom(ctx, CreateParams{Mode: game.ModeFriendly, Settings: bad})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestJoinUnknownRoom(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, _, err := svc.JoinRoom(context.Background(), "NOPE99", "Ada")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLostRaceRetriedOnce(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	host, guest := seatTwoPlayers(t, svc)

	// One lost race: the retry with fresh state wins.
	store.FailUpdates = 1
	_, err := svc.SubmitPlacement(ctx, host, testPlacement())
	require.NoError(t, err)

	// Two lost races in a row surface as a conflict.
	store.FailUpdates = 2
	_, err = svc.SubmitPlacement(ctx, guest, testPlacement())
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAutoPlaceSubmitsLegalLayout(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	host, _ := seatTwoPlayers(t, svc)

	r, err := svc.AutoPlace(ctx, host)
	require.NoError(t, err)
	p := r.Players[host.PlayerID]
	require.Len(t, p.Placement, len(game.DefaultFleet()))
	require.Equal(t, 16, p.Grid.SurvivingSegments())
}

func TestLeaveIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	host, guest := seatTwoPlayers(t, svc)

	require.NoError(t, svc.Leave(ctx, guest))
	r, err := svc.Get(ctx, "TEST1")
	require.NoError(t, err)
	require.Equal(t, game.StatusWaiting, r.Status)
	require.Len(t, r.Seats, 1)

	// Second leave is a no-op, as is leaving a vanished room.
	require.NoError(t, svc.Leave(ctx, guest))
	require.NoError(t, svc.Leave(ctx, host))
	require.NoError(t, svc.Leave(ctx, host))
	_, err = svc.Get(ctx, "TEST1")
	require.True(t, apperr.Is(err, apperr.KindNotFound), "empty room is destroyed")
}

func TestLeaveMidMatchForfeits(t *testing.T) {
	svc, _, _, arch := newTestService(t)
	ctx := context.Background()
	host, guest := seatTwoPlayers(t, svc)
	for _, sess := range []Session{host, guest} {
		_, err := svc.SubmitPlacement(ctx, sess, testPlacement())
		require.NoError(t, err)
		_, err = svc.MarkReady(ctx, sess)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Leave(ctx, host))
	r, err := svc.Get(ctx, "TEST1")
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, r.Status)
	require.Equal(t, guest.PlayerID, r.Winner)
	require.Len(t, arch.rooms, 1)
}

func TestTickRoomFiresTimeout(t *testing.T) {
	svc, _, clk, _ := newTestService(t)
	ctx := context.Background()
	host, guest := seatTwoPlayers(t, svc)
	for _, sess := range []Session{host, guest} {
		_, err := svc.SubmitPlacement(ctx, sess, testPlacement())
		require.NoError(t, err)
		_, err = svc.MarkReady(ctx, sess)
		require.NoError(t, err)
	}

	// Before the deadline the tick writes nothing.
	require.NoError(t, svc.TickRoom(ctx, "TEST1"))
	r, err := svc.Get(ctx, "TEST1")
	require.NoError(t, err)
	require.Empty(t, r.Moves)

	clk.advance(31 * time.Second)
	require.NoError(t, svc.TickRoom(ctx, "TEST1"))
	r, err = svc.Get(ctx, "TEST1")
	require.NoError(t, err)
	require.Len(t, r.Moves, 1)
	require.IsType(t, game.TimeoutDetail{}, r.Moves[0].Detail)
	require.Equal(t, guest.PlayerID, r.CurrentTurn)

	// Ticking a vanished room is harmless.
	require.NoError(t, svc.TickRoom(ctx, "GONE99"))
}

func TestActiveCodesTracksRunningRooms(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	host, guest := seatTwoPlayers(t, svc)

	codes, err := svc.ActiveCodes(ctx)
	require.NoError(t, err)
	require.Empty(t, codes)

	for _, sess := range []Session{host, guest} {
		_, err := svc.SubmitPlacement(ctx, sess, testPlacement())
		require.NoError(t, err)
		_, err = svc.MarkReady(ctx, sess)
		require.NoError(t, err)
	}
	codes, err = svc.ActiveCodes(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"TEST1"}, codes)
}

func TestAdminOpsRequireRoomAdmin(t *testing.T) {
	svc, _, _, arch := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CreateRoom(ctx, CreateParams{
		Mode:    game.ModeAdmin,
		Code:    "ADMIN1",
		AdminID: "marshal",
	})
	require.NoError(t, err)
	host, r, err := svc.JoinRoom(ctx, "ADMIN1", "Ada")
	require.NoError(t, err)
	guest, _, err := svc.JoinRoom(ctx, "ADMIN1", "Grace")
	require.NoError(t, err)
	for _, sess := range []*Session{host, guest} {
		_, err := svc.SubmitPlacement(ctx, *sess, testPlacement())
		require.NoError(t, err)
		_, err = svc.MarkReady(ctx, *sess)
		require.NoError(t, err)
	}

	stranger := AdminIdentity{Username: "intruder"}
	owner := AdminIdentity{Username: "marshal"}
	super := AdminIdentity{Username: "root", Super: true}

	_, err = svc.TogglePause(ctx, stranger, "ADMIN1")
	require.True(t, apperr.Is(err, apperr.KindAuthorization))

	r, err = svc.TogglePause(ctx, owner, "ADMIN1")
	require.NoError(t, err)
	require.Equal(t, game.StatusPaused, r.Status)
	r, err = svc.TogglePause(ctx, super, "ADMIN1")
	require.NoError(t, err)
	require.Equal(t, game.StatusInProgress, r.Status)

	_, err = svc.GrantAbility(ctx, owner, "ADMIN1", host.PlayerID, game.AbilityJam)
	require.True(t, apperr.Is(err, apperr.KindConflict), "defense slot already drawn at match start")

	out, r, err := svc.GodsHand(ctx, owner, "ADMIN1", guest.PlayerID, 0)
	require.NoError(t, err)
	require.Len(t, out.Struck, 16)
	require.Equal(t, host.PlayerID, r.CurrentTurn, "God's Hand never consumes the turn")

	r, err = svc.DeclareWinner(ctx, owner, "ADMIN1", guest.PlayerID)
	require.NoError(t, err)
	require.Equal(t, game.StatusCompleted, r.Status)
	require.Equal(t, guest.PlayerID, r.Winner)
	require.Len(t, arch.rooms, 1)

	// Completed rooms refuse further admin action.
	_, err = svc.EndGame(ctx, owner, "ADMIN1")
	require.True(t, apperr.Is(err, apperr.KindIllegalAction))
}
