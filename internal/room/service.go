package room

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

// Session identifies one seated player for the duration of their stay in
// a room. It is created on join, handed back to the client, and required
// by every player operation; nothing is cached server-side outside the
// room document.
type Session struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
}

// Archiver receives completed rooms for durable storage and stats.
type Archiver interface {
	ArchiveMatch(ctx context.Context, r *game.Room) error
}

// Service exposes every room mutation as one read-validate-write unit.
// The store's conditional update guarantees that a stale decision (turn
// already passed, cell already targeted) loses the write instead of
// clobbering the room; a lost race is retried once against fresh state.
type Service struct {
	store    Store
	archiver Archiver
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithRand(rng *rand.Rand) ServiceOption {
	return func(s *Service) { s.rng = rng }
}

func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) { s.archiver = a }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// update applies fn under the store's conditional write, retrying once
// on a lost race. A second loss surfaces as a conflict the caller should
// re-fetch and re-decide on.
func (s *Service) update(ctx context.Context, code string, fn func(*game.Room) error) (*game.Room, error) {
	r, err := s.store.Update(ctx, code, fn)
	if errors.Is(err, ErrConcurrentUpdate) {
		r, err = s.store.Update(ctx, code, fn)
	}
	if errors.Is(err, ErrConcurrentUpdate) {
		return nil, apperr.Conflict("room %s was modified concurrently, re-fetch and retry", code)
	}
	return r, err
}

// publish fans the post-mutation event out and archives just-completed
// matches. Neither failure rolls back the accepted action.
func (s *Service) publish(ctx context.Context, r *game.Room, evType string) {
	if r.Completed() {
		evType = EventGameOver
	}
	ev := Event{
		Type:        evType,
		RoomCode:    r.Code,
		Status:      r.Status,
		CurrentTurn: r.CurrentTurn,
		Winner:      r.Winner,
		Draw:        r.Draw,
		Move:        r.LastMove(),
		At:          s.now(),
	}
	if err := s.store.Publish(ctx, ev); err != nil {
		log.Printf("Failed to publish %s event for room %s: %v", evType, r.Code, err)
	}
	if r.Completed() && s.archiver != nil {
		if err := s.archiver.ArchiveMatch(ctx, r); err != nil {
			log.Printf("Failed to archive match %s: %v", r.Code, err)
		}
	}
}

type CreateParams struct {
	Mode     game.GameMode
	Settings game.Settings
	// Admin identity recorded on admin-created rooms.
	AdminID string
	// Seat the creator immediately when non-empty.
	HostName string
	// Optional caller-chosen code; generated when empty.
	Code string
}

func (s *Service) CreateRoom(ctx context.Context, p CreateParams) (*game.Room, *Session, error) {
	settings := p.Settings
	if settings.GridSize == 0 {
		settings = game.DefaultSettings()
	}
	if settings.Fleet == nil {
		settings.Fleet = game.DefaultFleet()
	}

	var code string
	if p.Code != "" {
		normalized, err := NormalizeCode(p.Code)
		if err != nil {
			return nil, nil, err
		}
		code = normalized
	}

	var sess *Session
	// A generated code can collide with a live room; draw again.
	for attempt := 0; attempt < 5; attempt++ {
		if p.Code == "" {
			code = GenerateCode(s.rand())
		}
		r, err := game.NewRoom(code, p.Mode, p.AdminID, settings, s.now())
		if err != nil {
			return nil, nil, err
		}
		if p.HostName != "" {
			hostID := uuid.NewString()
			if err := game.Join(r, hostID, p.HostName, s.now()); err != nil {
				return nil, nil, err
			}
			sess = &Session{PlayerID: hostID, RoomCode: code}
		}

		err = s.store.Create(ctx, r)
		if apperr.Is(err, apperr.KindConflict) && p.Code == "" {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		s.publish(ctx, r, EventRoomCreated)
		return r, sess, nil
	}
	return nil, nil, apperr.Conflict("could not allocate a unique room code")
}

func (s *Service) JoinRoom(ctx context.Context, code, playerName string) (*Session, *game.Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, nil, err
	}
	playerID := uuid.NewString()
	r, err := s.update(ctx, code, func(r *game.Room) error {
		return game.Join(r, playerID, playerName, s.now())
	})
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, r, EventPlayerJoin)
	return &Session{PlayerID: playerID, RoomCode: code}, r, nil
}

// Get serves read-only room views, including the admin spectator panel.
func (s *Service) Get(ctx context.Context, code string) (*game.Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, code)
}

func (s *Service) SubmitPlacement(ctx context.Context, sess Session, placement game.Placement) (*game.Room, error) {
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		return game.SubmitPlacement(r, sess.PlayerID, placement)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventPlacement)
	return r, nil
}

// AutoPlace rolls a random legal layout against the room's own settings
// and submits it in the same conditional write.
func (s *Service) AutoPlace(ctx context.Context, sess Session) (*game.Room, error) {
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		placement, err := game.AutoPlace(r.Settings.Fleet, r.Settings.GridSize, s.rand())
		if err != nil {
			return err
		}
		return game.SubmitPlacement(r, sess.PlayerID, placement)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventPlacement)
	return r, nil
}

func (s *Service) MarkReady(ctx context.Context, sess Session) (*game.Room, error) {
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		return game.MarkReady(r, sess.PlayerID, s.rand(), s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventReady)
	return r, nil
}

func (s *Service) Attack(ctx context.Context, sess Session, col, row int) (game.AttackOutcome, *game.Room, error) {
	var out game.AttackOutcome
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		var err error
		out, err = game.Attack(r, sess.PlayerID, col, row, s.now())
		return err
	})
	if err != nil {
		return game.AttackOutcome{}, nil, err
	}
	s.publish(ctx, r, EventMove)
	return out, r, nil
}

func (s *Service) UseAbility(ctx context.Context, sess Session, key game.AbilityKey, target game.AbilityTarget) (game.AbilityOutcome, *game.Room, error) {
	var out game.AbilityOutcome
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		var err error
		out, err = game.UseAbility(r, sess.PlayerID, key, target, s.now())
		return err
	})
	if err != nil {
		return game.AbilityOutcome{}, nil, err
	}
	s.publish(ctx, r, EventMove)
	return out, r, nil
}

func (s *Service) SendEmote(ctx context.Context, sess Session, category, text string) (*game.Room, error) {
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		return game.SendEmote(r, sess.PlayerID, category, text, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventMove)
	return r, nil
}

// Leave abandons the room. Idempotent: leaving twice, or leaving a room
// that is already gone, is a no-op. A leaver in a running match forfeits
// it.
func (s *Service) Leave(ctx context.Context, sess Session) error {
	var deleteAfter bool
	r, err := s.update(ctx, sess.RoomCode, func(r *game.Room) error {
		if _, ok := r.Players[sess.PlayerID]; !ok {
			return ErrNoChange
		}
		switch r.Status {
		case game.StatusWaiting, game.StatusPlacing:
			delete(r.Players, sess.PlayerID)
			for i, id := range r.Seats {
				if id == sess.PlayerID {
					r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
					break
				}
			}
			r.Status = game.StatusWaiting
			deleteAfter = len(r.Seats) == 0
			return nil
		case game.StatusInProgress, game.StatusPaused:
			return game.Forfeit(r, sess.PlayerID, s.now())
		default:
			return ErrNoChange
		}
	})
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(ctx, r, EventPlayerLeft)
	if deleteAfter {
		if err := s.store.Delete(ctx, r.Code); err != nil {
			log.Printf("Failed to delete empty room %s: %v", r.Code, err)
		}
	}
	return nil
}

// TickRoom is the timekeeper entry point: it fires a pending turn
// timeout or settles an expired match clock, whichever applies. Rooms
// where neither deadline has passed are left untouched, so a stale tick
// can never double-fire.
func (s *Service) TickRoom(ctx context.Context, code string) error {
	ticked := false
	r, err := s.update(ctx, code, func(r *game.Room) error {
		now := s.now()
		if game.Timeout(r, now) {
			ticked = true
			return nil
		}
		if game.ExpireClock(r, now) {
			ticked = true
			return nil
		}
		return ErrNoChange
	})
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if ticked {
		s.publish(ctx, r, EventMove)
	}
	return nil
}

// ActiveCodes lists rooms the timekeeper should watch.
func (s *Service) ActiveCodes(ctx context.Context) ([]string, error) {
	return s.store.ActiveCodes(ctx)
}

// rand returns the injected rng when one was configured (tests), or a
// fresh time-seeded source per call.
func (s *Service) rand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.rng != nil {
		return s.rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
