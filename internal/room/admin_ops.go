package room

import (
	"context"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

// AdminIdentity is the verified identity admin overrides run under. The
// auth layer fills it from a validated token; this package only checks
// it against the room.
type AdminIdentity struct {
	Username string
	Super    bool
}

// authorizeAdmin restricts overrides to the room's recorded admin. A
// superadmin may act on any room, including rooms created without one.
func authorizeAdmin(r *game.Room, id AdminIdentity) error {
	if id.Username == "" {
		return apperr.Authorization("admin identity required")
	}
	if id.Super {
		return nil
	}
	if r.AdminID == "" || r.AdminID != id.Username {
		return apperr.Authorization("admin %s is not the admin of room %s", id.Username, r.Code)
	}
	return nil
}

func (s *Service) GrantAbility(ctx context.Context, id AdminIdentity, code, playerID string, key game.AbilityKey) (*game.Room, error) {
	r, err := s.update(ctx, code, func(r *game.Room) error {
		if err := authorizeAdmin(r, id); err != nil {
			return err
		}
		return game.AdminGrantAbility(r, id.Username, playerID, key, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventMove)
	return r, nil
}

// TogglePause flips a running room to paused and back, freezing and
// restoring its timers.
func (s *Service) TogglePause(ctx context.Context, id AdminIdentity, code string) (*game.Room, error) {
	evType := EventPause
	r, err := s.update(ctx, code, func(r *game.Room) error {
		if err := authorizeAdmin(r, id); err != nil {
			return err
		}
		if r.Status == game.StatusPaused {
			evType = EventResume
			return game.Resume(r, s.now())
		}
		return game.Pause(r, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, evType)
	return r, nil
}

func (s *Service) DeclareWinner(ctx context.Context, id AdminIdentity, code, winnerID string) (*game.Room, error) {
	r, err := s.update(ctx, code, func(r *game.Room) error {
		if err := authorizeAdmin(r, id); err != nil {
			return err
		}
		return game.AdminDeclareWinner(r, id.Username, winnerID, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventMove)
	return r, nil
}

func (s *Service) EndGame(ctx context.Context, id AdminIdentity, code string) (*game.Room, error) {
	r, err := s.update(ctx, code, func(r *game.Room) error {
		if err := authorizeAdmin(r, id); err != nil {
			return err
		}
		return game.AdminEndGame(r, id.Username, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r, EventMove)
	return r, nil
}

func (s *Service) GodsHand(ctx context.Context, id AdminIdentity, code, targetPlayerID string, quadrantIndex int) (game.AbilityOutcome, *game.Room, error) {
	var out game.AbilityOutcome
	r, err := s.update(ctx, code, func(r *game.Room) error {
		if err := authorizeAdmin(r, id); err != nil {
			return err
		}
		var err error
		out, err = game.GodsHand(r, id.Username, targetPlayerID, quadrantIndex, s.now())
		return err
	})
	if err != nil {
		return game.AbilityOutcome{}, nil, err
	}
	s.publish(ctx, r, EventMove)
	return out, r, nil
}
