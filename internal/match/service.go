package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
	"github.com/seastrike/seastrike-backend/internal/room"
)

const (
	queueKey   = "matchmaking:queue"
	setKey     = "matchmaking:players"
	channelKey = "matchmaking:channel"
	resultKey  = "matchmaking:result:" // + player name

	resultTTL = time.Hour
)

type Service struct {
	rdb   *redis.Client
	rooms *room.Service
}

// Result pairs two queued players into a fresh random-mode room. Each
// player picks up their own session via ClaimResult.
type Result struct {
	RoomCode string
	Player1  string
	Player2  string
}

type storedResult struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

func NewService(rdb *redis.Client, rooms *room.Service) *Service {
	return &Service{rdb: rdb, rooms: rooms}
}

// AddToQueue enqueues a player by display name. A name can only be
// queued once at a time.
func (s *Service) AddToQueue(ctx context.Context, playerName string) error {
	if playerName == "" {
		return apperr.Validation("player name cannot be empty")
	}
	added, err := s.rdb.SAdd(ctx, setKey, playerName).Result()
	if err != nil {
		return fmt.Errorf("failed to add to queue set: %w", err)
	}
	if added == 0 {
		return apperr.Conflict("player %s already in queue", playerName)
	}
	if err := s.rdb.LPush(ctx, queueKey, playerName).Err(); err != nil {
		s.rdb.SRem(ctx, setKey, playerName)
		return fmt.Errorf("failed to add to queue: %w", err)
	}
	// Wake the matchmaker loop.
	if err := s.rdb.Publish(ctx, channelKey, playerName).Err(); err != nil {
		log.Printf("Failed to publish queue signal: %v", err)
	}
	return nil
}

// RemoveFromQueue is idempotent: removing a player who is not queued is
// not an error.
func (s *Service) RemoveFromQueue(ctx context.Context, playerName string) error {
	if err := s.rdb.LRem(ctx, queueKey, 0, playerName).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := s.rdb.SRem(ctx, setKey, playerName).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue set: %w", err)
	}
	return nil
}

func (s *Service) QueueLength(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, queueKey).Result()
}

// MatchPlayers pops two queued players and seats them in a new
// random-mode room. Both pops must succeed; a lone player is pushed
// back so nobody is lost.
func (s *Service) MatchPlayers(ctx context.Context) (Result, error) {
	p1, err := s.rdb.RPop(ctx, queueKey).Result()
	if err != nil {
		return Result{}, apperr.Infeasible("not enough players in queue")
	}
	p2, err := s.rdb.RPop(ctx, queueKey).Result()
	if err != nil {
		s.rdb.RPush(ctx, queueKey, p1)
		return Result{}, apperr.Infeasible("not enough players in queue")
	}
	s.rdb.SRem(ctx, setKey, p1, p2)

	rm, hostSess, err := s.rooms.CreateRoom(ctx, room.CreateParams{
		Mode:     game.ModeRandom,
		HostName: p1,
	})
	if err != nil {
		s.rdb.RPush(ctx, queueKey, p1, p2)
		s.rdb.SAdd(ctx, setKey, p1, p2)
		return Result{}, fmt.Errorf("failed to create match room: %w", err)
	}
	guestSess, _, err := s.rooms.JoinRoom(ctx, rm.Code, p2)
	if err != nil {
		s.rdb.RPush(ctx, queueKey, p2)
		s.rdb.SAdd(ctx, setKey, p2)
		return Result{}, fmt.Errorf("failed to seat second player: %w", err)
	}

	s.storeResult(ctx, p1, storedResult{RoomCode: rm.Code, PlayerID: hostSess.PlayerID})
	s.storeResult(ctx, p2, storedResult{RoomCode: rm.Code, PlayerID: guestSess.PlayerID})

	return Result{RoomCode: rm.Code, Player1: p1, Player2: p2}, nil
}

func (s *Service) storeResult(ctx context.Context, playerName string, res storedResult) {
	payload, err := json.Marshal(res)
	if err != nil {
		log.Printf("Failed to marshal match result for %s: %v", playerName, err)
		return
	}
	if err := s.rdb.Set(ctx, resultKey+playerName, payload, resultTTL).Err(); err != nil {
		log.Printf("Failed to store match result for %s: %v", playerName, err)
	}
}

// ClaimResult hands a matched player their room code and session id,
// consuming the stored result.
func (s *Service) ClaimResult(ctx context.Context, playerName string) (roomCode, playerID string, err error) {
	payload, err := s.rdb.GetDel(ctx, resultKey+playerName).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", apperr.NotFound("no match for player %s", playerName)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to claim match result: %w", err)
	}
	var res storedResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return "", "", fmt.Errorf("corrupt match result: %w", err)
	}
	return res.RoomCode, res.PlayerID, nil
}

// Status reports where a player currently stands: in_queue, matched
// (with the room code), or not_found.
func (s *Service) Status(ctx context.Context, playerName string) (string, string, error) {
	payload, err := s.rdb.Get(ctx, resultKey+playerName).Result()
	if err == nil {
		var res storedResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return "", "", fmt.Errorf("corrupt match result: %w", err)
		}
		return "matched", res.RoomCode, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", "", fmt.Errorf("failed to check match result: %w", err)
	}

	queued, err := s.rdb.SIsMember(ctx, setKey, playerName).Result()
	if err != nil {
		return "", "", fmt.Errorf("failed to check queue set: %w", err)
	}
	if queued {
		return "in_queue", "", nil
	}
	return "not_found", "", nil
}

// RunMatchmaker drains the queue two at a time, pairing players as
// queue signals arrive. Blocks until ctx is cancelled.
func (s *Service) RunMatchmaker(ctx context.Context, results chan<- Result) {
	pubsub := s.rdb.Subscribe(ctx, channelKey)
	defer pubsub.Close()

	for {
		_, err := pubsub.ReceiveMessage(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("Matchmaking pub/sub error: %v", err)
			continue
		}

		for {
			length, err := s.rdb.LLen(ctx, queueKey).Result()
			if err != nil || length < 2 {
				break
			}
			result, err := s.MatchPlayers(ctx)
			if err != nil {
				if !apperr.Is(err, apperr.KindInfeasible) {
					log.Printf("Matchmaking failed: %v", err)
				}
				break
			}
			results <- result
		}
	}
}
