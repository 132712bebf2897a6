package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

// roomTTL keeps abandoned room documents from piling up.
const roomTTL = 24 * time.Hour

// RedisStore keeps one JSON document per room under room:<CODE> and an
// active-room index for the timekeeper. Conditional updates run as
// WATCH/MULTI/EXEC transactions, so a concurrent writer fails the EXEC
// instead of being silently overwritten.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

var _ Store = (*RedisStore)(nil)

func roomKey(code string) string {
	return "room:" + code
}

func eventsChannel(code string) string {
	return "room:" + code + ":events"
}

// EventsChannelPattern matches every room's event channel for PSUBSCRIBE.
const EventsChannelPattern = "room:*:events"

const activeSetKey = "rooms:active"

func (s *RedisStore) Create(ctx context.Context, r *game.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", r.Code, err)
	}
	ok, err := s.rdb.SetNX(ctx, roomKey(r.Code), data, roomTTL).Result()
	if err != nil {
		return fmt.Errorf("store room %s: %w", r.Code, err)
	}
	if !ok {
		return apperr.Conflict("room %s already exists", r.Code)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (*game.Room, error) {
	data, err := s.rdb.Get(ctx, roomKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.NotFound("room %s does not exist", code)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	return decodeRoom(code, []byte(data))
}

func decodeRoom(code string, data []byte) (*game.Room, error) {
	var r game.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &r, nil
}

// Update re-reads the room under WATCH, applies fn and writes the result
// back in a transaction. A concurrent write between the read and the
// EXEC fails the transaction and surfaces ErrConcurrentUpdate; fn errors
// pass through untouched and nothing is written.
func (s *RedisStore) Update(ctx context.Context, code string, fn func(*game.Room) error) (*game.Room, error) {
	key := roomKey(code)
	var updated *game.Room

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return apperr.NotFound("room %s does not exist", code)
		}
		if err != nil {
			return fmt.Errorf("load room %s: %w", code, err)
		}
		r, err := decodeRoom(code, []byte(data))
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			if errors.Is(err, ErrNoChange) {
				updated = r
				return nil
			}
			return err
		}

		out, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal room %s: %w", code, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, roomTTL)
			if r.Active() {
				pipe.SAdd(ctx, activeSetKey, code)
			} else {
				pipe.SRem(ctx, activeSetKey, code)
			}
			return nil
		})
		if err != nil {
			return err
		}
		updated = r
		return nil
	}

	if err := s.rdb.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	if err := s.rdb.Del(ctx, roomKey(code)).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return s.rdb.SRem(ctx, activeSetKey, code).Err()
}

func (s *RedisStore) ActiveCodes(ctx context.Context) ([]string, error) {
	codes, err := s.rdb.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return codes, nil
}

func (s *RedisStore) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event for room %s: %w", ev.RoomCode, err)
	}
	return s.rdb.Publish(ctx, eventsChannel(ev.RoomCode), data).Err()
}
