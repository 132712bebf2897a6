package main

import (
	"context"
	"log"
	"time"

	"github.com/seastrike/seastrike-backend/config"
	"github.com/seastrike/seastrike-backend/db"
	"github.com/seastrike/seastrike-backend/internal/leaderboard"
	"github.com/seastrike/seastrike-backend/internal/room"
	redisPkg "github.com/seastrike/seastrike-backend/pkg/redis"
)

// The timekeeper drives every deadline in the system: turn timeouts and
// match-clock expiry. It sweeps all active rooms on a fixed interval;
// rooms with nothing due are skipped without a write.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	conn := db.MustConnect(cfg.DatabaseURL, cfg.MigrationDir)
	defer conn.Close()

	rdb := redisPkg.MustConnect(cfg.RedisAddr, cfg.RedisPassword)
	defer rdb.Close()

	roomService := room.NewService(
		room.NewRedisStore(rdb),
		room.WithArchiver(leaderboard.NewService(conn)),
	)

	log.Printf("Timekeeper starting, tick interval %s", cfg.TickInterval)
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	ctx := context.Background()
	for range ticker.C {
		sweep(ctx, roomService)
	}
}

func sweep(ctx context.Context, rooms *room.Service) {
	codes, err := rooms.ActiveCodes(ctx)
	if err != nil {
		log.Printf("Failed to list active rooms: %v", err)
		return
	}
	for _, code := range codes {
		if err := rooms.TickRoom(ctx, code); err != nil {
			log.Printf("Tick failed for room %s: %v", code, err)
		}
	}
}
