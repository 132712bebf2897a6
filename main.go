package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/seastrike/seastrike-backend/config"
	"github.com/seastrike/seastrike-backend/db"
	"github.com/seastrike/seastrike-backend/internal/admin"
	"github.com/seastrike/seastrike-backend/internal/leaderboard"
	"github.com/seastrike/seastrike-backend/internal/match"
	"github.com/seastrike/seastrike-backend/internal/room"
	"github.com/seastrike/seastrike-backend/internal/ws"
	redisPkg "github.com/seastrike/seastrike-backend/pkg/redis"
	wsPkg "github.com/seastrike/seastrike-backend/pkg/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	conn := db.MustConnect(cfg.DatabaseURL, cfg.MigrationDir)
	defer conn.Close()

	rdb := redisPkg.MustConnect(cfg.RedisAddr, cfg.RedisPassword)
	defer rdb.Close()

	ctx := context.Background()

	leaderboardService := leaderboard.NewService(conn)
	roomService := room.NewService(room.NewRedisStore(rdb), room.WithArchiver(leaderboardService))
	adminService := admin.NewService(conn, cfg.JWTSecret)
	matchService := match.NewService(rdb, roomService)

	roomHandler := room.NewHandler(roomService)
	adminHandler := admin.NewHandler(adminService, roomService)
	matchHandler := match.NewHandler(matchService)
	leaderboardHandler := leaderboard.NewHandler(leaderboardService)

	hub := wsPkg.NewHub()
	generalHub := wsPkg.NewGeneralHub()
	wsHandler := ws.NewHandler(hub, roomService)
	generalWSHandler := ws.NewGeneralHandler(generalHub)

	notificationWorker := ws.NewNotificationWorker(rdb, hub)
	go notificationWorker.Run(ctx)

	matchResults := make(chan match.Result)
	go matchService.RunMatchmaker(ctx, matchResults)
	go notifyMatches(generalHub, matchResults)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/rooms", roomHandler.CreateRoom)
	mux.HandleFunc("GET /api/v1/rooms/{code}", roomHandler.GetRoom)
	mux.HandleFunc("POST /api/v1/rooms/{code}/join", roomHandler.JoinRoom)

	mux.HandleFunc("POST /api/v1/admin/login", adminHandler.Login)
	mux.HandleFunc("POST /api/v1/admin/register", adminHandler.Register)
	mux.HandleFunc("POST /api/v1/admin/rooms", adminHandler.CreateRoom)
	mux.HandleFunc("POST /api/v1/admin/rooms/{code}/grant", adminHandler.GrantAbility)
	mux.HandleFunc("POST /api/v1/admin/rooms/{code}/pause", adminHandler.TogglePause)
	mux.HandleFunc("POST /api/v1/admin/rooms/{code}/winner", adminHandler.DeclareWinner)
	mux.HandleFunc("POST /api/v1/admin/rooms/{code}/end", adminHandler.EndGame)
	mux.HandleFunc("POST /api/v1/admin/rooms/{code}/gods-hand", adminHandler.GodsHand)

	mux.HandleFunc("POST /api/v1/match/queue", matchHandler.JoinQueue)
	mux.HandleFunc("DELETE /api/v1/match/queue", matchHandler.LeaveQueue)
	mux.HandleFunc("GET /api/v1/match/status", matchHandler.GetStatus)
	mux.HandleFunc("POST /api/v1/match/claim", matchHandler.ClaimMatch)

	mux.HandleFunc("GET /api/v1/leaderboard", leaderboardHandler.GetLeaderboard)
	mux.HandleFunc("GET /api/v1/matches", leaderboardHandler.GetRecentMatches)

	mux.HandleFunc("GET /ws/room", wsHandler.ServeWS)
	mux.HandleFunc("GET /ws/general", generalWSHandler.ServeGeneralWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Println("Server started at " + addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// notifyMatches tells both matched players where their game is. Each
// player then claims their session over HTTP and connects to the room
// channel.
func notifyMatches(generalHub *wsPkg.GeneralHub, results <-chan match.Result) {
	for result := range results {
		log.Printf("Matched players %s and %s in room %s", result.Player1, result.Player2, result.RoomCode)
		payload, err := json.Marshal(struct {
			Type     string `json:"type"`
			RoomCode string `json:"roomCode"`
		}{Type: "match_found", RoomCode: result.RoomCode})
		if err != nil {
			log.Printf("Failed to marshal match notification: %v", err)
			continue
		}
		for _, name := range []string{result.Player1, result.Player2} {
			if !generalHub.SendToClient(name, payload) {
				log.Printf("Failed to notify player %s", name)
			}
		}
	}
}
