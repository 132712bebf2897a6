package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"

	"github.com/seastrike/seastrike-backend/db"
	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

const (
	startingElo = 1500
	eloK        = 32
)

type Service struct {
	db *sql.DB
}

func NewService(conn *sql.DB) *Service {
	return &Service{db: conn}
}

// ArchiveMatch records a completed room into the matches table and folds
// the result into both players' stats rows. Rooms that finished before a
// second player ever joined are archived without a stats update.
func (s *Service) ArchiveMatch(ctx context.Context, r *game.Room) error {
	if !r.Completed() {
		return apperr.IllegalAction("room %s is not completed", r.Code)
	}

	var winnerName, loserName string
	if w, err := r.Player(r.Winner); err == nil {
		winnerName = w.Name
		if o, err := r.Opponent(r.Winner); err == nil && o != nil {
			loserName = o.Name
		}
	}

	duration := 0
	if !r.StartedAt.IsZero() && !r.CompletedAt.IsZero() {
		duration = int(r.CompletedAt.Sub(r.StartedAt).Seconds())
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (room_code, mode, winner_name, loser_name, draw, moves, duration_seconds, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.Code, string(r.Mode), winnerName, loserName, r.Draw, len(r.Moves), duration, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to archive match %s: %w", r.Code, err)
	}

	if r.Draw {
		if len(r.Seats) == 2 {
			a, errA := r.Player(r.Seats[0])
			b, errB := r.Player(r.Seats[1])
			if errA == nil && errB == nil {
				return s.recordDraw(ctx, a.Name, b.Name)
			}
		}
		return nil
	}
	if winnerName == "" || loserName == "" {
		return nil
	}
	return s.recordResult(ctx, winnerName, loserName)
}

func (s *Service) stats(ctx context.Context, name string) (db.PlayerStats, error) {
	var st db.PlayerStats
	err := s.db.QueryRowContext(ctx,
		"SELECT player_name, wins, losses, draws, elo FROM stats WHERE player_name = $1", name).
		Scan(&st.PlayerName, &st.Wins, &st.Losses, &st.Draws, &st.Elo)
	if err == sql.ErrNoRows {
		return db.PlayerStats{PlayerName: name, Elo: startingElo}, nil
	}
	if err != nil {
		return db.PlayerStats{}, fmt.Errorf("failed to get stats for %s: %w", name, err)
	}
	return st, nil
}

func (s *Service) upsertStats(ctx context.Context, st db.PlayerStats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (player_name, wins, losses, draws, elo)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_name) DO UPDATE SET wins = $2, losses = $3, draws = $4, elo = $5
	`, st.PlayerName, st.Wins, st.Losses, st.Draws, st.Elo)
	if err != nil {
		return fmt.Errorf("failed to update stats for %s: %w", st.PlayerName, err)
	}
	return nil
}

func expectedScore(own, opp int) float64 {
	return 1 / (1 + math.Pow(10, float64(opp-own)/400))
}

func (s *Service) recordResult(ctx context.Context, winnerName, loserName string) error {
	winner, err := s.stats(ctx, winnerName)
	if err != nil {
		return err
	}
	loser, err := s.stats(ctx, loserName)
	if err != nil {
		return err
	}

	newWinnerElo := winner.Elo + int(eloK*(1-expectedScore(winner.Elo, loser.Elo)))
	newLoserElo := loser.Elo + int(eloK*(0-expectedScore(loser.Elo, winner.Elo)))

	winner.Wins++
	winner.Elo = newWinnerElo
	if err := s.upsertStats(ctx, winner); err != nil {
		return err
	}
	loser.Losses++
	loser.Elo = newLoserElo
	if err := s.upsertStats(ctx, loser); err != nil {
		return err
	}
	log.Printf("Updated stats: %s (wins=%d, elo=%d), %s (losses=%d, elo=%d)",
		winnerName, winner.Wins, newWinnerElo, loserName, loser.Losses, newLoserElo)
	return nil
}

func (s *Service) recordDraw(ctx context.Context, nameA, nameB string) error {
	a, err := s.stats(ctx, nameA)
	if err != nil {
		return err
	}
	b, err := s.stats(ctx, nameB)
	if err != nil {
		return err
	}

	newEloA := a.Elo + int(eloK*(0.5-expectedScore(a.Elo, b.Elo)))
	newEloB := b.Elo + int(eloK*(0.5-expectedScore(b.Elo, a.Elo)))

	a.Draws++
	a.Elo = newEloA
	if err := s.upsertStats(ctx, a); err != nil {
		return err
	}
	b.Draws++
	b.Elo = newEloB
	return s.upsertStats(ctx, b)
}

type Entry struct {
	PlayerName string `json:"playerName"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Draws      int    `json:"draws"`
	Elo        int    `json:"elo"`
}

func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_name, wins, losses, draws, elo
		FROM stats
		ORDER BY elo DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaderboard []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.PlayerName, &entry.Wins, &entry.Losses, &entry.Draws, &entry.Elo); err != nil {
			return nil, err
		}
		leaderboard = append(leaderboard, entry)
	}
	return leaderboard, rows.Err()
}

// RecentMatches returns the newest archived matches first.
func (s *Service) RecentMatches(ctx context.Context, limit int) ([]db.MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_code, mode, winner_name, loser_name, draw, moves, duration_seconds, finished_at
		FROM matches
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []db.MatchRecord
	for rows.Next() {
		var m db.MatchRecord
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.Mode, &m.WinnerName, &m.LoserName,
			&m.Draw, &m.Moves, &m.Duration, &m.FinishedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
