package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/dbconfig"
)

// SeedPlayer uses a string for timestamps to match the JSON layout.
type SeedPlayer struct {
	ID            uuid.UUID `json:"id"`
	SessionToken  string    `json:"session_token"`
	Name          string    `json:"name"`
	CurrentScore  int       `json:"current_score"`
	BestScore     int       `json:"best_score"`
	BattlesPlayed int       `json:"battles_played"`
	BattlesWon    int       `json:"battles_won"`
	AttemptsToday int       `json:"attempts_today"`
	LastPlayedAt  *string   `json:"last_played_at"`
	CreatedAt     string    `json:"created_at"`
}

func main() {
	ctx := context.Background()

	// 1) Load players.json
	pData, err := os.ReadFile("go/internal/assets/players.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read players.json: %v\n", err)
		os.Exit(1)
	}
	var players []SeedPlayer
	if err := json.Unmarshal(pData, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal players: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Seed players
	total, inserted, skipped, errs := len(players), 0, 0, 0
	for _, p := range players {
		tag, err := pool.Exec(ctx, `
            INSERT INTO players (
              id, session_token, name, current_score, best_score,
              battles_played, battles_won, attempts_today, last_played_at, created_at
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
            ON CONFLICT (session_token) DO NOTHING
        `, p.ID, p.SessionToken, p.Name, p.CurrentScore, p.BestScore,
			p.BattlesPlayed, p.BattlesWon, p.AttemptsToday, p.LastPlayedAt, p.CreatedAt)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}
	fmt.Printf(
		"Players seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)
}
