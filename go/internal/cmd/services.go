package main

import (
	"database/sql"

	"github.com/makeorbreakshop/thumbnail-battle/go/clients/matchup_api_client"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/battlequeue"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/game"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/gateway"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/leaderboard"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/player"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/session"
)

// Services holds the wired application graph. The queue, leaderboard cache,
// and player app are shared; each WebSocket connection gets its own machine
// and session tracker through the factory.
type Services struct {
	Queue   *battlequeue.Queue
	Players *player.App
	Board   *leaderboard.Cache
	Factory gateway.MachineFactory
}

func setupServices(database *sql.DB, config *Config) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Gateway layer

	matchupClient := matchup_api_client.NewMatchupApiClient(
		config.MatchupAPI.BaseURL,
		config.MatchupAPI.APIKey,
	)

	queueConfig := battlequeue.DefaultConfig()
	if config.Queue.LowWaterMark > 0 {
		queueConfig.LowWaterMark = config.Queue.LowWaterMark
	}
	if config.Queue.RefillBatch > 0 {
		queueConfig.RefillBatch = config.Queue.RefillBatch
	}
	if config.Queue.FetchTimeoutMs > 0 {
		queueConfig.FetchTimeout = config.FetchTimeout()
	}
	queue := battlequeue.New(matchupClient, battlequeue.NewImagePreloader(), queueConfig)

	playerRepo := player.NewRepository(database)
	playerApp := player.NewApp(playerRepo)

	boardRepo := leaderboard.NewRepository(database)
	board := leaderboard.NewCache(boardRepo, config.Leaderboard.Limit)

	sessionRepo := session.NewRepository(database)

	gameOverDelay := config.GameOverDelay()
	if gameOverDelay <= 0 {
		gameOverDelay = game.DefaultGameOverDelay
	}

	factory := func(emit func(game.Event)) *game.Machine {
		return game.NewMachine(game.Deps{
			Queue:         queue,
			Verifier:      matchupClient,
			Players:       playerApp,
			Tracker:       session.NewTracker(sessionRepo),
			Board:         board,
			GameOverDelay: gameOverDelay,
		}, emit)
	}

	return &Services{
		Queue:   queue,
		Players: playerApp,
		Board:   board,
		Factory: factory,
	}
}
