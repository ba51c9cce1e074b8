package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/analytics"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Relay binary: polls the analytics outbox and publishes completed-game
// events to JetStream. Runs alongside the game server, scaled independently.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	dbCfg := dbconfig.NewConfigFromEnv()
	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	jsCfg := analytics.DefaultJetStreamConfig()
	if url := os.Getenv("NATS_URL"); url != "" {
		jsCfg.URL = url
	}

	publisher, err := analytics.NewJetStreamPublisher(jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create JetStream publisher")
	}
	defer publisher.Close()

	worker := analytics.NewWorker(
		analytics.NewRepository(database),
		publisher,
		analytics.DefaultConfig(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox worker")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	if err := worker.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop outbox worker")
	}

	log.Info().Msg("outbox relay shutdown complete")
}
