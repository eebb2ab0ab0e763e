package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/config"
	"github.com/robalobadob/scrabble/apps/go-server/internal/httpserver"
	"github.com/robalobadob/scrabble/apps/go-server/internal/service"
	"github.com/robalobadob/scrabble/apps/go-server/internal/stats"
	"github.com/robalobadob/scrabble/apps/go-server/internal/store"
	"github.com/robalobadob/scrabble/apps/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(cfg.WordsDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.WordsDir).Msg("failed to load word lists")
	}
	dict, err := words.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	log.Info().Interface("words", dict.Stats()).Msg("dictionaries loaded")

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	results := stats.NewStore(db)
	svc := service.New(store.NewSQLiteStore(db), dict, service.Options{
		Salt:           cfg.BagSalt,
		TurnDuration:   cfg.TurnDuration,
		WaitingTimeout: cfg.WaitingTimeout,
		Results:        results,
	})
	defer svc.Close()
	if err := svc.Restore(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("restore games")
	}

	srv := httpserver.New(cfg, svc, db, results)
	log.Info().Str("port", cfg.Port).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
	}
}
