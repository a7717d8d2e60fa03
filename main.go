package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/assets"
	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/config"
	"github.com/robalobadob/wordduel/internal/httpserver"
	"github.com/robalobadob/wordduel/internal/lobby"
	"github.com/robalobadob/wordduel/internal/registry"
	"github.com/robalobadob/wordduel/internal/store"
	"github.com/robalobadob/wordduel/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	pool, err := words.Load(cfg.Words.File)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	log.Info().Int("words", pool.Len()).Msg("word list loaded")

	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migrations")
	}
	st, err := store.Open(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}

	ctx := context.Background()
	if cfg.Auth.AdminPassword != "" {
		created, err := st.EnsureAdmin(ctx, cfg.Auth.AdminUser, cfg.Auth.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin account")
		}
		if created {
			log.Info().Str("user", cfg.Auth.AdminUser).Msg("admin account created")
		}
	}

	// Timings saved by an admin outlive restarts and win over the file/env values.
	live := config.NewLive(cfg.Timings())
	if gc, err := st.LoadGameConfig(ctx); err != nil {
		log.Warn().Err(err).Msg("using configured game timings")
	} else {
		live.SetWaitAndRound(time.Duration(gc.WaitTime)*time.Second, time.Duration(gc.RoundDuration)*time.Second)
	}

	l := lobby.New(registry.New(), st, pool, live, lobby.Options{})
	signer := auth.NewSigner(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpiresDays)*24*time.Hour)
	srv := httpserver.New(l, signer, httpserver.Options{
		ClientOrigin: cfg.Server.ClientOrigin,
		GuessRPS:     cfg.Limits.GuessRPS,
		GuessBurst:   cfg.Limits.GuessBurst,
	})

	idleConnsClosed := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
		l.Shutdown(ctx)
		close(idleConnsClosed)
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("starting wordduel server")
	if err := srv.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	<-idleConnsClosed
	if err := st.Close(); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
	log.Info().Msg("server shutdown complete")
}
