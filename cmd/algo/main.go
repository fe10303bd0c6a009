package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/rampart/internal/auth"
	"github.com/freeeve/rampart/internal/config"
	"github.com/freeeve/rampart/internal/handler"
	"github.com/freeeve/rampart/internal/logger"
	"github.com/freeeve/rampart/internal/match"
	"github.com/freeeve/rampart/internal/middleware"
	"github.com/freeeve/rampart/internal/repository"
	"github.com/freeeve/rampart/internal/repository/postgres"
	redisrepo "github.com/freeeve/rampart/internal/repository/redis"
	"github.com/freeeve/rampart/internal/strategy"
	"github.com/freeeve/rampart/internal/transport"
)

func main() {
	logger.Init()

	var (
		issueToken string
		tokenMatch string
	)
	flag.StringVar(&issueToken, "issue-token", "", "Print a spectator token for this spectator ID and exit")
	flag.StringVar(&tokenMatch, "token-match", "", "Limit the issued token to one match ID (empty = all matches)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	if issueToken != "" {
		token, err := auth.NewJWTManager(cfg.JWTSecret).GenerateSpectatorToken(issueToken, tokenMatch)
		if err != nil {
			log.Fatal().Err(err).Msg("Token generation failed")
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Match aborted")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	profile, err := strategy.LoadProfile(cfg.Profile)
	if err != nil {
		return err
	}
	switch {
	case cfg.SeedSet:
		strategy.SeedRng(cfg.Seed)
	case profile.Seed != 0:
		strategy.SeedRng(profile.Seed)
	}

	matchID := cfg.MatchID
	if matchID == "" {
		matchID = time.Now().UTC().Format("20060102-150405") + "-" + logger.NewRequestID()
	}
	ctx, cancel := context.WithCancel(logger.WithMatchID(context.Background(), matchID))
	defer cancel()
	l := logger.ForMatch(ctx)

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		l.Info().Msg("Shutting down...")
		cancel()
	}()

	var (
		opts    []match.Option
		cache   repository.LiveCache
		history handler.MatchHistory
	)

	// Redis mirrors memory and holds the last turn for spectators.
	if cfg.RedisURL != "" {
		rc, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			l.Warn().Err(err).Msg("Redis unavailable, memory stays in-process")
		} else {
			defer rc.Close()
			rc.SetTTL(cfg.MemoryTTL)
			cache = rc
			opts = append(opts,
				match.WithControllerOptions(strategy.WithMemoryStore(rc)),
				match.WithLiveCache(rc),
			)
		}
	}

	// Postgres keeps the full turn history.
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			l.Warn().Err(err).Msg("Database unavailable, turns will not be persisted")
		} else {
			defer db.Close()
			repo := postgres.NewTurnRepo(db)
			history = repo
			opts = append(opts, match.WithTurnRepository(repo))
		}
	}

	if cfg.ReplayFile != "" {
		f, err := os.OpenFile(cfg.ReplayFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Warn().Err(err).Str("file", cfg.ReplayFile).Msg("Recording disabled")
		} else {
			defer f.Close()
			opts = append(opts, match.WithRecording(f))
		}
	}

	if cfg.SpectatePort != "" {
		hub := handler.NewHub()
		srv := spectateServer(cfg, hub, cache, history)
		opts = append(opts, match.WithPublisher(hub))

		go func() {
			l.Info().Str("port", cfg.SpectatePort).Msg("Spectator server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				l.Error().Err(err).Msg("Spectator server error")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				l.Warn().Err(err).Msg("Spectator server shutdown error")
			}
		}()
	}

	l.Info().
		Str("profile", profile.Name).
		Bool("redis", cache != nil).
		Bool("postgres", history != nil).
		Bool("spectate", cfg.SpectatePort != "").
		Msg("Algo starting")

	runner := match.NewRunner(transport.NewStdio(), matchID, profile, opts...)
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	l.Info().
		Int("finalTurn", res.FinalTurn).
		Float64("health", res.Health).
		Float64("enemyHealth", res.EnemyHealth).
		Bool("ended", res.Ended).
		Msg("Algo finished")
	return nil
}

// spectateServer builds the read-only spectator API around hub.
func spectateServer(cfg *config.Config, hub *handler.Hub, cache repository.LiveCache, history handler.MatchHistory) *http.Server {
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	wsHandler := handler.NewWSHandler(hub, jwtMgr, cache)
	matchHandler := handler.NewMatchHandler(history, cache)

	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", hub.Health)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /matches/{id}", matchHandler.GetMatch)
	api.HandleFunc("GET /matches/{id}/turns", matchHandler.ListTurns)
	api.HandleFunc("GET /matches/{id}/last", matchHandler.LastTurn)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	root := middleware.Chain(mux, middleware.Logger, middleware.Recover, middleware.CORS("*"), middleware.JSON)

	return &http.Server{
		Addr:         ":" + cfg.SpectatePort,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
