package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/rampart/internal/match"
	"github.com/freeeve/rampart/internal/repository/postgres"
	"github.com/freeeve/rampart/internal/strategy"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		profileName string
		matchIDs    string
		configPath  string
		workers     int
		dbURL       string
		seed        int64
		jsonOut     bool
		verbose     bool
	)

	flag.StringVar(&profileName, "profile", strategy.DefaultProfile, "Built-in profile name or YAML path")
	flag.StringVar(&matchIDs, "match", "", "Comma-separated match IDs to replay from the database")
	flag.StringVar(&configPath, "config", "", "Engine config line (JSON file) for database replays")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel replays)")
	flag.StringVar(&dbURL, "db", "", "Database URL (or use DATABASE_URL env)")
	flag.Int64Var(&seed, "seed", 0, "Seed for the scatter rule (0 = random)")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&verbose, "v", false, "Log every planned action")

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	profile, err := strategy.LoadProfile(profileName)
	if err != nil {
		log.Fatal().Err(err).Msg("Profile load failed")
	}
	if seed != 0 {
		strategy.SeedRng(seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	var sources []source
	for _, path := range flag.Args() {
		sources = append(sources, fileSource(path))
	}

	if matchIDs != "" {
		if configPath == "" {
			log.Fatal().Msg("-match needs -config with the engine's config line")
		}
		configLine, err := os.ReadFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Config read failed")
		}
		if dbURL == "" {
			dbURL = os.Getenv("DATABASE_URL")
		}
		db, err := postgres.Connect(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		repo := postgres.NewTurnRepo(db)
		for _, id := range strings.Split(matchIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				sources = append(sources, dbSource(repo, configLine, id))
			}
		}
	}

	if len(sources) == 0 {
		log.Fatal().Msg("Nothing to replay: pass recording files or -match")
	}
	if workers < 1 {
		workers = 1
	}

	// Run replays
	results := make([]*match.Result, len(sources))
	names := make([]string, len(sources))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0

	for i, src := range sources {
		names[i] = src.name
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, src source) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := replay(ctx, src, profile)
			if err != nil {
				log.Error().Err(err).Str("source", src.name).Msg("Replay failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()
		}(i, src)
	}

	wg.Wait()

	if jsonOut {
		if err := printJSON(os.Stdout, results, errCount); err != nil {
			log.Fatal().Err(err).Msg("Write failed")
		}
	} else {
		printSummary(os.Stdout, names, results, errCount)
	}
	if errCount > 0 {
		os.Exit(1)
	}
}
