// Package config loads the algo's settings from the environment and an
// optional config file.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration. Empty URLs and ports disable the
// matching feature; the contest runtime provides none of them.
type Config struct {
	Profile      string
	Seed         int64
	SeedSet      bool
	MatchID      string
	DatabaseURL  string
	RedisURL     string
	MemoryTTL    time.Duration
	SpectatePort string
	JWTSecret    string
	ReplayFile   string
}

// Load reads configuration from environment variables, then from the file
// named by ALGO_CONFIG when set, with sensible defaults.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("algo_profile", "fortress")
	v.SetDefault("algo_seed", "")
	v.SetDefault("match_id", "")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("memory_ttl", "6h")
	v.SetDefault("spectate_port", "")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("replay_file", "")
	v.AutomaticEnv()

	if path := v.GetString("algo_config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Profile:      v.GetString("algo_profile"),
		MatchID:      v.GetString("match_id"),
		DatabaseURL:  v.GetString("database_url"),
		RedisURL:     v.GetString("redis_url"),
		SpectatePort: v.GetString("spectate_port"),
		JWTSecret:    v.GetString("jwt_secret"),
		ReplayFile:   v.GetString("replay_file"),
	}

	ttl, err := time.ParseDuration(v.GetString("memory_ttl"))
	if err != nil {
		return nil, fmt.Errorf("memory_ttl: %w", err)
	}
	cfg.MemoryTTL = ttl

	if s := v.GetString("algo_seed"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("algo_seed: %w", err)
		}
		cfg.Seed, cfg.SeedSet = seed, true
	}
	return cfg, nil
}
