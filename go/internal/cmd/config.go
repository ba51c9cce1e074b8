package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds game service tuning. Environment variables override secrets
// and endpoints; the yaml file carries gameplay knobs.
type Config struct {
	MatchupAPI struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"matchup_api"`

	Queue struct {
		LowWaterMark   int `yaml:"low_water_mark"`
		RefillBatch    int `yaml:"refill_batch"`
		FetchTimeoutMs int `yaml:"fetch_timeout_ms"`
	} `yaml:"queue"`

	Leaderboard struct {
		Limit int `yaml:"limit"`
	} `yaml:"leaderboard"`

	Game struct {
		GameOverDelayMs int `yaml:"game_over_delay_ms"`
	} `yaml:"game"`
}

// FetchTimeout returns the queue fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Queue.FetchTimeoutMs) * time.Millisecond
}

// GameOverDelay returns the game-over display delay as a duration.
func (c *Config) GameOverDelay() time.Duration {
	return time.Duration(c.Game.GameOverDelayMs) * time.Millisecond
}

func defaultConfig() *Config {
	var config Config
	config.Queue.LowWaterMark = 2
	config.Queue.RefillBatch = 3
	config.Queue.FetchTimeoutMs = 10000
	config.Leaderboard.Limit = 10
	return &config
}

// loadConfig reads the yaml file when present and applies env overrides.
// A missing file is not an error; defaults apply.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if v := os.Getenv("MATCHUP_API_URL"); v != "" {
		config.MatchupAPI.BaseURL = v
	}
	if v := os.Getenv("MATCHUP_API_KEY"); v != "" {
		config.MatchupAPI.APIKey = v
	}
	if config.Queue.FetchTimeoutMs <= 0 {
		config.Queue.FetchTimeoutMs = 10000
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
