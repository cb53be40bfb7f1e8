package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type config struct {
	DiscordToken           string        `env:"DISCORD_TOKEN,required"   validate:"required"`
	SteamAPIKey            string        `env:"STEAM_API_KEY,required"   validate:"required"`
	DataFile               string        `env:"DATA_FILE"                envDefault:"./tracked_users.json"`
	DatabaseDSN            string        `env:"DATABASE_DSN"`
	DefaultUpdateInterval  time.Duration `env:"DEFAULT_UPDATE_INTERVAL"  envDefault:"60s"   validate:"min=60s,max=24h"`
	StatusRotationInterval time.Duration `env:"STATUS_ROTATION_INTERVAL" envDefault:"15s"   validate:"min=1s"`
	SteamAPIBaseURL        string        `env:"STEAM_API_BASE_URL"       envDefault:"https://api.steampowered.com" validate:"url"`
	SteamHTTPTimeout       time.Duration `env:"STEAM_HTTP_TIMEOUT"       envDefault:"10s"   validate:"min=1s,max=2m"`
	HealthAddress          string        `env:"HEALTH_ADDRESS"`
	LogLevel               string        `env:"LOG_LEVEL"                envDefault:"info"  validate:"oneof=debug info warn error"`
}

// loadConfig reads the optional dotenv files, then the environment, then validates.
func loadConfig(dotenvFiles ...string) (config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := env.ParseAs[config]()
	if err != nil {
		return config{}, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c config) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
