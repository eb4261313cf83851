package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken     string        `env:"DISCORD_TOKEN,required,notEmpty"`
	CommandPrefix    string        `env:"COMMAND_PREFIX" envDefault:"!"`
	StoragePath      string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	SearchLimit      int           `env:"SEARCH_LIMIT" envDefault:"10"`
	SelectionTimeout time.Duration `env:"SELECTION_TIMEOUT" envDefault:"30s"`
	YouTubeProxy     string        `env:"YOUTUBE_PROXY"`
	YtdlpCookies     string        `env:"YTDLP_COOKIES"`
	FFmpegPath       string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile          string        `env:"LOG_FILE"`
	StatusAddr       string        `env:"STATUS_ADDR"`
	Activity         string        `env:"ACTIVITY" envDefault:"music | !help"`
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, dotenv, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DiscordToken) == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN must not be empty"))
	}
	if c.CommandPrefix == "" {
		errs = append(errs, errors.New("COMMAND_PREFIX must not be empty"))
	}
	if c.SearchLimit < 1 || c.SearchLimit > 25 {
		errs = append(errs, fmt.Errorf("SEARCH_LIMIT must be between 1 and 25, got %d", c.SearchLimit))
	}
	if c.SelectionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SELECTION_TIMEOUT must be positive, got %s", c.SelectionTimeout))
	}
	if c.FFmpegPath == "" {
		errs = append(errs, errors.New("FFMPEG_PATH must not be empty"))
	}
	return errors.Join(errs...)
}
