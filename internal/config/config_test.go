package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Equal(t, 10, cfg.SearchLimit)
	assert.Equal(t, 30*time.Second, cfg.SelectionTimeout)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("SEARCH_LIMIT", "5")
	t.Setenv("SELECTION_TIMEOUT", "45s")
	t.Setenv("YOUTUBE_PROXY", "socks5://127.0.0.1:1080")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "?", cfg.CommandPrefix)
	assert.Equal(t, 5, cfg.SearchLimit)
	assert.Equal(t, 45*time.Second, cfg.SelectionTimeout)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.YouTubeProxy)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, _, err := Load()
	assert.Error(t, err)

	t.Setenv("DISCORD_TOKEN", "   ")
	_, _, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{DiscordToken: "token", CommandPrefix: "!", SearchLimit: 10, SelectionTimeout: time.Second, FFmpegPath: "ffmpeg"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"blank token", func(c *Config) { c.DiscordToken = "  " }},
		{"empty prefix", func(c *Config) { c.CommandPrefix = "" }},
		{"zero search limit", func(c *Config) { c.SearchLimit = 0 }},
		{"huge search limit", func(c *Config) { c.SearchLimit = 100 }},
		{"non-positive timeout", func(c *Config) { c.SelectionTimeout = 0 }},
		{"empty ffmpeg", func(c *Config) { c.FFmpegPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
