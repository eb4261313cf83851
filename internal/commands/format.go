package commands

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/sources"
)

const (
	EmbedColor   = 0xb01e66
	ErrorColor   = 0xd9534f
	queuePreview = 10
)

func Message(title, description string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle(title).
		SetDescription(description).
		SetColor(EmbedColor).
		MessageEmbed
}

func footer(text string) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: text}
}

// ErrorEmbed renders err for the channel. Usage errors show the usage line.
func ErrorEmbed(err error) *discordgo.MessageEmbed {
	var msg string
	switch {
	case errors.Is(err, ErrUsage):
		msg = "Usage: `" + strings.TrimPrefix(err.Error(), ErrUsage.Error()+": ") + "`"
	case errors.Is(err, sources.ErrNotFound):
		msg = "Nothing found for that."
	case errors.Is(err, player.ErrNothingPlaying):
		msg = "Nothing is playing right now."
	case errors.Is(err, selection.ErrCancelled):
		msg = "Selection cancelled."
	case errors.Is(err, selection.ErrTimedOut):
		msg = "Selection timed out."
	default:
		msg = err.Error()
	}
	return embed.NewEmbed().
		SetDescription("🎵 Error: " + msg).
		SetColor(ErrorColor).
		MessageEmbed
}

// TrackLine renders a track as a markdown link with its duration.
func TrackLine(t sources.Track) string {
	title := t.Title
	if title == "" {
		title = t.SourceURL
	}
	if t.SourceURL != "" {
		title = fmt.Sprintf("[%s](%s)", title, t.SourceURL)
	}
	return fmt.Sprintf("%s `%s`", title, t.DurationString())
}

func TrackEmbed(title string, t sources.Track, footer string) *discordgo.MessageEmbed {
	e := embed.NewEmbed().
		SetTitle(title).
		SetDescription("🎶 " + TrackLine(t)).
		SetColor(EmbedColor)
	if t.ThumbnailURL != "" {
		e.SetThumbnail(t.ThumbnailURL)
	}
	if footer != "" {
		e.SetFooter(footer)
	}
	return e.MessageEmbed
}

func QueueDescription(s player.Snapshot) string {
	var sb strings.Builder
	if s.Current != nil {
		sb.WriteString("**Now playing:** " + TrackLine(*s.Current) + "\n")
	}
	if len(s.Queue) == 0 {
		sb.WriteString("Queue is empty.")
	}
	for i, t := range s.Queue {
		if i == queuePreview {
			fmt.Fprintf(&sb, "...and %d more", len(s.Queue)-queuePreview)
			break
		}
		fmt.Fprintf(&sb, "`%d.` %s\n", i+1, TrackLine(t))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func SearchDescription(results []sources.Track) string {
	var sb strings.Builder
	for i, t := range results {
		fmt.Fprintf(&sb, "`%d.` %s\n", i+1, TrackLine(t))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func EffectsDescription(fx effects.Config) string {
	pitch := "off"
	if fx.PitchEffect {
		pitch = "on"
	}
	return fmt.Sprintf("Volume: **%d%%**\nBass: **%+d** Mid: **%+d** Treble: **%+d**\nNightcore: **%s**",
		int(math.Round(fx.Volume*100)), fx.Bass, fx.Mid, fx.Treble, pitch)
}
