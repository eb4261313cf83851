package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
	"github.com/keshon/jukebox/internal/commands"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/rs/zerolog"
)

// Notifier posts player events to the text channel of the last request.
type Notifier struct {
	replier commands.Replier
	log     zerolog.Logger
}

func NewNotifier(r commands.Replier, log zerolog.Logger) *Notifier {
	return &Notifier{replier: r, log: log}
}

func (n *Notifier) Notify(e player.Event) {
	if e.ChannelID == "" {
		return
	}
	msg := EventEmbed(e)
	if msg == nil {
		return
	}
	if err := n.replier.Reply(e.ChannelID, msg); err != nil {
		n.log.Warn().Err(err).Str("guild", e.GuildID).Str("event", e.Type.String()).Msg("failed to send notification")
	}
}

// EventEmbed renders e, or returns nil for events that stay silent.
func EventEmbed(e player.Event) *discordgo.MessageEmbed {
	switch e.Type {
	case player.EventTrackStarted:
		title := e.Type.StringEmoji() + " Now Playing"
		if e.Track.RequestedBy == "" {
			return commands.TrackEmbed(title, e.Track, e.Effects.String())
		}
		msg := embed.NewEmbed().
			SetTitle(title).
			SetDescription(fmt.Sprintf("🎶 %s\nRequested by <@%s>", commands.TrackLine(e.Track), e.Track.RequestedBy)).
			SetFooter(e.Effects.String()).
			SetColor(commands.EmbedColor)
		if e.Track.ThumbnailURL != "" {
			msg.SetThumbnail(e.Track.ThumbnailURL)
		}
		return msg.MessageEmbed

	case player.EventTrackEnded:
		switch e.Reason {
		case player.ReasonUnavailable:
			return embed.NewEmbed().
				SetDescription("⚠️ Skipped unavailable track: " + commands.TrackLine(e.Track)).
				SetColor(commands.ErrorColor).
				MessageEmbed
		case player.ReasonError:
			desc := "⚠️ Playback failed: " + commands.TrackLine(e.Track)
			if e.Err != nil {
				desc += "\n`" + e.Err.Error() + "`"
			}
			return embed.NewEmbed().
				SetDescription(desc).
				SetColor(commands.ErrorColor).
				MessageEmbed
		}
		return nil

	case player.EventEffectsApplied:
		return commands.Message(e.Type.StringEmoji()+" Effects applied", commands.EffectsDescription(e.Effects))

	case player.EventQueueExhausted:
		return commands.Message("", e.Type.StringEmoji()+" Queue finished.")
	}
	return nil
}

// ChannelReplier sends embeds through the gateway session's REST client.
type ChannelReplier struct {
	dg *discordgo.Session
}

func NewChannelReplier(dg *discordgo.Session) *ChannelReplier {
	return &ChannelReplier{dg: dg}
}

func (r *ChannelReplier) Reply(channelID string, e *discordgo.MessageEmbed) error {
	_, err := r.dg.ChannelMessageSendEmbed(channelID, e)
	return err
}
