// Package discord adapts the gateway session to the music core: chat
// commands in, voice and embeds out.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/jukebox/internal/commands"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/pkg/cmd"
	"github.com/rs/zerolog"
)

const commandTimeout = 2 * time.Minute

var ErrUserNotInVoice = errors.New("user not in any voice channel")

// Music is the session API the bot routes messages and voice events to.
type Music interface {
	commands.Music
	Disconnected(guildID string)
}

type Options struct {
	Prefix   string
	Activity string
	Music    Music
	Hub      *selection.Hub
	Lookup   commands.TrackLookup
	Registry *cmd.Registry
	Logger   zerolog.Logger
}

// Bot is a Discord bot
type Bot struct {
	dg   *discordgo.Session
	opts Options
	log  zerolog.Logger
	ctx  context.Context
}

// NewSession creates the gateway session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
	return dg, nil
}

func New(dg *discordgo.Session, opts Options) *Bot {
	return &Bot{dg: dg, opts: opts, log: opts.Logger, ctx: context.Background()}
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("❎ shutdown signal received, closing gateway")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if b.opts.Activity != "" {
		if err := s.UpdateListeningStatus(b.opts.Activity); err != nil {
			b.log.Warn().Err(err).Msg("failed to set activity")
		}
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("✅ discord bot is running")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	// a pending search answer is consumed and never parsed as a command
	if m.GuildID != "" && b.opts.Hub != nil && b.opts.Hub.Offer(m.GuildID, m.Author.ID, m.Content) {
		return
	}

	name, inv, ok := cmd.Parse(b.opts.Prefix, m.Content)
	if !ok {
		return
	}
	c := b.opts.Registry.Get(name)
	if c == nil {
		return
	}
	inv.Data = b.commandContext(s, m)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()
	if err := c.Run(ctx, inv); err != nil {
		if replyErr := b.Reply(m.ChannelID, commands.ErrorEmbed(err)); replyErr != nil {
			b.log.Warn().Err(replyErr).Str("command", name).Msg("failed to send error reply")
		}
	}
}

// onVoiceStateUpdate resets the session when the bot is removed from voice.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.UserID != s.State.User.ID || v.ChannelID != "" {
		return
	}
	// a rejoin may already have replaced the connection
	s.RLock()
	_, connected := s.VoiceConnections[v.GuildID]
	s.RUnlock()
	if connected {
		return
	}
	b.log.Info().Str("guild", v.GuildID).Msg("bot left voice, resetting session")
	b.opts.Music.Disconnected(v.GuildID)
}

func (b *Bot) commandContext(s *discordgo.Session, m *discordgo.MessageCreate) *commands.Context {
	mc := &commands.Context{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Music:     b.opts.Music,
		Lookup:    b.opts.Lookup,
		Replier:   b,
		Voice:     b,
		Registry:  b.opts.Registry,
		Prefix:    b.opts.Prefix,
		Log:       b.log.With().Str("guild", m.GuildID).Logger(),
	}
	if g, err := s.State.Guild(m.GuildID); err == nil {
		mc.GuildName = g.Name
	}
	if ch, err := s.State.Channel(m.ChannelID); err == nil {
		mc.ChannelName = ch.Name
	}
	return mc
}

// Reply sends an embed to a text channel.
func (b *Bot) Reply(channelID string, e *discordgo.MessageEmbed) error {
	_, err := b.dg.ChannelMessageSendEmbed(channelID, e)
	return err
}

// UserVoiceChannel finds the voice channel a member is in from the state cache.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", ErrUserNotInVoice
}
