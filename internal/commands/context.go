// Package commands implements the chat commands of the music bot on top of
// the transport-agnostic pkg/cmd core.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/pkg/cmd"
	"github.com/rs/zerolog"
)

var (
	ErrUsage      = errors.New("usage")
	ErrNoContext  = errors.New("invocation carries no command context")
	ErrNotInVoice = errors.New("you need to be in a voice channel")
	ErrGuildOnly  = errors.New("this command only works in a server")
)

// Music is the per-guild playback API the commands drive.
type Music interface {
	Enqueue(ctx context.Context, guildID string, req player.Request) (int, error)
	Skip(ctx context.Context, guildID string) (sources.Track, error)
	Stop(ctx context.Context, guildID string) error
	SetEffects(ctx context.Context, guildID string, u effects.Partial) (effects.Config, error)
	SetLoopMode(ctx context.Context, guildID string, mode player.LoopMode) error
	ToggleLoopMode(ctx context.Context, guildID string) (player.LoopMode, error)
	Shuffle(ctx context.Context, guildID string) error
	ClearQueue(ctx context.Context, guildID string) (int, error)
	Snapshot(ctx context.Context, guildID string) (player.Snapshot, error)
	BeginSearch(ctx context.Context, req session.SearchRequest) (*session.Search, error)
}

type TrackLookup interface {
	LookupTrack(ctx context.Context, input string) (sources.Track, error)
}

type Replier interface {
	Reply(channelID string, e *discordgo.MessageEmbed) error
}

// VoiceLocator finds the voice channel a member is sitting in.
type VoiceLocator interface {
	UserVoiceChannel(guildID, userID string) (string, error)
}

// Context is the payload adapters put into cmd.Invocation.Data.
type Context struct {
	GuildID     string
	GuildName   string
	ChannelID   string
	ChannelName string
	UserID      string
	Username    string

	Music    Music
	Lookup   TrackLookup
	Replier  Replier
	Voice    VoiceLocator
	Registry *cmd.Registry
	Prefix   string
	Log      zerolog.Logger
}

func (c *Context) Reply(e *discordgo.MessageEmbed) error {
	return c.Replier.Reply(c.ChannelID, e)
}

func (c *Context) VoiceChannel() (string, error) {
	id, err := c.Voice.UserVoiceChannel(c.GuildID, c.UserID)
	if err != nil || id == "" {
		return "", ErrNotInVoice
	}
	return id, nil
}

func FromInvocation(inv *cmd.Invocation) (*Context, error) {
	c, ok := inv.Data.(*Context)
	if !ok || c == nil {
		return nil, ErrNoContext
	}
	return c, nil
}

func usage(prefix, text string) error {
	return fmt.Errorf("%w: %s%s", ErrUsage, prefix, text)
}

// Categorized commands are grouped under a heading in help.
type Categorized interface {
	Category() string
}

// Usager commands document their arguments in help.
type Usager interface {
	Usage() string
}
