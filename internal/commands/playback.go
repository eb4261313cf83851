package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/pkg/cmd"
)

type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a link or the first search hit" }
func (c *PlayCommand) Aliases() []string   { return []string{"p", "add"} }
func (c *PlayCommand) Category() string    { return config.CategoryPlayback }
func (c *PlayCommand) Usage() string       { return "play <url | search terms>" }

func (c *PlayCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	input := inv.Rest()
	if input == "" {
		return usage(mc.Prefix, c.Usage())
	}

	voice, err := mc.VoiceChannel()
	if err != nil {
		return err
	}
	track, err := mc.Lookup.LookupTrack(ctx, input)
	if err != nil {
		return err
	}
	track = track.WithRequester(mc.UserID)

	pos, err := mc.Music.Enqueue(ctx, mc.GuildID, player.Request{
		Track:           track,
		VoiceChannelID:  voice,
		NotifyChannelID: mc.ChannelID,
	})
	if err != nil {
		return err
	}
	// a track that starts right away is announced by the notifier
	if pos == 0 {
		return nil
	}
	return mc.Reply(TrackEmbed("🎶 Added to queue", track, fmt.Sprintf("Position #%d", pos)))
}

type SearchCommand struct{}

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Search and pick a track from the results" }
func (c *SearchCommand) Aliases() []string   { return []string{"find"} }
func (c *SearchCommand) Category() string    { return config.CategoryPlayback }
func (c *SearchCommand) Usage() string       { return "search <terms>" }

func (c *SearchCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	query := inv.Rest()
	if query == "" {
		return usage(mc.Prefix, c.Usage())
	}
	voice, err := mc.VoiceChannel()
	if err != nil {
		return err
	}

	search, err := mc.Music.BeginSearch(ctx, session.SearchRequest{
		GuildID:         mc.GuildID,
		RequesterID:     mc.UserID,
		Query:           query,
		VoiceChannelID:  voice,
		NotifyChannelID: mc.ChannelID,
	})
	if err != nil {
		return err
	}

	list := Message("🔎 Results for "+query, SearchDescription(search.Results))
	list.Footer = footer(fmt.Sprintf("Reply with 1-%d or %q", len(search.Results), selection.CancelKeyword))
	if err := mc.Reply(list); err != nil {
		search.Handle.Cancel()
		return err
	}

	go c.await(context.WithoutCancel(ctx), mc, search)
	return nil
}

func (c *SearchCommand) await(ctx context.Context, mc *Context, search *session.Search) {
	track, pos, err := search.Await(ctx)
	var reply error
	switch {
	case errors.Is(err, selection.ErrCancelled), errors.Is(err, selection.ErrTimedOut):
		reply = mc.Reply(ErrorEmbed(err))
	case err != nil:
		mc.Log.Warn().Err(err).Str("track", track.Title).Msg("failed to enqueue picked track")
		reply = mc.Reply(ErrorEmbed(err))
	case pos > 0:
		reply = mc.Reply(TrackEmbed("🎶 Added to queue", track, fmt.Sprintf("Position #%d", pos)))
	}
	if reply != nil {
		mc.Log.Warn().Err(reply).Msg("failed to send search reply")
	}
}

type SkipCommand struct{}

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current track" }
func (c *SkipCommand) Aliases() []string   { return []string{"next", "s"} }
func (c *SkipCommand) Category() string    { return config.CategoryPlayback }

func (c *SkipCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	track, err := mc.Music.Skip(ctx, mc.GuildID)
	if err != nil {
		return err
	}
	return mc.Reply(Message("⏭️ Skipped", TrackLine(track)))
}

type StopCommand struct{}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback, clear the queue and leave" }
func (c *StopCommand) Aliases() []string   { return []string{"leave", "disconnect"} }
func (c *StopCommand) Category() string    { return config.CategoryPlayback }

func (c *StopCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	if err := mc.Music.Stop(ctx, mc.GuildID); err != nil {
		return err
	}
	return mc.Reply(Message("", "⏹️ Playback stopped. Queue cleared."))
}

type NowPlayingCommand struct{}

func (c *NowPlayingCommand) Name() string        { return "nowplaying" }
func (c *NowPlayingCommand) Description() string { return "Show the current track" }
func (c *NowPlayingCommand) Aliases() []string   { return []string{"np", "now"} }
func (c *NowPlayingCommand) Category() string    { return config.CategoryPlayback }

func (c *NowPlayingCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	snap, err := mc.Music.Snapshot(ctx, mc.GuildID)
	if err != nil {
		return err
	}
	if snap.Current == nil {
		return player.ErrNothingPlaying
	}
	return mc.Reply(TrackEmbed("▶️ Now Playing", *snap.Current,
		fmt.Sprintf("Loop: %s · %s", snap.Loop, snap.Effects)))
}
