package commands

import (
	"context"
	"time"

	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
)

type HistoryRecorder interface {
	AppendCommandToHistory(guildID string, record storage.CommandHistoryRecord) error
}

// WithGuildOnly rejects invocations outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, err := FromInvocation(inv)
			if err != nil {
				return err
			}
			if mc.GuildID == "" {
				return ErrGuildOnly
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithCommandLogger runs the command, then logs it and records it in the
// guild's command history.
func WithCommandLogger(history HistoryRecorder) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			started := time.Now()
			err := c.Run(ctx, inv)

			mc, ctxErr := FromInvocation(inv)
			if ctxErr != nil {
				return err
			}
			ev := mc.Log.Info()
			if err != nil {
				ev = mc.Log.Warn().Err(err)
			}
			ev.Str("command", c.Name()).
				Str("user", mc.Username).
				Dur("took", time.Since(started)).
				Msg("command executed")

			if history != nil && mc.GuildID != "" {
				rec := storage.CommandHistoryRecord{
					ChannelID:   mc.ChannelID,
					ChannelName: mc.ChannelName,
					GuildName:   mc.GuildName,
					UserID:      mc.UserID,
					Username:    mc.Username,
					Command:     c.Name(),
					Param:       inv.Rest(),
					Datetime:    started,
				}
				if e := history.AppendCommandToHistory(mc.GuildID, rec); e != nil {
					mc.Log.Warn().Err(e).Str("command", c.Name()).Msg("failed to record command")
				}
			}
			return err
		})
	}
}
