package commands

import (
	"context"
	"fmt"

	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/pkg/cmd"
)

type QueueCommand struct{}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the queue" }
func (c *QueueCommand) Aliases() []string   { return []string{"q", "list"} }
func (c *QueueCommand) Category() string    { return config.CategoryQueue }

func (c *QueueCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	snap, err := mc.Music.Snapshot(ctx, mc.GuildID)
	if err != nil {
		return err
	}
	e := Message("📜 Queue", QueueDescription(snap))
	e.Footer = footer(fmt.Sprintf("%d queued · loop: %s", len(snap.Queue), snap.Loop))
	return mc.Reply(e)
}

type ShuffleCommand struct{}

func (c *ShuffleCommand) Name() string        { return "shuffle" }
func (c *ShuffleCommand) Description() string { return "Shuffle the queued tracks" }
func (c *ShuffleCommand) Aliases() []string   { return []string{"mix"} }
func (c *ShuffleCommand) Category() string    { return config.CategoryQueue }

func (c *ShuffleCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	if err := mc.Music.Shuffle(ctx, mc.GuildID); err != nil {
		return err
	}
	return mc.Reply(Message("", "🔀 Queue shuffled."))
}

type ClearCommand struct{}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Remove every queued track, keep the current one" }
func (c *ClearCommand) Aliases() []string   { return []string{"cl"} }
func (c *ClearCommand) Category() string    { return config.CategoryQueue }

func (c *ClearCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	n, err := mc.Music.ClearQueue(ctx, mc.GuildID)
	if err != nil {
		return err
	}
	return mc.Reply(Message("", fmt.Sprintf("🧹 Removed %d track(s) from the queue.", n)))
}

type LoopCommand struct{}

func (c *LoopCommand) Name() string        { return "loop" }
func (c *LoopCommand) Description() string { return "Set or cycle the loop mode" }
func (c *LoopCommand) Aliases() []string   { return []string{"repeat"} }
func (c *LoopCommand) Category() string    { return config.CategoryQueue }
func (c *LoopCommand) Usage() string       { return "loop [none | track | queue]" }

func (c *LoopCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}

	var mode player.LoopMode
	if len(inv.Args) == 0 {
		if mode, err = mc.Music.ToggleLoopMode(ctx, mc.GuildID); err != nil {
			return err
		}
	} else {
		if mode, err = player.ParseLoopMode(inv.Args[0]); err != nil {
			return usage(mc.Prefix, c.Usage())
		}
		if err := mc.Music.SetLoopMode(ctx, mc.GuildID, mode); err != nil {
			return err
		}
	}
	return mc.Reply(Message("", "🔁 Loop mode: **"+mode.String()+"**"))
}
