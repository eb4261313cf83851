package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/pkg/cmd"
)

// applyEffects sends u to the guild and reports the resulting settings.
func applyEffects(ctx context.Context, mc *Context, title string, u effects.Partial) error {
	fx, err := mc.Music.SetEffects(ctx, mc.GuildID, u)
	if err != nil {
		return err
	}
	return mc.Reply(Message(title, EffectsDescription(fx)))
}

func showEffects(ctx context.Context, mc *Context) error {
	snap, err := mc.Music.Snapshot(ctx, mc.GuildID)
	if err != nil {
		return err
	}
	return mc.Reply(Message("🎛️ Effects", EffectsDescription(snap.Effects)))
}

type VolumeCommand struct{}

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Show or set the volume (1-200%)" }
func (c *VolumeCommand) Aliases() []string   { return []string{"vol", "v"} }
func (c *VolumeCommand) Category() string    { return config.CategoryEffects }
func (c *VolumeCommand) Usage() string       { return "volume [1-200]" }

func (c *VolumeCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	if len(inv.Args) == 0 {
		return showEffects(ctx, mc)
	}
	percent, err := strconv.Atoi(strings.TrimSuffix(inv.Args[0], "%"))
	if err != nil {
		return usage(mc.Prefix, c.Usage())
	}
	return applyEffects(ctx, mc, "🔊 Volume", effects.Volume(percent))
}

type EqualizerCommand struct{}

func (c *EqualizerCommand) Name() string        { return "eq" }
func (c *EqualizerCommand) Description() string { return "Set bass, mid and treble gains (-10..10)" }
func (c *EqualizerCommand) Aliases() []string   { return []string{"equalizer"} }
func (c *EqualizerCommand) Category() string    { return config.CategoryEffects }
func (c *EqualizerCommand) Usage() string       { return "eq <bass> <mid> <treble> | eq reset" }

func (c *EqualizerCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	switch {
	case len(inv.Args) == 0:
		return showEffects(ctx, mc)
	case len(inv.Args) == 1 && strings.EqualFold(inv.Args[0], "reset"):
		return applyEffects(ctx, mc, "🎚️ Equalizer", effects.Equalizer(0, 0, 0))
	case len(inv.Args) != 3:
		return usage(mc.Prefix, c.Usage())
	}

	var gains [3]int
	for i, arg := range inv.Args {
		if gains[i], err = strconv.Atoi(arg); err != nil {
			return usage(mc.Prefix, c.Usage())
		}
	}
	return applyEffects(ctx, mc, "🎚️ Equalizer", effects.Equalizer(gains[0], gains[1], gains[2]))
}

const defaultBassBoost = "medium"

type BassBoostCommand struct{}

func (c *BassBoostCommand) Name() string        { return "bassboost" }
func (c *BassBoostCommand) Description() string { return "Boost the bass with a preset" }
func (c *BassBoostCommand) Aliases() []string   { return []string{"bb", "bass"} }
func (c *BassBoostCommand) Category() string    { return config.CategoryEffects }
func (c *BassBoostCommand) Usage() string       { return "bassboost [off | low | medium | high]" }

func (c *BassBoostCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	level := defaultBassBoost
	switch len(inv.Args) {
	case 0:
	case 1:
		level = inv.Args[0]
	default:
		return usage(mc.Prefix, c.Usage())
	}
	u, err := effects.BassBoost(level)
	if err != nil {
		return err
	}
	return applyEffects(ctx, mc, "🔈 Bass boost", u)
}

type NightcoreCommand struct{}

func (c *NightcoreCommand) Name() string        { return "nightcore" }
func (c *NightcoreCommand) Description() string { return "Toggle the sped-up pitch effect" }
func (c *NightcoreCommand) Aliases() []string   { return []string{"nc", "pitch"} }
func (c *NightcoreCommand) Category() string    { return config.CategoryEffects }
func (c *NightcoreCommand) Usage() string       { return "nightcore [on | off]" }

func (c *NightcoreCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}

	var on bool
	switch {
	case len(inv.Args) == 0:
		snap, err := mc.Music.Snapshot(ctx, mc.GuildID)
		if err != nil {
			return err
		}
		on = !snap.Effects.PitchEffect
	case strings.EqualFold(inv.Args[0], "on"):
		on = true
	case strings.EqualFold(inv.Args[0], "off"):
		on = false
	default:
		return usage(mc.Prefix, c.Usage())
	}
	return applyEffects(ctx, mc, "🌙 Nightcore", effects.Pitch(on))
}
