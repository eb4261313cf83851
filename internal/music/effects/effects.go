// Package effects holds the per-guild audio effect settings and the rules for
// changing them.
package effects

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	DefaultVolume = 1.0
	MinVolume     = 0.01
	MaxVolume     = 2.0

	MinGain = -10
	MaxGain = 10
)

var (
	ErrVolumeOutOfRange = errors.New("volume out of range")
	ErrUnknownPreset    = errors.New("unknown bass boost preset")
)

// Config is a value object; every update produces a new Config.
type Config struct {
	Volume      float64 `json:"volume"`
	Bass        int     `json:"bass"`
	Mid         int     `json:"mid"`
	Treble      int     `json:"treble"`
	PitchEffect bool    `json:"pitch_effect"`
}

// FilterParams is the part of a Config the filter graph cares about.
// Volume is applied by the playback device, not by the graph.
type FilterParams struct {
	Bass        int
	Mid         int
	Treble      int
	PitchEffect bool
}

func Default() Config {
	return Config{Volume: DefaultVolume}
}

func (c Config) IsDefault() bool {
	return c == Default()
}

func (c Config) FilterParams() FilterParams {
	return FilterParams{
		Bass:        c.Bass,
		Mid:         c.Mid,
		Treble:      c.Treble,
		PitchEffect: c.PitchEffect,
	}
}

func (c Config) String() string {
	pitch := "off"
	if c.PitchEffect {
		pitch = "on"
	}
	return fmt.Sprintf("volume=%d%% eq=%d/%d/%d nightcore=%s",
		int(math.Round(c.Volume*100)), c.Bass, c.Mid, c.Treble, pitch)
}

// Partial is a sparse update; nil fields keep their current value.
type Partial struct {
	Volume      *float64
	Bass        *int
	Mid         *int
	Treble      *int
	PitchEffect *bool
}

// Apply validates p against c and returns the merged configuration.
// Volume outside [MinVolume, MaxVolume] is rejected, gains are clamped.
func (c Config) Apply(p Partial) (Config, error) {
	next := c
	if p.Volume != nil {
		v := *p.Volume
		if math.IsNaN(v) || v < MinVolume || v > MaxVolume {
			return c, fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrVolumeOutOfRange, v, MinVolume, MaxVolume)
		}
		next.Volume = v
	}
	if p.Bass != nil {
		next.Bass = clampGain(*p.Bass)
	}
	if p.Mid != nil {
		next.Mid = clampGain(*p.Mid)
	}
	if p.Treble != nil {
		next.Treble = clampGain(*p.Treble)
	}
	if p.PitchEffect != nil {
		next.PitchEffect = *p.PitchEffect
	}
	return next, nil
}

func clampGain(g int) int {
	return min(max(g, MinGain), MaxGain)
}

// Volume builds an update from a percentage, 100 being unity gain.
func Volume(percent int) Partial {
	v := float64(percent) / 100
	return Partial{Volume: &v}
}

func Equalizer(bass, mid, treble int) Partial {
	return Partial{Bass: &bass, Mid: &mid, Treble: &treble}
}

func Pitch(on bool) Partial {
	return Partial{PitchEffect: &on}
}

var bassBoostPresets = map[string]int{
	"off":    0,
	"low":    3,
	"medium": 6,
	"high":   10,
}

// BassBoost maps a named preset to a bass-only update.
func BassBoost(level string) (Partial, error) {
	gain, ok := bassBoostPresets[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return Partial{}, fmt.Errorf("%w: %q (use off, low, medium or high)", ErrUnknownPreset, level)
	}
	return Partial{Bass: &gain}, nil
}
