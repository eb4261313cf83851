package effects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 1.0, c.Volume)
	assert.Zero(t, c.Bass)
	assert.Zero(t, c.Mid)
	assert.Zero(t, c.Treble)
	assert.False(t, c.PitchEffect)
	assert.True(t, c.IsDefault())
}

func TestApplyClampsGains(t *testing.T) {
	tests := []struct {
		name   string
		update Partial
		want   Config
	}{
		{"bass above range", Equalizer(15, 0, 0), Config{Volume: 1, Bass: 10}},
		{"treble below range", Equalizer(0, 0, -42), Config{Volume: 1, Treble: -10}},
		{"in range", Equalizer(-3, 4, 7), Config{Volume: 1, Bass: -3, Mid: 4, Treble: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default().Apply(tt.update)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyRejectsVolume(t *testing.T) {
	for _, v := range []float64{0, 0.005, 2.01, -1, math.NaN()} {
		start := Default()
		got, err := start.Apply(Partial{Volume: &v})
		assert.ErrorIs(t, err, ErrVolumeOutOfRange, "volume %v", v)
		assert.Equal(t, start, got)
	}
}

func TestApplyKeepsUnsetFields(t *testing.T) {
	start := Config{Volume: 0.5, Bass: 2, Mid: 3, Treble: 4, PitchEffect: true}

	got, err := start.Apply(Volume(150))
	require.NoError(t, err)
	assert.Equal(t, Config{Volume: 1.5, Bass: 2, Mid: 3, Treble: 4, PitchEffect: true}, got)

	got, err = got.Apply(Pitch(false))
	require.NoError(t, err)
	assert.False(t, got.PitchEffect)
	assert.Equal(t, 2, got.Bass)
}

func TestVolumePercentBounds(t *testing.T) {
	_, err := Default().Apply(Volume(1))
	assert.NoError(t, err)
	_, err = Default().Apply(Volume(200))
	assert.NoError(t, err)
	_, err = Default().Apply(Volume(0))
	assert.ErrorIs(t, err, ErrVolumeOutOfRange)
}

func TestBassBoost(t *testing.T) {
	for level, want := range map[string]int{"off": 0, "LOW": 3, " medium ": 6, "high": 10} {
		p, err := BassBoost(level)
		require.NoError(t, err)
		got, err := Default().Apply(p)
		require.NoError(t, err)
		assert.Equal(t, want, got.Bass, level)
		assert.Nil(t, p.Mid)
	}

	_, err := BassBoost("extreme")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestIsDefaultVolumeOnly(t *testing.T) {
	c, err := Default().Apply(Volume(80))
	require.NoError(t, err)
	assert.False(t, c.IsDefault())
	assert.Equal(t, FilterParams{}, c.FilterParams())
}
