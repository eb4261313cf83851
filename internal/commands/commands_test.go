package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMusic struct {
	snap     player.Snapshot
	pos      int
	enqueued []player.Request
	updates  []effects.Partial
	loop     player.LoopMode
	shuffled bool
	err      error
}

func (m *fakeMusic) Enqueue(_ context.Context, _ string, req player.Request) (int, error) {
	m.enqueued = append(m.enqueued, req)
	return m.pos, m.err
}

func (m *fakeMusic) Skip(context.Context, string) (sources.Track, error) {
	if m.snap.Current == nil {
		return sources.Track{}, player.ErrNothingPlaying
	}
	return *m.snap.Current, nil
}

func (m *fakeMusic) Stop(context.Context, string) error { return m.err }

func (m *fakeMusic) SetEffects(_ context.Context, _ string, u effects.Partial) (effects.Config, error) {
	m.updates = append(m.updates, u)
	return m.snap.Effects.Apply(u)
}

func (m *fakeMusic) SetLoopMode(_ context.Context, _ string, mode player.LoopMode) error {
	m.loop = mode
	return nil
}

func (m *fakeMusic) ToggleLoopMode(context.Context, string) (player.LoopMode, error) {
	m.loop = m.loop.Next()
	return m.loop, nil
}

func (m *fakeMusic) Shuffle(context.Context, string) error {
	m.shuffled = true
	return nil
}

func (m *fakeMusic) ClearQueue(context.Context, string) (int, error) {
	n := len(m.snap.Queue)
	m.snap.Queue = nil
	return n, nil
}

func (m *fakeMusic) Snapshot(context.Context, string) (player.Snapshot, error) {
	return m.snap, nil
}

func (m *fakeMusic) BeginSearch(context.Context, session.SearchRequest) (*session.Search, error) {
	return nil, sources.ErrNotFound
}

type replies struct {
	embeds []*discordgo.MessageEmbed
}

func (r *replies) Reply(_ string, e *discordgo.MessageEmbed) error {
	r.embeds = append(r.embeds, e)
	return nil
}

func (r *replies) last() *discordgo.MessageEmbed {
	if len(r.embeds) == 0 {
		return nil
	}
	return r.embeds[len(r.embeds)-1]
}

type voice string

func (v voice) UserVoiceChannel(string, string) (string, error) { return string(v), nil }

type lookup struct{}

func (lookup) LookupTrack(_ context.Context, input string) (sources.Track, error) {
	if input == "missing" {
		return sources.Track{}, sources.ErrNotFound
	}
	return sources.Track{Title: input, SourceURL: "https://example.com/" + input}, nil
}

type history struct {
	records []storage.CommandHistoryRecord
}

func (h *history) AppendCommandToHistory(_ string, rec storage.CommandHistoryRecord) error {
	h.records = append(h.records, rec)
	return nil
}

type fixture struct {
	music   *fakeMusic
	replies *replies
	history *history
	reg     *cmd.Registry
	ctx     *Context
}

func newFixture() *fixture {
	f := &fixture{
		music:   &fakeMusic{snap: player.Snapshot{Effects: effects.Default()}},
		replies: &replies{},
		history: &history{},
		reg:     cmd.NewRegistry(),
	}
	Register(f.reg, f.history)
	f.ctx = &Context{
		GuildID:   "g1",
		ChannelID: "text",
		UserID:    "u1",
		Username:  "alice",
		Music:     f.music,
		Lookup:    lookup{},
		Replier:   f.replies,
		Voice:     voice("voice"),
		Registry:  f.reg,
		Prefix:    "!",
		Log:       zerolog.Nop(),
	}
	return f
}

func (f *fixture) run(t *testing.T, line string) error {
	t.Helper()
	name, inv, ok := cmd.Parse(f.ctx.Prefix, line)
	require.True(t, ok)
	c := f.reg.Get(name)
	require.NotNil(t, c, "command %q not registered", name)
	inv.Data = f.ctx
	return c.Run(context.Background(), inv)
}

func TestPlayEnqueuesWithRequester(t *testing.T) {
	f := newFixture()
	f.music.pos = 2

	require.NoError(t, f.run(t, "!play lofi beats"))
	require.Len(t, f.music.enqueued, 1)
	req := f.music.enqueued[0]
	assert.Equal(t, "lofi beats", req.Track.Title)
	assert.Equal(t, "u1", req.Track.RequestedBy)
	assert.Equal(t, "voice", req.VoiceChannelID)
	assert.Equal(t, "text", req.NotifyChannelID)
	require.NotNil(t, f.replies.last())
	assert.Contains(t, f.replies.last().Footer.Text, "#2")
}

func TestPlayStartingNowStaysQuiet(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!p song"))
	assert.Empty(t, f.replies.embeds)
}

func TestPlayErrors(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.run(t, "!play"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "!play missing"), sources.ErrNotFound)

	f.ctx.Voice = voice("")
	assert.ErrorIs(t, f.run(t, "!play song"), ErrNotInVoice)
	assert.Empty(t, f.music.enqueued)
}

func TestGuildOnly(t *testing.T) {
	f := newFixture()
	f.ctx.GuildID = ""
	assert.ErrorIs(t, f.run(t, "!queue"), ErrGuildOnly)
}

func TestCommandHistoryRecorded(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!PLAY some song"))
	require.Len(t, f.history.records, 1)
	rec := f.history.records[0]
	assert.Equal(t, "play", rec.Command)
	assert.Equal(t, "some song", rec.Param)
	assert.Equal(t, "alice", rec.Username)
}

func TestSkipNothingPlaying(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.run(t, "!skip"), player.ErrNothingPlaying)

	f.music.snap.Current = &sources.Track{Title: "now"}
	require.NoError(t, f.run(t, "!next"))
	assert.Contains(t, f.replies.last().Description, "now")
}

func TestLoopCommand(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!loop queue"))
	assert.Equal(t, player.LoopQueue, f.music.loop)

	require.NoError(t, f.run(t, "!loop"))
	assert.Equal(t, player.LoopNone, f.music.loop)

	assert.ErrorIs(t, f.run(t, "!loop sideways"), ErrUsage)
}

func TestQueueCommands(t *testing.T) {
	f := newFixture()
	f.music.snap.Queue = []sources.Track{{Title: "a"}, {Title: "b"}}

	require.NoError(t, f.run(t, "!queue"))
	assert.Contains(t, f.replies.last().Description, "`2.`")

	require.NoError(t, f.run(t, "!shuffle"))
	assert.True(t, f.music.shuffled)

	require.NoError(t, f.run(t, "!clear"))
	assert.Contains(t, f.replies.last().Description, "Removed 2")
}

func TestVolumeCommand(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!volume 150%"))
	require.Len(t, f.music.updates, 1)
	assert.InDelta(t, 1.5, *f.music.updates[0].Volume, 1e-9)
	assert.Contains(t, f.replies.last().Description, "150%")

	assert.ErrorIs(t, f.run(t, "!vol loud"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "!vol 500"), effects.ErrVolumeOutOfRange)

	require.NoError(t, f.run(t, "!vol"))
	assert.Len(t, f.music.updates, 2)
}

func TestEqualizerCommand(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!eq 3 -2 20"))
	fx := f.replies.last().Description
	assert.Contains(t, fx, "Bass: **+3**")
	assert.Contains(t, fx, "Treble: **+10**")

	require.NoError(t, f.run(t, "!eq reset"))
	assert.ErrorIs(t, f.run(t, "!eq 1 2"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "!eq a b c"), ErrUsage)
}

func TestBassBoostAndNightcore(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!bassboost HIGH"))
	assert.Equal(t, 10, *f.music.updates[0].Bass)
	assert.ErrorIs(t, f.run(t, "!bb extreme"), effects.ErrUnknownPreset)
	assert.ErrorIs(t, f.run(t, "!bb low high"), ErrUsage)

	require.NoError(t, f.run(t, "!nightcore"))
	assert.True(t, *f.music.updates[1].PitchEffect)

	f.music.snap.Effects.PitchEffect = true
	require.NoError(t, f.run(t, "!nc"))
	assert.False(t, *f.music.updates[2].PitchEffect)
}

func TestBassBoostDefaultsToMedium(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!bassboost"))
	require.Len(t, f.music.updates, 1)
	assert.Equal(t, 6, *f.music.updates[0].Bass)
	assert.Contains(t, f.replies.last().Description, "Bass: **+6**")
}

func TestHelpGroupsByCategory(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "!help"))
	out := f.replies.last().Description

	info := strings.Index(out, config.CategoryInformation)
	playback := strings.Index(out, config.CategoryPlayback)
	fx := strings.Index(out, config.CategoryEffects)
	require.True(t, info >= 0 && playback > info && fx > playback, out)
	assert.Contains(t, out, "`!play <url | search terms>`")
	assert.Contains(t, out, "(p, add)")
}

func TestErrorEmbed(t *testing.T) {
	e := ErrorEmbed(usage("!", "loop [none | track | queue]"))
	assert.Equal(t, "🎵 Error: Usage: `!loop [none | track | queue]`", e.Description)

	e = ErrorEmbed(errors.New("boom"))
	assert.Equal(t, "🎵 Error: boom", e.Description)
	assert.Equal(t, ErrorColor, e.Color)
}

func TestQueueDescriptionTruncates(t *testing.T) {
	var s player.Snapshot
	for range queuePreview + 3 {
		s.Queue = append(s.Queue, sources.Track{Title: "t"})
	}
	out := QueueDescription(s)
	assert.Contains(t, out, "...and 3 more")
	assert.NotContains(t, out, "`11.`")
	assert.Equal(t, "Queue is empty.", QueueDescription(player.Snapshot{}))
}
