package sources

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name   string
	prefix string
	track  Track
	err    error
	calls  int
}

func (f *fakeSource) Match(_ context.Context, input string) bool {
	return strings.HasPrefix(input, f.prefix)
}

func (f *fakeSource) Resolve(_ context.Context, input string) (Track, error) {
	f.calls++
	if f.err != nil {
		return Track{}, f.err
	}
	t := f.track
	t.SourceURL = input
	return t, nil
}

func (f *fakeSource) SourceName() string { return f.name }

type fakeSearcher struct {
	results []Track
	err     error
	query   string
	limit   int
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]Track, error) {
	f.query, f.limit = query, limit
	return f.results, f.err
}

func TestLookupTrackURL(t *testing.T) {
	yt := &fakeSource{name: "yt", prefix: "https://youtube.com", track: Track{Title: "video"}}
	generic := &fakeSource{name: "generic", prefix: "https://", track: Track{Title: "generic"}}
	r := NewResolver(nil, zerolog.Nop(), yt, generic)

	got, err := r.LookupTrack(context.Background(), " https://youtube.com/watch?v=abc ")
	require.NoError(t, err)
	assert.Equal(t, "video", got.Title)
	assert.Equal(t, "https://youtube.com/watch?v=abc", got.SourceURL)
	assert.Equal(t, 0, generic.calls)
}

func TestLookupTrackFallsThrough(t *testing.T) {
	yt := &fakeSource{name: "yt", prefix: "https://youtube.com", err: errors.New("blocked")}
	generic := &fakeSource{name: "generic", prefix: "https://", track: Track{Title: "generic"}}
	r := NewResolver(nil, zerolog.Nop(), yt, generic)

	got, err := r.LookupTrack(context.Background(), "https://youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "generic", got.Title)
	assert.Equal(t, 1, yt.calls)
}

func TestLookupTrackNotFound(t *testing.T) {
	failing := &fakeSource{name: "generic", prefix: "https://", err: errors.New("404")}
	r := NewResolver(nil, zerolog.Nop(), failing)

	_, err := r.LookupTrack(context.Background(), "https://example.com/x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.LookupTrack(context.Background(), "ftp://nothing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.LookupTrack(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupTrackQueryUsesSearch(t *testing.T) {
	s := &fakeSearcher{results: []Track{{Title: "first"}, {Title: "second"}}}
	r := NewResolver(s, zerolog.Nop())

	got, err := r.LookupTrack(context.Background(), "never gonna")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, "never gonna", s.query)
	assert.Equal(t, 1, s.limit)
}

func TestSearchTracks(t *testing.T) {
	s := &fakeSearcher{results: []Track{{Title: "a"}, {Title: "b"}, {Title: "c"}}}
	r := NewResolver(s, zerolog.Nop())

	got, err := r.SearchTracks(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	s.results = nil
	_, err = r.SearchTracks(context.Background(), "q", 2)
	assert.ErrorIs(t, err, ErrNotFound)

	s.err = errors.New("yt-dlp missing")
	_, err = r.SearchTracks(context.Background(), "q", 2)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestTrackDurationString(t *testing.T) {
	tests := map[time.Duration]string{
		0:                             "live",
		59 * time.Second:              "0:59",
		3*time.Minute + 7*time.Second: "3:07",
		time.Hour + 2*time.Minute + 3*time.Second: "1:02:03",
	}
	for d, want := range tests {
		assert.Equal(t, want, Track{Duration: d}.DurationString())
	}
}

func TestTrackWithRequester(t *testing.T) {
	orig := Track{Title: "song"}
	withReq := orig.WithRequester("u1")
	assert.Equal(t, "u1", withReq.RequestedBy)
	assert.Empty(t, orig.RequestedBy)
}
