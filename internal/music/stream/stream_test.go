package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamer struct {
	name   string
	data   string
	err    error
	block  bool
	opened []string
}

type blockingReader struct{ done chan struct{} }

func (b *blockingReader) Read([]byte) (int, error) {
	<-b.done
	return 0, io.EOF
}

func (b *blockingReader) Close() error {
	close(b.done)
	return nil
}

func (f *fakeStreamer) Name() string { return f.name }

func (f *fakeStreamer) Open(_ context.Context, url string) (io.ReadCloser, error) {
	f.opened = append(f.opened, url)
	if f.err != nil {
		return nil, f.err
	}
	if f.block {
		return &blockingReader{done: make(chan struct{})}, nil
	}
	return io.NopCloser(strings.NewReader(f.data)), nil
}

func TestFetchFirstWorkingParser(t *testing.T) {
	broken := &fakeStreamer{name: "broken", err: errors.New("403")}
	empty := &fakeStreamer{name: "empty"}
	good := &fakeStreamer{name: "good", data: "pcm-bytes"}
	f := NewFetcher(zerolog.Nop(), broken, empty, good)

	rc, err := f.Fetch(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pcm-bytes", string(b))
	assert.Len(t, broken.opened, 1)
	assert.Len(t, empty.opened, 1)
}

func TestFetchAllFail(t *testing.T) {
	a := &fakeStreamer{name: "a", err: errors.New("boom")}
	b := &fakeStreamer{name: "b"}
	f := NewFetcher(zerolog.Nop(), a, b)

	_, err := f.Fetch(context.Background(), "https://example.com/a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyStream)
	assert.Contains(t, err.Error(), "a: boom")
}

func TestFetchRoutes(t *testing.T) {
	yt := &fakeStreamer{name: "yt", data: "x"}
	other := &fakeStreamer{name: "other", data: "y"}
	f := NewFetcher(zerolog.Nop(), other).
		Route(func(u string) bool { return strings.Contains(u, "youtube.com") }, yt)

	_, err := f.Fetch(context.Background(), "https://youtube.com/watch?v=1")
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "https://radio.example/stream")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://youtube.com/watch?v=1"}, yt.opened)
	assert.Equal(t, []string{"https://radio.example/stream"}, other.opened)
}

func TestFetchStartTimeout(t *testing.T) {
	f := NewFetcher(zerolog.Nop(), &fakeStreamer{name: "silent", block: true})
	f.SetStartTimeout(10 * time.Millisecond)

	_, err := f.Fetch(context.Background(), "https://example.com/a")
	assert.ErrorIs(t, err, ErrStartTimeout)
}

func TestFilterChain(t *testing.T) {
	tests := []struct {
		name string
		in   effects.FilterParams
		want string
	}{
		{"volume only", effects.FilterParams{}, "anull"},
		{"pitch", effects.FilterParams{PitchEffect: true}, "asetrate=48000*1.25,aresample=48000"},
		{
			"eq",
			effects.FilterParams{Bass: 6},
			"equalizer=f=100:width_type=o:width=2:g=6,equalizer=f=1000:width_type=o:width=2:g=0,equalizer=f=8000:width_type=o:width=2:g=0",
		},
		{
			"pitch then eq",
			effects.FilterParams{Bass: -2, Mid: 3, Treble: 10, PitchEffect: true},
			"asetrate=48000*1.25,aresample=48000," +
				"equalizer=f=100:width_type=o:width=2:g=-2,equalizer=f=1000:width_type=o:width=2:g=3,equalizer=f=8000:width_type=o:width=2:g=10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterChain(tt.in))
		})
	}
}

func TestFilterGraphArgs(t *testing.T) {
	g := NewFilterGraph("ffmpeg")
	args := strings.Join(g.Args(effects.FilterParams{PitchEffect: true}), " ")
	assert.Equal(t,
		"-f s16le -ar 48000 -ac 2 -i pipe:0 -af asetrate=48000*1.25,aresample=48000 -f s16le -ar 48000 -ac 2 -loglevel warning pipe:1",
		args)
}

func TestFilterGraphStartFailureClosesInput(t *testing.T) {
	g := NewFilterGraph("/nonexistent/ffmpeg-binary")
	in := &blockingReader{done: make(chan struct{})}

	_, err := g.Apply(context.Background(), in, effects.FilterParams{})
	require.Error(t, err)

	select {
	case <-in.done:
	default:
		t.Fatal("input was not closed")
	}
}

func TestDecodePCM(t *testing.T) {
	src := make([]byte, 6)
	binary.LittleEndian.PutUint16(src[0:], uint16(1000))
	minusOne := int16(-1)
	binary.LittleEndian.PutUint16(src[2:], uint16(minusOne))
	binary.LittleEndian.PutUint16(src[4:], uint16(32767))

	dst := make([]int16, 3)
	DecodePCM(src, dst)
	assert.Equal(t, []int16{1000, -1, 32767}, dst)
}

func TestApplyVolume(t *testing.T) {
	samples := []int16{1000, -1000, 30000, -30000}
	ApplyVolume(samples, 2)
	assert.Equal(t, []int16{2000, -2000, 32767, -32768}, samples)

	samples = []int16{1000, -1001}
	ApplyVolume(samples, 0.5)
	assert.Equal(t, []int16{500, -501}, samples)

	samples = []int16{123}
	ApplyVolume(samples, 1)
	assert.Equal(t, []int16{123}, samples)
}
