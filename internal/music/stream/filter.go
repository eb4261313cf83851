package stream

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/parsers"
)

const (
	pitchRatio = "1.25"
	eqWidth    = "width_type=o:width=2"
)

var eqBands = [3]int{100, 1000, 8000}

// FilterChain renders the ffmpeg -af expression for p. Pitch runs before
// the equalizer. An empty chain becomes anull.
func FilterChain(p effects.FilterParams) string {
	var filters []string
	if p.PitchEffect {
		rate := strconv.Itoa(parsers.SampleRate)
		filters = append(filters, "asetrate="+rate+"*"+pitchRatio, "aresample="+rate)
	}
	if p.Bass != 0 || p.Mid != 0 || p.Treble != 0 {
		for i, gain := range [3]int{p.Bass, p.Mid, p.Treble} {
			filters = append(filters, fmt.Sprintf("equalizer=f=%d:%s:g=%d", eqBands[i], eqWidth, gain))
		}
	}
	if len(filters) == 0 {
		return "anull"
	}
	return strings.Join(filters, ",")
}

// FilterGraph reshapes a PCM stream with an ffmpeg filter process.
type FilterGraph struct {
	ffmpeg string
}

func NewFilterGraph(ffmpegPath string) *FilterGraph {
	return &FilterGraph{ffmpeg: ffmpegPath}
}

func (g *FilterGraph) Args(p effects.FilterParams) []string {
	args := []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(parsers.SampleRate),
		"-ac", strconv.Itoa(parsers.Channels),
		"-i", "pipe:0",
		"-af", FilterChain(p),
	}
	return append(args, parsers.PCMOutputArgs()...)
}

// Apply takes ownership of in; closing the result closes in as well.
func (g *FilterGraph) Apply(_ context.Context, in io.ReadCloser, p effects.FilterParams) (io.ReadCloser, error) {
	cmd := exec.Command(g.ffmpeg, g.Args(p)...)
	cmd.Stdin = in

	out, err := cmd.StdoutPipe()
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("filter stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		in.Close()
		return nil, fmt.Errorf("filter start error: %w", err)
	}

	return parsers.NewProcessStream(out, []*exec.Cmd{cmd}, in), nil
}
