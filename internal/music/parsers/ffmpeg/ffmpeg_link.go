package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/keshon/jukebox/internal/music/parsers"
)

// LinkStreamer lets ffmpeg read the URL directly. Suits radio streams and
// plain audio files.
type LinkStreamer struct {
	ffmpeg string
}

func NewLinkStreamer(ffmpegPath string) *LinkStreamer {
	return &LinkStreamer{ffmpeg: ffmpegPath}
}

func (s *LinkStreamer) Name() string { return "ffmpeg-link" }

func (s *LinkStreamer) Args(url string) []string {
	return append([]string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
	}, parsers.PCMOutputArgs()...)
}

func (s *LinkStreamer) Open(_ context.Context, url string) (io.ReadCloser, error) {
	cmd := exec.Command(s.ffmpeg, s.Args(url)...)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return parsers.NewProcessStream(reader, []*exec.Cmd{cmd}), nil
}
