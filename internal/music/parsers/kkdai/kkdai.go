package kkdai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/keshon/jukebox/internal/music/parsers"
	ytsource "github.com/keshon/jukebox/internal/music/sources/youtube"
	youtube "github.com/kkdai/youtube/v2"
)

// PipeStreamer downloads the audio format with the kkdai client and pipes it
// through ffmpeg for decoding.
type PipeStreamer struct {
	client *youtube.Client
	ffmpeg string
}

func NewPipeStreamer(client *youtube.Client, ffmpegPath string) *PipeStreamer {
	return &PipeStreamer{client: client, ffmpeg: ffmpegPath}
}

func (s *PipeStreamer) Name() string { return "kkdai-pipe" }

func (s *PipeStreamer) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	videoID, err := ytsource.ExtractVideoID(url)
	if err != nil {
		return nil, err
	}

	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("youtube client error: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, errors.New("no audio formats found for video")
	}

	// the body outlives the caller's request
	stream, _, err := s.client.GetStreamContext(context.WithoutCancel(ctx), video, &formats[0])
	if err != nil {
		return nil, fmt.Errorf("get stream error: %w", err)
	}

	cmd := exec.Command(s.ffmpeg, append([]string{"-i", "pipe:0"}, parsers.PCMOutputArgs()...)...)
	cmd.Stdin = stream

	reader, err := cmd.StdoutPipe()
	if err != nil {
		stream.Close()
		return nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return parsers.NewProcessStream(reader, []*exec.Cmd{cmd}, stream), nil
}
