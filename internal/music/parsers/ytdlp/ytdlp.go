package ytdlp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/keshon/jukebox/internal/music/parsers"
	ytdlp "github.com/lrstanley/go-ytdlp"
)

type Options struct {
	FFmpegPath  string
	CookiesFile string
	Proxy       string
}

// PipeStreamer runs `yt-dlp -o -` and feeds its output into ffmpeg.
type PipeStreamer struct {
	opts Options
}

func NewPipeStreamer(opts Options) *PipeStreamer {
	return &PipeStreamer{opts: opts}
}

func (s *PipeStreamer) Name() string { return "ytdlp-pipe" }

func (s *PipeStreamer) downloadArgs(url string) []string {
	var args []string
	if s.opts.CookiesFile != "" {
		args = append(args, "--cookies", s.opts.CookiesFile)
	}
	return append(args, url)
}

func (s *PipeStreamer) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	dl := ytdlp.New().
		Format("bestaudio[ext=webm]/bestaudio/best").
		Output("-").
		NoSimulate().
		NoPart().
		NoPlaylist().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if s.opts.Proxy != "" {
		dl.Proxy(s.opts.Proxy)
	}

	// the processes live as long as the returned stream, not the request
	ytCmd := dl.BuildCommand(context.WithoutCancel(ctx), s.downloadArgs(url)...)
	ffCmd := exec.Command(s.opts.FFmpegPath, append([]string{"-i", "pipe:0"}, parsers.PCMOutputArgs()...)...)

	pipeR, pipeW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe error: %w", err)
	}
	defer pipeR.Close()
	defer pipeW.Close()
	ytCmd.Stdout = pipeW
	ffCmd.Stdin = pipeR

	reader, err := ffCmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}

	if err := ytCmd.Start(); err != nil {
		return nil, fmt.Errorf("yt-dlp start error: %w", err)
	}
	if err := ffCmd.Start(); err != nil {
		_ = ytCmd.Process.Kill()
		_ = ytCmd.Wait()
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return parsers.NewProcessStream(reader, []*exec.Cmd{ffCmd, ytCmd}), nil
}
