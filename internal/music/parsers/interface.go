// Package parsers turns a track URL into raw PCM (s16le, 48kHz, stereo)
// by driving external tools. Each Streamer is one extraction strategy.
package parsers

import (
	"context"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz
)

type Streamer interface {
	Name() string
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// PCMOutputArgs are the ffmpeg output flags every parser ends with.
func PCMOutputArgs() []string {
	return []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "warning",
		"pipe:1",
	}
}

// ProcessStream is the stdout of a process chain. Close kills every process
// in the chain and releases the extra closers (upstream readers).
type ProcessStream struct {
	io.ReadCloser
	cmds   []*exec.Cmd
	extra  []io.Closer
	closed sync.Once
}

func NewProcessStream(out io.ReadCloser, cmds []*exec.Cmd, extra ...io.Closer) *ProcessStream {
	return &ProcessStream{ReadCloser: out, cmds: cmds, extra: extra}
}

func (p *ProcessStream) Close() error {
	p.closed.Do(func() {
		_ = p.ReadCloser.Close()
		for _, c := range p.extra {
			_ = c.Close()
		}
		for _, cmd := range p.cmds {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			}
		}
	})
	return nil
}
