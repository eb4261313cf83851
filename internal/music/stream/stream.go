package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/keshon/jukebox/internal/music/parsers"
	"github.com/rs/zerolog"
)

const defaultStartTimeout = 20 * time.Second

var (
	ErrEmptyStream  = errors.New("stream ended before any audio")
	ErrStartTimeout = errors.New("no audio within start timeout")
)

type route struct {
	match func(url string) bool
	chain []parsers.Streamer
}

// Fetcher opens a track URL by trying each parser of the matching chain in
// order until one yields audio.
type Fetcher struct {
	routes       []route
	fallback     []parsers.Streamer
	startTimeout time.Duration
	log          zerolog.Logger
}

func NewFetcher(log zerolog.Logger, fallback ...parsers.Streamer) *Fetcher {
	return &Fetcher{
		fallback:     fallback,
		startTimeout: defaultStartTimeout,
		log:          log,
	}
}

// Route sends URLs accepted by match to chain instead of the fallback chain.
func (f *Fetcher) Route(match func(url string) bool, chain ...parsers.Streamer) *Fetcher {
	f.routes = append(f.routes, route{match: match, chain: chain})
	return f
}

func (f *Fetcher) SetStartTimeout(d time.Duration) {
	f.startTimeout = d
}

func (f *Fetcher) chainFor(url string) []parsers.Streamer {
	for _, r := range f.routes {
		if r.match(url) {
			return r.chain
		}
	}
	return f.fallback
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	chain := f.chainFor(url)
	if len(chain) == 0 {
		return nil, fmt.Errorf("no parsers for %s", url)
	}

	var errs []error
	for _, p := range chain {
		rc, err := p.Open(ctx, url)
		if err == nil {
			rc, err = awaitFirstByte(ctx, rc, f.startTimeout)
		}
		if err == nil {
			f.log.Debug().Str("parser", p.Name()).Str("url", url).Msg("stream opened")
			return rc, nil
		}
		f.log.Warn().Err(err).Str("parser", p.Name()).Str("url", url).Msg("parser failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return nil, fmt.Errorf("all parsers failed for %s: %w", url, errors.Join(errs...))
}

type startedStream struct {
	*bufio.Reader
	io.Closer
}

// awaitFirstByte waits for the first byte so a process that starts but produces no
// audio counts as a failed open.
func awaitFirstByte(ctx context.Context, rc io.ReadCloser, timeout time.Duration) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(rc, 64*1024)
	peeked := make(chan error, 1)
	go func() {
		_, err := br.Peek(1)
		peeked <- err
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-peeked:
		if err != nil {
			rc.Close()
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyStream
			}
			return nil, err
		}
		return &startedStream{Reader: br, Closer: rc}, nil
	case <-timer.C:
		rc.Close()
		<-peeked
		return nil, ErrStartTimeout
	case <-ctx.Done():
		rc.Close()
		<-peeked
		return nil, ctx.Err()
	}
}
