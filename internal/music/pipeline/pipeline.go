// Package pipeline turns a track and an effect configuration into a
// ready-to-play audio resource.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/rs/zerolog"
)

var ErrStreamUnavailable = errors.New("stream unavailable")

type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, error)
}

type FilterGraph interface {
	Apply(ctx context.Context, in io.ReadCloser, params effects.FilterParams) (io.ReadCloser, error)
}

// Resource is PCM audio for one track, built with Effects. Volume is the
// gain the playback device applies on top.
type Resource struct {
	io.ReadCloser
	Track    sources.Track
	Effects  effects.Config
	Volume   float64
	Filtered bool
}

type Builder struct {
	fetcher Fetcher
	graph   FilterGraph
	log     zerolog.Logger
}

func NewBuilder(fetcher Fetcher, graph FilterGraph, log zerolog.Logger) *Builder {
	return &Builder{fetcher: fetcher, graph: graph, log: log}
}

// Build fetches the track once. Any failure is reported as
// ErrStreamUnavailable; retrying is the caller's business.
func (b *Builder) Build(ctx context.Context, track sources.Track, fx effects.Config) (*Resource, error) {
	raw, err := b.fetcher.Fetch(ctx, track.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrStreamUnavailable, track.Title, err)
	}

	res := &Resource{
		ReadCloser: raw,
		Track:      track,
		Effects:    fx,
		Volume:     fx.Volume,
	}
	if fx.IsDefault() {
		return res, nil
	}

	filtered, err := b.graph.Apply(ctx, raw, fx.FilterParams())
	if err != nil {
		return nil, fmt.Errorf("%w: filter graph for %q: %w", ErrStreamUnavailable, track.Title, err)
	}
	b.log.Debug().Str("track", track.Title).Stringer("effects", fx).Msg("filter graph attached")

	res.ReadCloser = filtered
	res.Filtered = true
	return res, nil
}
