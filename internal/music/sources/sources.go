package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	SourceYouTube = "youtube"
	SourceRadio   = "radio"
	SourceYtdlp   = "ytdlp"
)

var ErrNotFound = errors.New("no tracks found")

// Track is immutable once resolved; copies are handed around by value.
type Track struct {
	Title        string        `json:"title"`
	SourceURL    string        `json:"source_url"`
	Duration     time.Duration `json:"duration"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	RequestedBy  string        `json:"requested_by,omitempty"`
	SourceName   string        `json:"source"`
}

func (t Track) WithRequester(userID string) Track {
	t.RequestedBy = userID
	return t
}

// DurationString formats the duration as m:ss, or h:mm:ss for long tracks.
// Live streams and unknown lengths render as "live".
func (t Track) DurationString() string {
	if t.Duration <= 0 {
		return "live"
	}
	total := int(t.Duration.Round(time.Second).Seconds())
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

type Source interface {
	// Match checks if this source can handle the given input
	Match(ctx context.Context, input string) bool

	// Resolve turns a URL into a playable track
	Resolve(ctx context.Context, input string) (Track, error)

	SourceName() string
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Track, error)
}

func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Resolver tries sources in registration order for URLs and falls back to
// the searcher for free text.
type Resolver struct {
	sources  []Source
	searcher Searcher
	log      zerolog.Logger
}

func NewResolver(searcher Searcher, log zerolog.Logger, srcs ...Source) *Resolver {
	return &Resolver{sources: srcs, searcher: searcher, log: log}
}

func (r *Resolver) LookupTrack(ctx context.Context, input string) (Track, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Track{}, ErrNotFound
	}

	if !IsURL(input) {
		results, err := r.SearchTracks(ctx, input, 1)
		if err != nil {
			return Track{}, err
		}
		return results[0], nil
	}

	var errs []error
	for _, src := range r.sources {
		if !src.Match(ctx, input) {
			continue
		}
		track, err := src.Resolve(ctx, input)
		if err == nil {
			r.log.Debug().Str("source", src.SourceName()).Str("url", input).Msg("resolved track")
			return track, nil
		}
		r.log.Warn().Err(err).Str("source", src.SourceName()).Str("url", input).Msg("source failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", src.SourceName(), err))
	}

	if len(errs) == 0 {
		return Track{}, fmt.Errorf("%w: no source accepts %s", ErrNotFound, input)
	}
	return Track{}, fmt.Errorf("%w: %w", ErrNotFound, errors.Join(errs...))
}

func (r *Resolver) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit < 1 {
		return nil, ErrNotFound
	}
	if r.searcher == nil {
		return nil, fmt.Errorf("%w: search is not available", ErrNotFound)
	}

	results, err := r.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNotFound, query)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
