// Package ytdlp resolves and searches tracks through the yt-dlp binary. It is
// the catch-all source for every site yt-dlp understands.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/pkg/retrylimit"
	ytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"
)

const (
	searchFormat   = "%(id)s\t%(url)s\t%(title)s\t%(duration)s"
	metadataFormat = "%(title)s\t%(duration)s\t%(thumbnail)s\t%(webpage_url)s"
)

type Options struct {
	CookiesFile string
	Proxy       string
	Logger      zerolog.Logger
}

type Source struct {
	opts    Options
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
	log     zerolog.Logger
}

func New(opts Options) *Source {
	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = 3
	retry.InitialDelay = time.Second
	retry.Logger = opts.Logger

	return &Source{
		opts:    opts,
		limiter: retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		retry:   retry,
		log:     opts.Logger,
	}
}

func (s *Source) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if s.opts.Proxy != "" {
		cmd.Proxy(s.opts.Proxy)
	}
	return cmd
}

func (s *Source) baseArgs() []string {
	if s.opts.CookiesFile == "" {
		return nil
	}
	return []string{"--cookies", s.opts.CookiesFile}
}

func (s *Source) Match(_ context.Context, input string) bool {
	return sources.IsURL(input)
}

func (s *Source) Resolve(ctx context.Context, input string) (sources.Track, error) {
	var track sources.Track
	err := retrylimit.WithRetryConfig(ctx, func() error {
		res, err := s.command().
			Print(metadataFormat).
			SkipDownload().
			NoPlaylist().
			Run(ctx, append(s.baseArgs(), input)...)
		if err != nil {
			return classify(err, res)
		}
		track, err = parseMetadata(res.Stdout)
		if err != nil {
			return retrylimit.Fatal(err)
		}
		return nil
	}, s.limiter, s.retry)
	if err != nil {
		return sources.Track{}, fmt.Errorf("yt-dlp metadata for %s: %w", input, err)
	}
	if track.SourceURL == "" {
		track.SourceURL = input
	}
	return track, nil
}

// Search runs a ytsearch query and returns at most limit ranked tracks.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]sources.Track, error) {
	var tracks []sources.Track
	err := retrylimit.WithRetryConfig(ctx, func() error {
		res, err := s.command().
			FlatPlaylist().
			Print(searchFormat).
			PlaylistItems(fmt.Sprintf("1-%d", limit)).
			Run(ctx, append(s.baseArgs(), fmt.Sprintf("ytsearch%d:%s", limit, query))...)
		if err != nil {
			return classify(err, res)
		}
		tracks = parseSearchOutput(res.Stdout)
		return nil
	}, s.limiter, s.retry)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("query", query).Int("results", len(tracks)).Msg("search finished")
	return tracks, nil
}

func (s *Source) SourceName() string {
	return sources.SourceYtdlp
}

var errUnsupported = errors.New("unsupported url")

// classify turns permanent extractor failures into fatal errors so they are
// not retried.
func classify(err error, res *ytdlp.Result) error {
	if res == nil {
		return err
	}
	stderr := strings.ToLower(res.Stderr)
	switch {
	case strings.Contains(stderr, "unsupported url"):
		return retrylimit.Fatal(fmt.Errorf("%w: %s", errUnsupported, strings.TrimSpace(res.Stderr)))
	case strings.Contains(stderr, "video unavailable"),
		strings.Contains(stderr, "private video"),
		strings.Contains(stderr, "drm"):
		return retrylimit.Fatal(fmt.Errorf("%w: %s", err, strings.TrimSpace(res.Stderr)))
	}
	return err
}

func parseSearchOutput(out string) []sources.Track {
	var tracks []sources.Track
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 || parts[2] == "" || parts[2] == "NA" {
			continue
		}
		id, link := parts[0], parts[1]
		track := sources.Track{
			Title:      parts[2],
			SourceURL:  link,
			Duration:   parseSeconds(parts[3]),
			SourceName: sources.SourceYtdlp,
		}
		if id != "" && id != "NA" {
			track.SourceURL = "https://www.youtube.com/watch?v=" + id
			track.ThumbnailURL = "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
			track.SourceName = sources.SourceYouTube
		}
		if track.SourceURL == "" || track.SourceURL == "NA" {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks
}

func parseMetadata(out string) (sources.Track, error) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}
		track := sources.Track{
			Title:      parts[0],
			Duration:   parseSeconds(parts[1]),
			SourceName: sources.SourceYtdlp,
		}
		if parts[2] != "NA" {
			track.ThumbnailURL = parts[2]
		}
		if parts[3] != "NA" {
			track.SourceURL = parts[3]
		}
		return track, nil
	}
	return sources.Track{}, errors.New("no metadata in yt-dlp output")
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
