package youtube

import (
	"context"
	"fmt"

	"github.com/keshon/jukebox/internal/music/sources"
	youtube "github.com/kkdai/youtube/v2"
)

// Source resolves YouTube video links through the kkdai client.
type Source struct {
	client *youtube.Client
}

func New(client *youtube.Client) *Source {
	return &Source{client: client}
}

func (y *Source) Match(_ context.Context, input string) bool {
	_, err := ExtractVideoID(input)
	return err == nil
}

func (y *Source) Resolve(ctx context.Context, input string) (sources.Track, error) {
	id, err := ExtractVideoID(input)
	if err != nil {
		return sources.Track{}, err
	}

	video, err := y.client.GetVideoContext(ctx, id)
	if err != nil {
		return sources.Track{}, fmt.Errorf("youtube video %s: %w", id, err)
	}

	track := sources.Track{
		Title:      video.Title,
		SourceURL:  "https://www.youtube.com/watch?v=" + id,
		Duration:   video.Duration,
		SourceName: sources.SourceYouTube,
	}
	if n := len(video.Thumbnails); n > 0 {
		track.ThumbnailURL = video.Thumbnails[n-1].URL
	}
	return track, nil
}

func (y *Source) SourceName() string {
	return sources.SourceYouTube
}
