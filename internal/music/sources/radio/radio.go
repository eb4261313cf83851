package radio

import (
	"context"
	"fmt"
	"net/url"

	"github.com/keshon/jukebox/internal/music/sources"
)

// Source accepts direct audio links such as internet radio streams.
type Source struct {
	validator *Validator
}

func New() *Source {
	return &Source{validator: NewValidator()}
}

func (r *Source) Match(ctx context.Context, input string) bool {
	if !sources.IsURL(input) {
		return false
	}
	ok, _, err := r.validator.IsStream(ctx, input)
	return err == nil && ok
}

func (r *Source) Resolve(ctx context.Context, input string) (sources.Track, error) {
	ok, contentType, err := r.validator.IsStream(ctx, input)
	if err != nil {
		return sources.Track{}, err
	}
	if !ok {
		return sources.Track{}, fmt.Errorf("invalid stream content-type %q for %s", contentType, input)
	}

	return sources.Track{
		Title:      titleFromURL(input),
		SourceURL:  input,
		SourceName: sources.SourceRadio,
	}, nil
}

func (r *Source) SourceName() string {
	return sources.SourceRadio
}

func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.Path == "" || u.Path == "/" {
		return u.Host
	}
	return u.Host + u.Path
}
