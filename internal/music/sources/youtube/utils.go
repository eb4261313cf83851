package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.|music\.|m\.)?(youtube\.com|youtu\.be)/\S+`)
	videoIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

	ErrInvalidURL = errors.New("invalid YouTube URL format")
)

// IsYouTubeURL reports whether input points at youtube.com or youtu.be.
func IsYouTubeURL(input string) bool {
	return youtubeURLPattern.MatchString(strings.TrimSpace(input))
}

// ExtractVideoID returns the 11 character id of a watch, short or shorts URL.
func ExtractVideoID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var id string
	switch host := strings.TrimPrefix(u.Hostname(), "www."); host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/live/"):
			id = strings.Trim(u.Path[strings.Index(u.Path[1:], "/")+1:], "/")
		}
	default:
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidURL, host)
	}

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %s", ErrInvalidURL, raw)
	}
	return id, nil
}

// CleanVideoURL drops playlist, timestamp and tracking parameters.
func CleanVideoURL(raw string) string {
	id, err := ExtractVideoID(raw)
	if err != nil {
		return raw
	}
	return "https://www.youtube.com/watch?v=" + id
}
