package radio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

var validContentTypes = []string{
	"audio/",
	"video/",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"application/ogg",
	"application/x-scpls",
	"application/xspf+xml",
	"application/octet-stream",
}

// Validator checks that a link serves a stream rather than a web page.
type Validator struct {
	Client *http.Client
}

func NewValidator() *Validator {
	return &Validator{
		Client: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Inspect returns the content type and the URL after redirects.
func (v *Validator) Inspect(ctx context.Context, rawURL string) (contentType, finalURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := v.Client.Do(req)
	if err != nil || resp.StatusCode >= 400 {
		if resp != nil {
			resp.Body.Close()
		}
		// some stream servers refuse HEAD
		req.Method = http.MethodGet
		resp, err = v.Client.Do(req)
		if err != nil {
			return "", "", fmt.Errorf("GET fallback failed: %w", err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return "", "", fmt.Errorf("stream responded %s", resp.Status)
		}
	}
	defer resp.Body.Close()
	// a live stream never ends, read only what is already buffered
	_, _ = io.CopyN(io.Discard, resp.Body, 512)

	return resp.Header.Get("Content-Type"), resp.Request.URL.String(), nil
}

func (v *Validator) IsStream(ctx context.Context, rawURL string) (bool, string, error) {
	contentType, finalURL, err := v.Inspect(ctx, rawURL)
	if err != nil {
		return false, "", err
	}
	if isAllowedType(contentType) || isLikelyPlaylist(finalURL) {
		return true, contentType, nil
	}
	return false, contentType, nil
}

func isAllowedType(contentType string) bool {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range validContentTypes {
		if strings.HasPrefix(contentType, allowed) {
			return true
		}
	}
	return false
}

func isLikelyPlaylist(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".m3u", ".m3u8", ".pls", ".xspf", ".asx":
		return true
	}
	return false
}
