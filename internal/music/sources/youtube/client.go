package youtube

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bdandy/go-socks4"
	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

const clientTimeout = 15 * time.Second

// NewClient builds a kkdai client, optionally routed through an http(s),
// socks5 or socks4 proxy. An unusable proxy falls back to a direct client.
func NewClient(proxyStr string, log zerolog.Logger) *youtube.Client {
	if proxyStr == "" {
		return &youtube.Client{HTTPClient: &http.Client{Timeout: clientTimeout}}
	}

	transport, err := proxyTransport(proxyStr)
	if err != nil {
		log.Warn().Err(err).Msg("proxy unusable, going direct")
		return &youtube.Client{HTTPClient: &http.Client{Timeout: clientTimeout}}
	}

	log.Info().Str("proxy", redact(proxyStr)).Msg("youtube client uses proxy")
	return &youtube.Client{
		HTTPClient: &http.Client{
			Timeout:   clientTimeout,
			Transport: transport,
		},
	}
}

func proxyTransport(proxyStr string) (*http.Transport, error) {
	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy format: %w", err)
	}

	switch proxyURL.Scheme {
	case "http", "https":
		return &http.Transport{Proxy: http.ProxyURL(proxyURL)}, nil
	case "socks5", "socks4":
		// socks4 is registered with x/net/proxy by the go-socks4 import.
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("%s dialer: %w", proxyURL.Scheme, err)
		}
		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", proxyURL.Scheme)
	}
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
