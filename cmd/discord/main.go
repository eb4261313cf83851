// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/keshon/jukebox/datastore"
	"github.com/keshon/jukebox/internal/commands"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/discord"
	"github.com/keshon/jukebox/internal/logging"
	"github.com/keshon/jukebox/internal/music/parsers/ffmpeg"
	"github.com/keshon/jukebox/internal/music/parsers/kkdai"
	ytdlpparser "github.com/keshon/jukebox/internal/music/parsers/ytdlp"
	"github.com/keshon/jukebox/internal/music/pipeline"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/music/sources/radio"
	"github.com/keshon/jukebox/internal/music/sources/youtube"
	"github.com/keshon/jukebox/internal/music/sources/ytdlp"
	"github.com/keshon/jukebox/internal/music/stream"
	"github.com/keshon/jukebox/internal/statusapi"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
	"github.com/rs/zerolog"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Options{})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	log.Info().Bool("dotenv", dotenv).Msgf("starting %s", config.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsCfg := datastore.DefaultConfig(cfg.StoragePath)
	dsCfg.Logger = logging.Component(log, "datastore")
	store, err := storage.New(dsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	resolver, fetcher := buildSources(cfg, log)
	builder := pipeline.NewBuilder(fetcher, stream.NewFilterGraph(cfg.FFmpegPath), logging.Component(log, "pipeline"))

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord session")
	}

	sessions := session.NewStore(session.StoreOptions{
		Builder:   builder,
		Connector: discord.NewConnector(dg, logging.Component(log, "voice")),
		Notifier:  discord.NewNotifier(discord.NewChannelReplier(dg), logging.Component(log, "notifier")),
		Logger:    logging.Component(log, "session"),
	})
	defer sessions.Close()

	hub := selection.NewHub()
	manager := session.NewManager(sessions, hub, resolver, session.ManagerOptions{
		SearchLimit:      cfg.SearchLimit,
		SelectionTimeout: cfg.SelectionTimeout,
	})

	registry := cmd.NewRegistry()
	commands.Register(registry, store)

	bot := discord.New(dg, discord.Options{
		Prefix:   cfg.CommandPrefix,
		Activity: cfg.Activity,
		Music:    manager,
		Hub:      hub,
		Lookup:   resolver,
		Registry: registry,
		Logger:   logging.Component(log, "discord"),
	})

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	wg.Go(func() { errCh <- bot.Run(ctx) })

	if cfg.StatusAddr != "" {
		api := statusapi.New(statusapi.Options{
			Addr:     cfg.StatusAddr,
			Sessions: manager,
			History:  store,
			Logger:   logging.Component(log, "statusapi"),
		})
		wg.Go(func() { errCh <- api.Run(ctx) })
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("service failed")
		}
	}
	cancel()
	wg.Wait()

	log.Info().Msg("exited cleanly")
}

// buildSources wires track lookup and the stream fetch chains. YouTube links
// try the native client first and fall back to yt-dlp; everything else is
// read by ffmpeg directly.
func buildSources(cfg *config.Config, log zerolog.Logger) (*sources.Resolver, *stream.Fetcher) {
	ytClient := youtube.NewClient(cfg.YouTubeProxy, logging.Component(log, "youtube"))

	ytdlpSource := ytdlp.New(ytdlp.Options{
		CookiesFile: cfg.YtdlpCookies,
		Proxy:       cfg.YouTubeProxy,
		Logger:      logging.Component(log, "ytdlp"),
	})
	resolver := sources.NewResolver(ytdlpSource, logging.Component(log, "sources"),
		youtube.New(ytClient),
		radio.New(),
		ytdlpSource,
	)

	fetcher := stream.NewFetcher(logging.Component(log, "stream"), ffmpeg.NewLinkStreamer(cfg.FFmpegPath)).
		Route(youtube.IsYouTubeURL,
			kkdai.NewPipeStreamer(ytClient, cfg.FFmpegPath),
			ytdlpparser.NewPipeStreamer(ytdlpparser.Options{
				FFmpegPath:  cfg.FFmpegPath,
				CookiesFile: cfg.YtdlpCookies,
				Proxy:       cfg.YouTubeProxy,
			}),
		)
	return resolver, fetcher
}
