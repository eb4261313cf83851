// Package statusapi serves a read-only JSON view of the playback sessions.
package statusapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keshon/jukebox/datastore"
	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/rs/zerolog"
)

type Sessions interface {
	GuildIDs() []string
	Snapshot(ctx context.Context, guildID string) (player.Snapshot, error)
}

type History interface {
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
	Stats() datastore.Stats
}

type Options struct {
	Addr     string
	Sessions Sessions
	History  History
	Logger   zerolog.Logger
}

type Server struct {
	opts    Options
	router  *gin.Engine
	started time.Time
}

// SessionView is the JSON shape of a player snapshot.
type SessionView struct {
	GuildID        string          `json:"guild_id"`
	State          string          `json:"state"`
	Loop           string          `json:"loop"`
	VoiceChannelID string          `json:"voice_channel_id,omitempty"`
	Current        *sources.Track  `json:"current,omitempty"`
	Queue          []sources.Track `json:"queue"`
	Effects        EffectsView     `json:"effects"`
}

type EffectsView struct {
	Volume      float64 `json:"volume"`
	Bass        int     `json:"bass"`
	Mid         int     `json:"mid"`
	Treble      int     `json:"treble"`
	PitchEffect bool    `json:"pitch_effect"`
}

func NewView(guildID string, s player.Snapshot) SessionView {
	queue := s.Queue
	if queue == nil {
		queue = []sources.Track{}
	}
	return SessionView{
		GuildID:        guildID,
		State:          s.State.String(),
		Loop:           s.Loop.String(),
		VoiceChannelID: s.VoiceChannelID,
		Current:        s.Current,
		Queue:          queue,
		Effects:        effectsView(s.Effects),
	}
}

func effectsView(c effects.Config) EffectsView {
	return EffectsView{Volume: c.Volume, Bass: c.Bass, Mid: c.Mid, Treble: c.Treble, PitchEffect: c.PitchEffect}
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{opts: opts, router: gin.New(), started: time.Now()}
	s.router.Use(gin.Recovery(), s.logRequests())
	s.router.GET("/healthz", s.health)
	s.router.GET("/guilds", s.guilds)
	s.router.GET("/guilds/:id", s.guild)
	s.router.GET("/guilds/:id/history", s.history)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", s.opts.Addr).Msg("status api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.opts.Logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(started)).
			Msg("status api request")
	}
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"guilds": len(s.opts.Sessions.GuildIDs()),
	}
	if s.opts.History != nil {
		body["datastore"] = s.opts.History.Stats()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) guilds(c *gin.Context) {
	ids := s.opts.Sessions.GuildIDs()
	views := make([]SessionView, 0, len(ids))
	for _, id := range ids {
		snap, err := s.opts.Sessions.Snapshot(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		views = append(views, NewView(id, snap))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) guild(c *gin.Context) {
	id := c.Param("id")
	if !s.known(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session for guild"})
		return
	}
	snap, err := s.opts.Sessions.Snapshot(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, NewView(id, snap))
}

func (s *Server) history(c *gin.Context) {
	if s.opts.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	records, err := s.opts.History.FetchCommandHistory(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []storage.CommandHistoryRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// known avoids creating a session just to answer a read.
func (s *Server) known(guildID string) bool {
	return slices.Contains(s.opts.Sessions.GuildIDs(), guildID)
}
