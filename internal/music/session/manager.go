package session

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/sources"
)

type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]sources.Track, error)
}

type ManagerOptions struct {
	SearchLimit      int
	SelectionTimeout time.Duration
}

// Manager is the entry point for the command layer. Every mutation goes
// through the guild's serializer.
type Manager struct {
	store    *Store
	hub      *selection.Hub
	searcher TrackSearcher
	opts     ManagerOptions
}

func NewManager(store *Store, hub *selection.Hub, searcher TrackSearcher, opts ManagerOptions) *Manager {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	if opts.SelectionTimeout <= 0 {
		opts.SelectionTimeout = selection.DefaultTimeout
	}
	return &Manager{store: store, hub: hub, searcher: searcher, opts: opts}
}

func (m *Manager) Hub() *selection.Hub {
	return m.hub
}

// Enqueue returns the track's queue position, 0 meaning it started playing.
func (m *Manager) Enqueue(ctx context.Context, guildID string, req player.Request) (int, error) {
	var pos int
	err := m.store.Get(guildID).do(ctx, func(ctx context.Context, p *player.Player) error {
		var err error
		pos, err = p.Enqueue(ctx, req)
		return err
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

func (m *Manager) Skip(ctx context.Context, guildID string) (sources.Track, error) {
	var skipped sources.Track
	err := m.store.Get(guildID).do(ctx, func(ctx context.Context, p *player.Player) error {
		var err error
		skipped, err = p.Skip(ctx)
		return err
	})
	if err != nil {
		return sources.Track{}, err
	}
	return skipped, nil
}

func (m *Manager) Stop(ctx context.Context, guildID string) error {
	return m.store.Get(guildID).do(ctx, func(ctx context.Context, p *player.Player) error {
		return p.Stop(ctx)
	})
}

func (m *Manager) SetEffects(ctx context.Context, guildID string, u effects.Partial) (effects.Config, error) {
	var fx effects.Config
	err := m.store.Get(guildID).do(ctx, func(ctx context.Context, p *player.Player) error {
		var err error
		fx, err = p.SetEffects(ctx, u)
		return err
	})
	if err != nil {
		return effects.Config{}, err
	}
	return fx, nil
}

func (m *Manager) SetLoopMode(ctx context.Context, guildID string, mode player.LoopMode) error {
	return m.store.Get(guildID).do(ctx, func(_ context.Context, p *player.Player) error {
		p.SetLoopMode(mode)
		return nil
	})
}

func (m *Manager) ToggleLoopMode(ctx context.Context, guildID string) (player.LoopMode, error) {
	var mode player.LoopMode
	err := m.store.Get(guildID).do(ctx, func(_ context.Context, p *player.Player) error {
		mode = p.ToggleLoopMode()
		return nil
	})
	if err != nil {
		return player.LoopNone, err
	}
	return mode, nil
}

func (m *Manager) Shuffle(ctx context.Context, guildID string) error {
	return m.store.Get(guildID).do(ctx, func(_ context.Context, p *player.Player) error {
		p.Shuffle()
		return nil
	})
}

func (m *Manager) ClearQueue(ctx context.Context, guildID string) (int, error) {
	var n int
	err := m.store.Get(guildID).do(ctx, func(_ context.Context, p *player.Player) error {
		n = p.ClearQueue()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (m *Manager) Snapshot(ctx context.Context, guildID string) (player.Snapshot, error) {
	var snap player.Snapshot
	err := m.store.Get(guildID).do(ctx, func(_ context.Context, p *player.Player) error {
		snap = p.Snapshot()
		return nil
	})
	if err != nil {
		return player.Snapshot{}, err
	}
	return snap, nil
}

// Disconnected reports that the voice connection of guildID went away
// without us asking. It does not wait.
func (m *Manager) Disconnected(guildID string) {
	sess, ok := m.store.Lookup(guildID)
	if !ok {
		return
	}
	_ = sess.serializer.Post(func(ctx context.Context) {
		sess.player.Disconnected(ctx)
	})
}

func (m *Manager) GuildIDs() []string {
	return m.store.GuildIDs()
}

type SearchRequest struct {
	GuildID         string
	RequesterID     string
	Query           string
	VoiceChannelID  string
	NotifyChannelID string
}

// Search is a pending search-and-pick. Results are listed for the
// requester, whose numbered reply picks one.
type Search struct {
	Results []sources.Track
	Handle  *selection.Handle

	manager *Manager
	req     SearchRequest
}

func (m *Manager) BeginSearch(ctx context.Context, req SearchRequest) (*Search, error) {
	results, err := m.searcher.SearchTracks(ctx, req.Query, m.opts.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", req.Query, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("search %q: %w", req.Query, sources.ErrNotFound)
	}
	return &Search{
		Results: results,
		Handle:  m.hub.Begin(req.GuildID, req.RequesterID, len(results), m.opts.SelectionTimeout),
		manager: m,
		req:     req,
	}, nil
}

// Await waits for the requester's pick and enqueues it. Nothing changes
// when the selection is cancelled or times out.
func (s *Search) Await(ctx context.Context) (sources.Track, int, error) {
	idx, err := s.Handle.Wait(ctx)
	if err != nil {
		return sources.Track{}, 0, err
	}
	track := s.Results[idx].WithRequester(s.req.RequesterID)
	pos, err := s.manager.Enqueue(ctx, s.req.GuildID, player.Request{
		Track:           track,
		VoiceChannelID:  s.req.VoiceChannelID,
		NotifyChannelID: s.req.NotifyChannelID,
	})
	if err != nil {
		return track, 0, err
	}
	return track, pos, nil
}
