// Package session owns the per-guild playback sessions and serializes every
// operation on them.
package session

import (
	"context"
	"slices"
	"sync"

	"github.com/keshon/jukebox/internal/music/player"
	"github.com/rs/zerolog"
)

// Notifier receives player events for presentation.
type Notifier interface {
	Notify(e player.Event)
}

type Session struct {
	GuildID string

	serializer *Serializer
	player     *player.Player
}

// do runs fn against the session's player on its serializer.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context, p *player.Player) error) error {
	return s.serializer.Submit(ctx, func(ctx context.Context) error {
		return fn(ctx, s.player)
	})
}

type StoreOptions struct {
	Builder   player.Builder
	Connector player.Connector
	Notifier  Notifier
	Logger    zerolog.Logger
}

// Store creates sessions on first use and never removes them, so effect
// settings survive short disconnects.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     StoreOptions
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewStore(opts StoreOptions) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		done:     make(chan struct{}),
	}
}

func (s *Store) Get(guildID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[guildID]; ok {
		return sess
	}

	log := s.opts.Logger.With().Str("guild", guildID).Logger()
	ser := NewSerializer(log)
	sess := &Session{
		GuildID:    guildID,
		serializer: ser,
		player: player.New(player.Options{
			GuildID:   guildID,
			Builder:   s.opts.Builder,
			Connector: s.opts.Connector,
			Post: func(op func(context.Context)) {
				if err := ser.Post(op); err != nil {
					log.Debug().Err(err).Msg("device completion dropped")
				}
			},
			Logger: s.opts.Logger,
		}),
	}
	s.sessions[guildID] = sess
	log.Info().Msg("session created")

	if s.opts.Notifier != nil {
		s.wg.Add(1)
		go s.forward(sess.player)
	}
	return sess
}

func (s *Store) forward(p *player.Player) {
	defer s.wg.Done()
	for {
		select {
		case <-p.EventsReady():
			for _, e := range p.DrainEvents() {
				s.opts.Notifier.Notify(e)
			}
		case <-s.done:
			// serializers are closed by now; flush what they emitted last
			for _, e := range p.DrainEvents() {
				s.opts.Notifier.Notify(e)
			}
			return
		}
	}
}

func (s *Store) GuildIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Lookup returns the session without creating it.
func (s *Store) Lookup(guildID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[guildID]
	return sess, ok
}

// Close stops every session's serializer and the event forwarders.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.serializer.Close()
	}
	close(s.done)
	s.wg.Wait()
}
