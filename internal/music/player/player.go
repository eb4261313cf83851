// Package player is the per-guild playback state machine. A Player is not
// safe for concurrent use; every call must come from the guild's serializer.
package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/pipeline"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/rs/zerolog"
)

var (
	ErrJoinFailed     = errors.New("failed to join voice channel")
	ErrNothingPlaying = errors.New("no track is currently playing")
	ErrNotConnected   = errors.New("not connected to a voice channel")
)

type Builder interface {
	Build(ctx context.Context, track sources.Track, fx effects.Config) (*pipeline.Resource, error)
}

// Device plays one resource at a time. done is called exactly once when
// playback of res ends, with nil on natural completion or after Stop.
type Device interface {
	Play(res *pipeline.Resource, done func(error)) error
	Stop()
}

type Connection interface {
	ChannelID() string
	Device() Device
	Disconnect() error
}

type Connector interface {
	Connect(ctx context.Context, guildID, channelID string) (Connection, error)
}

type Options struct {
	GuildID   string
	Builder   Builder
	Connector Connector
	// Post schedules op on the guild's serializer without waiting.
	Post   func(op func(context.Context))
	Logger zerolog.Logger
}

type Request struct {
	Track           sources.Track
	VoiceChannelID  string
	NotifyChannelID string
}

type Player struct {
	guildID   string
	builder   Builder
	connector Connector
	post      func(func(context.Context))
	log       zerolog.Logger
	events    *eventQueue

	state         State
	current       *sources.Track
	queue         []sources.Track
	fx            effects.Config
	loop          LoopMode
	conn          Connection
	notifyChannel string

	// gen identifies the resource currently on the device. Completions
	// carrying an older generation are ignored.
	gen uint64
}

func New(opts Options) *Player {
	return &Player{
		guildID:   opts.GuildID,
		builder:   opts.Builder,
		connector: opts.Connector,
		post:      opts.Post,
		log:       opts.Logger.With().Str("guild", opts.GuildID).Logger(),
		events:    newEventQueue(),
		fx:        effects.Default(),
	}
}

// EventsReady is signalled whenever new events are waiting in DrainEvents.
// A signal may cover several events, or none if they were already drained.
func (p *Player) EventsReady() <-chan struct{} {
	return p.events.ready
}

// DrainEvents returns every pending event in emission order. It is safe to
// call from any goroutine.
func (p *Player) DrainEvents() []Event {
	return p.events.drain()
}

// Enqueue appends the requested track, joining the voice channel first if
// needed. Playback starts right away when nothing is current. It returns
// the 1-based queue position, or 0 when the track went straight to the
// device.
func (p *Player) Enqueue(ctx context.Context, req Request) (int, error) {
	if p.conn == nil {
		if req.VoiceChannelID == "" {
			return 0, fmt.Errorf("%w: no voice channel", ErrJoinFailed)
		}
		conn, err := p.connector.Connect(ctx, p.guildID, req.VoiceChannelID)
		if err != nil {
			p.state = StateIdle
			return 0, fmt.Errorf("%w: %w", ErrJoinFailed, err)
		}
		p.conn = conn
		p.log.Info().Str("channel", req.VoiceChannelID).Msg("joined voice channel")
	}
	if req.NotifyChannelID != "" {
		p.notifyChannel = req.NotifyChannelID
	}

	p.queue = append(p.queue, req.Track)
	p.log.Info().Str("track", req.Track.Title).Int("queue_len", len(p.queue)).Msg("track enqueued")

	if p.current != nil {
		return len(p.queue), nil
	}
	p.advance(ctx)
	return 0, nil
}

// advance pulls tracks off the queue until one starts or the queue runs dry.
func (p *Player) advance(ctx context.Context) {
	for len(p.queue) > 0 {
		track := p.queue[0]
		p.queue = p.queue[1:]
		p.current = &track
		p.state = StateStarting

		if err := p.start(ctx, track); err != nil {
			p.log.Warn().Err(err).Str("track", track.Title).Msg("skipping unavailable track")
			p.emit(Event{Type: EventTrackEnded, Track: track, Reason: ReasonUnavailable, Err: err})
			continue
		}

		p.state = StatePlaying
		p.log.Info().Str("track", track.Title).Int("queue_len", len(p.queue)).Msg("now playing")
		p.emit(Event{Type: EventTrackStarted, Track: track})
		return
	}

	p.current = nil
	p.state = StateIdle
	p.log.Info().Msg("queue exhausted")
	p.emit(Event{Type: EventQueueExhausted})
}

func (p *Player) start(ctx context.Context, track sources.Track) error {
	if p.conn == nil {
		return ErrNotConnected
	}
	res, err := p.builder.Build(ctx, track, p.fx)
	if err != nil {
		return err
	}
	return p.play(res)
}

func (p *Player) play(res *pipeline.Resource) error {
	p.gen++
	gen := p.gen
	err := p.conn.Device().Play(res, func(err error) {
		p.post(func(ctx context.Context) { p.deviceDone(ctx, gen, err) })
	})
	if err != nil {
		res.Close()
		return fmt.Errorf("device refused resource: %w", err)
	}
	return nil
}

// halt invalidates the resource on the device and stops it.
func (p *Player) halt() {
	p.gen++
	if p.conn != nil {
		p.conn.Device().Stop()
	}
}

func (p *Player) deviceDone(ctx context.Context, gen uint64, err error) {
	if gen != p.gen || p.state != StatePlaying || p.current == nil {
		p.log.Debug().Uint64("gen", gen).Uint64("current_gen", p.gen).Msg("stale completion ignored")
		return
	}

	track := *p.current
	reason := ReasonFinished
	if err != nil {
		reason = ReasonError
		p.log.Error().Err(err).Str("track", track.Title).Msg("playback failed")
	}
	p.emit(Event{Type: EventTrackEnded, Track: track, Reason: reason, Err: err})

	switch p.loop {
	case LoopTrack:
		p.queue = slices.Insert(p.queue, 0, track)
	case LoopQueue:
		p.queue = append(p.queue, track)
	}
	p.current = nil
	p.advance(ctx)
}

// Skip discards the current track regardless of the loop mode.
func (p *Player) Skip(ctx context.Context) (sources.Track, error) {
	if p.current == nil {
		return sources.Track{}, ErrNothingPlaying
	}
	track := *p.current
	p.halt()
	p.log.Info().Str("track", track.Title).Msg("skipped")
	p.emit(Event{Type: EventTrackEnded, Track: track, Reason: ReasonSkipped})

	p.current = nil
	p.advance(ctx)
	return track, nil
}

// Stop clears everything and leaves the voice channel.
func (p *Player) Stop(context.Context) error {
	conn := p.conn
	p.reset()
	if conn == nil {
		return nil
	}
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	p.log.Info().Msg("left voice channel")
	return nil
}

// Disconnected handles a voice connection torn down from the outside.
func (p *Player) Disconnected(context.Context) {
	if p.conn == nil {
		return
	}
	p.log.Warn().Msg("voice connection lost")
	p.reset()
}

func (p *Player) reset() {
	p.halt()
	if p.current != nil {
		p.emit(Event{Type: EventTrackEnded, Track: *p.current, Reason: ReasonStopped})
	}
	p.queue = nil
	p.current = nil
	p.conn = nil
	p.state = StateIdle
}

// SetEffects merges u into the current configuration and, when something
// is playing, restarts it from the beginning with the new settings.
func (p *Player) SetEffects(ctx context.Context, u effects.Partial) (effects.Config, error) {
	next, err := p.fx.Apply(u)
	if err != nil {
		return p.fx, err
	}
	p.fx = next
	p.log.Info().Stringer("effects", next).Msg("effects updated")

	if p.state == StatePlaying && p.current != nil {
		p.restart(ctx)
	}
	p.emit(Event{Type: EventEffectsApplied, Effects: next})
	return next, nil
}

func (p *Player) restart(ctx context.Context) {
	track := *p.current
	p.state = StateRestarting

	res, err := p.builder.Build(ctx, track, p.fx)
	if err == nil {
		p.halt()
		err = p.play(res)
	}
	if err != nil {
		p.halt()
		p.log.Warn().Err(err).Str("track", track.Title).Msg("restart failed")
		p.emit(Event{Type: EventTrackEnded, Track: track, Reason: ReasonUnavailable, Err: err})
		p.current = nil
		p.advance(ctx)
		return
	}

	p.state = StatePlaying
	p.log.Info().Str("track", track.Title).Msg("restarted with new effects")
}

func (p *Player) SetLoopMode(m LoopMode) {
	p.loop = m
}

func (p *Player) ToggleLoopMode() LoopMode {
	p.loop = p.loop.Next()
	return p.loop
}

func (p *Player) Shuffle() {
	if len(p.queue) <= 1 {
		return
	}
	rand.Shuffle(len(p.queue), func(i, j int) {
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	})
}

// ClearQueue drops queued tracks and returns how many were removed. The
// current track keeps playing.
func (p *Player) ClearQueue() int {
	n := len(p.queue)
	p.queue = nil
	return n
}

func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		State:   p.state,
		Queue:   slices.Clone(p.queue),
		Effects: p.fx,
		Loop:    p.loop,
	}
	if p.current != nil {
		t := *p.current
		s.Current = &t
	}
	if p.conn != nil {
		s.VoiceChannelID = p.conn.ChannelID()
	}
	return s
}

// emit queues an event without blocking the serializer.
func (p *Player) emit(e Event) {
	e.GuildID = p.guildID
	e.ChannelID = p.notifyChannel
	p.events.push(e)
}
