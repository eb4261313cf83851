package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/jukebox/internal/music/pipeline"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/stream"
	"github.com/rs/zerolog"
)

var ErrVoiceNotReady = errors.New("voice connection is not ready")

// Connector joins voice channels through the gateway session.
type Connector struct {
	dg  *discordgo.Session
	log zerolog.Logger
}

func NewConnector(dg *discordgo.Session, log zerolog.Logger) *Connector {
	return &Connector{dg: dg, log: log}
}

// Connect joins channelID deafened. discordgo waits for the voice handshake
// itself, so ctx is only checked before the call.
func (c *Connector) Connect(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := c.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	c.log.Info().Str("guild", guildID).Str("channel", channelID).Msg("joined voice channel")
	return &Connection{vc: vc, device: &Device{vc: vc, log: c.log}}, nil
}

type Connection struct {
	vc     *discordgo.VoiceConnection
	device *Device
}

func (c *Connection) ChannelID() string {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return c.vc.ChannelID
}

func (c *Connection) Device() player.Device { return c.device }

func (c *Connection) Disconnect() error {
	c.device.Stop()
	return c.vc.Disconnect()
}

// Device streams one resource at a time into a voice connection.
type Device struct {
	vc  *discordgo.VoiceConnection
	log zerolog.Logger

	mu      sync.Mutex
	current *playback
}

type playback struct {
	stop     chan struct{}
	finished chan struct{}
	closer   *onceCloser
}

// Play starts streaming res and returns immediately. done is called exactly
// once, after res has been closed.
func (d *Device) Play(res *pipeline.Resource, done func(error)) error {
	d.vc.RLock()
	ready := d.vc.Ready
	d.vc.RUnlock()
	if !ready {
		return ErrVoiceNotReady
	}

	d.Stop()

	pb := &playback{
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
		closer:   &onceCloser{c: res},
	}
	d.mu.Lock()
	d.current = pb
	d.mu.Unlock()

	go func() {
		defer close(pb.finished)
		if err := d.vc.Speaking(true); err != nil {
			d.log.Warn().Err(err).Msg("failed to set speaking")
		}
		err := stream.StreamToDiscord(res, pb.stop, res.Volume, d.vc.OpusSend)
		_ = pb.closer.Close()
		if e := d.vc.Speaking(false); e != nil {
			d.log.Debug().Err(e).Msg("failed to clear speaking")
		}
		done(err)
	}()
	return nil
}

// Stop ends the current stream, if any, and waits for its goroutine.
func (d *Device) Stop() {
	d.mu.Lock()
	pb := d.current
	d.current = nil
	d.mu.Unlock()
	if pb == nil {
		return
	}
	close(pb.stop)
	// closing unblocks a read stuck on a stalled source
	_ = pb.closer.Close()
	<-pb.finished
}

type onceCloser struct {
	c    io.Closer
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}
