package player

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/jukebox/internal/music/effects"
	"github.com/keshon/jukebox/internal/music/sources"
)

type State int

const (
	StateIdle State = iota
	StateStarting
	StatePlaying
	StateRestarting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateRestarting:
		return "restarting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopTrack
	LoopQueue
)

var ErrUnknownLoopMode = errors.New("unknown loop mode")

func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	}
	return "none"
}

// Next cycles none -> track -> queue -> none.
func (m LoopMode) Next() LoopMode {
	return (m + 1) % 3
}

func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "disable":
		return LoopNone, nil
	case "song", "track", "current":
		return LoopTrack, nil
	case "queue", "all", "playlist":
		return LoopQueue, nil
	}
	return LoopNone, fmt.Errorf("%w: %q", ErrUnknownLoopMode, s)
}

type EndReason string

const (
	ReasonFinished    EndReason = "finished"
	ReasonSkipped     EndReason = "skipped"
	ReasonError       EndReason = "error"
	ReasonUnavailable EndReason = "unavailable"
	ReasonStopped     EndReason = "stopped"
)

type EventType int

const (
	EventTrackStarted EventType = iota
	EventTrackEnded
	EventEffectsApplied
	EventQueueExhausted
)

func (t EventType) String() string {
	return map[EventType]string{
		EventTrackStarted:   "TrackStarted",
		EventTrackEnded:     "TrackEnded",
		EventEffectsApplied: "EffectsApplied",
		EventQueueExhausted: "QueueExhausted",
	}[t]
}

func (t EventType) StringEmoji() string {
	return map[EventType]string{
		EventTrackStarted:   "▶️",
		EventTrackEnded:     "⏹",
		EventEffectsApplied: "🎛️",
		EventQueueExhausted: "📭",
	}[t]
}

// Event is a status notification for the presentation layer. ChannelID is
// the text channel the last request came from.
type Event struct {
	Type      EventType
	GuildID   string
	ChannelID string
	Track     sources.Track
	Reason    EndReason
	Err       error
	Effects   effects.Config
}

// Snapshot is a read-only copy of a player's state.
type Snapshot struct {
	State          State
	Current        *sources.Track
	Queue          []sources.Track
	Effects        effects.Config
	Loop           LoopMode
	VoiceChannelID string
}
