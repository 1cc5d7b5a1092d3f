package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cuegrid/internal/playback"
)

// Event is the wire form of a presentation notification.
type Event struct {
	Type     string        `json:"type"`
	Key      string        `json:"key,omitempty"`
	Path     string        `json:"path,omitempty"`
	Column   int           `json:"column,omitempty"`
	State    string        `json:"state,omitempty"`
	Position time.Duration `json:"position,omitempty"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// Bus implements playback.Events: every notification is logged and
// fanned out to subscribers. Publishing never blocks; a subscriber that
// falls behind loses events rather than stalling the engine.
type Bus struct {
	logger zerolog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

const subscriberBuffer = 32

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel of events and a cancel function. The
// channel closes on cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) publish(ev Event) {
	ev.At = time.Now()

	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *Bus) ChannelStarted(key playback.SlotKey, path string) {
	b.logger.Info().Str("key", string(key)).Str("path", path).Msg("channel started")
	b.publish(Event{Type: "channel_started", Key: string(key), Path: path})
}

func (b *Bus) ChannelPaused(key playback.SlotKey, pos time.Duration) {
	b.logger.Info().Str("key", string(key)).Dur("pos", pos).Msg("channel paused")
	b.publish(Event{Type: "channel_paused", Key: string(key), Position: pos})
}

func (b *Bus) ChannelResumed(key playback.SlotKey, pos time.Duration) {
	b.logger.Info().Str("key", string(key)).Dur("pos", pos).Msg("channel resumed")
	b.publish(Event{Type: "channel_resumed", Key: string(key), Position: pos})
}

func (b *Bus) ChannelStopped(key playback.SlotKey) {
	b.logger.Info().Str("key", string(key)).Msg("channel stopped")
	b.publish(Event{Type: "channel_stopped", Key: string(key)})
}

func (b *Bus) TriggerChanged(column int, state playback.TriggerState) {
	b.logger.Info().Int("column", column).Str("state", state.String()).Msg("trigger changed")
	b.publish(Event{Type: "trigger_changed", Column: column, State: state.String()})
}

func (b *Bus) DuplicateAudioRejected(key playback.SlotKey, path string) {
	b.logger.Warn().Str("key", string(key)).Str("path", path).Msg("duplicate audio rejected")
	b.publish(Event{Type: "duplicate_audio_rejected", Key: string(key), Path: path})
}

func (b *Bus) AssignmentRequested(key playback.SlotKey) {
	b.logger.Debug().Str("key", string(key)).Msg("assignment requested")
	b.publish(Event{Type: "assignment_requested", Key: string(key)})
}

func (b *Bus) PlaybackFailed(key playback.SlotKey, err error) {
	b.logger.Warn().Err(err).Str("key", string(key)).Msg("playback failed")
	b.publish(Event{Type: "playback_failed", Key: string(key), Error: err.Error()})
}
