package events

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"cuegrid/internal/playback"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	b := NewBus(zerolog.Nop())
	ch, cancel := b.Subscribe()
	defer cancel()

	b.ChannelStarted("Slot_1_1", "/media/v.mp4")

	select {
	case ev := <-ch:
		require.Equal(t, "channel_started", ev.Type)
		require.Equal(t, "Slot_1_1", ev.Key)
		require.Equal(t, "/media/v.mp4", ev.Path)
		require.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBusEventShapes(t *testing.T) {
	b := NewBus(zerolog.Nop())
	ch, cancel := b.Subscribe()
	defer cancel()

	b.ChannelPaused("Slot_1_1", 3*time.Second)
	b.TriggerChanged(2, playback.TriggerPlaying)
	b.DuplicateAudioRejected("Slot_2_3", "/media/song.mp3")
	b.PlaybackFailed("Slot_1_1", errors.New("boom"))

	ev := <-ch
	require.Equal(t, "channel_paused", ev.Type)
	require.Equal(t, 3*time.Second, ev.Position)

	ev = <-ch
	require.Equal(t, "trigger_changed", ev.Type)
	require.Equal(t, 2, ev.Column)
	require.Equal(t, "playing", ev.State)

	ev = <-ch
	require.Equal(t, "duplicate_audio_rejected", ev.Type)
	require.Equal(t, "/media/song.mp3", ev.Path)

	ev = <-ch
	require.Equal(t, "playback_failed", ev.Type)
	require.Equal(t, "boom", ev.Error)
}

func TestBusCancelClosesChannel(t *testing.T) {
	b := NewBus(zerolog.Nop())
	ch, cancel := b.Subscribe()

	cancel()
	_, open := <-ch
	require.False(t, open)

	// A second cancel and further publishes are harmless.
	cancel()
	b.ChannelStopped("Slot_1_1")
}

func TestBusSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBus(zerolog.Nop())
	ch, cancel := b.Subscribe()
	defer cancel()

	// Overflow the buffer without draining; publishing must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.ChannelStopped("Slot_1_1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	require.Len(t, ch, subscriberBuffer)
}

func TestBusMultipleSubscribers(t *testing.T) {
	b := NewBus(zerolog.Nop())
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.ChannelResumed("Slot_1_1", time.Second)

	ev1 := <-ch1
	ev2 := <-ch2
	require.Equal(t, "channel_resumed", ev1.Type)
	require.Equal(t, "channel_resumed", ev2.Type)
}
