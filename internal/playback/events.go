package playback

import "time"

// Events is the notification sink for everything the UI layer needs to
// highlight buttons and label menus. Implementations must not call back
// into the engine and must not block: events fire while the engine's
// lock is held.
type Events interface {
	ChannelStarted(key SlotKey, path string)
	ChannelPaused(key SlotKey, pos time.Duration)
	ChannelResumed(key SlotKey, pos time.Duration)
	ChannelStopped(key SlotKey)
	TriggerChanged(column int, state TriggerState)
	DuplicateAudioRejected(key SlotKey, path string)
	AssignmentRequested(key SlotKey)
	PlaybackFailed(key SlotKey, err error)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) ChannelStarted(SlotKey, string)         {}
func (NopEvents) ChannelPaused(SlotKey, time.Duration)   {}
func (NopEvents) ChannelResumed(SlotKey, time.Duration)  {}
func (NopEvents) ChannelStopped(SlotKey)                 {}
func (NopEvents) TriggerChanged(int, TriggerState)       {}
func (NopEvents) DuplicateAudioRejected(SlotKey, string) {}
func (NopEvents) AssignmentRequested(SlotKey)            {}
func (NopEvents) PlaybackFailed(SlotKey, error)          {}
