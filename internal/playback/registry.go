package playback

import (
	"time"

	"cuegrid/internal/cache"
)

// TriggerState is the lifecycle state of a trigger column.
type TriggerState int

const (
	TriggerStopped TriggerState = iota
	TriggerPlaying
	TriggerPaused
)

func (s TriggerState) String() string {
	switch s {
	case TriggerPlaying:
		return "playing"
	case TriggerPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Registry holds all mutable playback state: main channel identities,
// per-channel and per-file positions, audio file ownership, pause flags
// and trigger lifecycle. Pure data, no I/O.
//
// Missing keys are never an error: lookups return zero values. The
// Registry itself is not locked; the engine serializes all access.
type Registry struct {
	mainMedia  SlotKey
	mainVisual SlotKey
	mainAudio  SlotKey

	positions map[SlotKey]time.Duration
	resume    *cache.LRU[time.Duration]

	// audioOwners maps an active audio file path to the one channel
	// allowed to play it. This is both the duplicate-audio guard and
	// the explicit ownership record for borrowed trigger audio.
	audioOwners map[string]SlotKey

	paused      map[SlotKey]bool
	videoPaused bool

	triggers      map[int]TriggerState
	activeTrigger int // 0 = none

	// borrowed maps a trigger column to the channel it borrows audio
	// from, when its audio asset was already playing elsewhere.
	borrowed map[int]SlotKey
}

// DefaultResumeCapacity bounds the in-memory per-file resume cache.
const DefaultResumeCapacity = 1024

func NewRegistry(resumeCapacity int) *Registry {
	if resumeCapacity <= 0 {
		resumeCapacity = DefaultResumeCapacity
	}
	return &Registry{
		positions:   make(map[SlotKey]time.Duration),
		resume:      cache.NewLRU[time.Duration](resumeCapacity),
		audioOwners: make(map[string]SlotKey),
		paused:      make(map[SlotKey]bool),
		triggers:    make(map[int]TriggerState),
		borrowed:    make(map[int]SlotKey),
	}
}

// Main channel identities.

func (r *Registry) MainMediaKey() SlotKey  { return r.mainMedia }
func (r *Registry) MainVisualKey() SlotKey { return r.mainVisual }
func (r *Registry) MainAudioKey() SlotKey  { return r.mainAudio }

func (r *Registry) SetMainMedia(key SlotKey)  { r.mainMedia = key }
func (r *Registry) SetMainVisual(key SlotKey) { r.mainVisual = key }
func (r *Registry) SetMainAudio(key SlotKey)  { r.mainAudio = key }

// Per-channel positions.

func (r *Registry) Position(key SlotKey) time.Duration { return r.positions[key] }
func (r *Registry) SavePosition(key SlotKey, pos time.Duration) {
	r.positions[key] = pos
}
func (r *Registry) ClearPosition(key SlotKey) { delete(r.positions, key) }

// Per-file resume positions.

func (r *Registry) ResumeFor(path string) (time.Duration, bool) {
	return r.resume.Get(path)
}
func (r *Registry) SaveResume(path string, pos time.Duration) {
	if path != "" {
		r.resume.Set(path, pos)
	}
}
func (r *Registry) ClearResume(path string) { r.resume.Delete(path) }

// Audio ownership.

func (r *Registry) AudioOwner(path string) SlotKey { return r.audioOwners[path] }
func (r *Registry) RegisterAudio(path string, key SlotKey) {
	r.audioOwners[path] = key
}
func (r *Registry) ReleaseAudio(path string) { delete(r.audioOwners, path) }

// AudioPathOwnedBy returns the file path whose channel is key, if any.
func (r *Registry) AudioPathOwnedBy(key SlotKey) string {
	for path, owner := range r.audioOwners {
		if owner == key {
			return path
		}
	}
	return ""
}

// Pause flags.

func (r *Registry) Paused(key SlotKey) bool { return r.paused[key] }
func (r *Registry) SetPaused(key SlotKey, v bool) {
	if v {
		r.paused[key] = true
	} else {
		delete(r.paused, key)
	}
}

func (r *Registry) VideoPaused() bool     { return r.videoPaused }
func (r *Registry) SetVideoPaused(v bool) { r.videoPaused = v }

// Trigger lifecycle.

func (r *Registry) TriggerState(col int) TriggerState { return r.triggers[col] }
func (r *Registry) SetTriggerState(col int, s TriggerState) {
	if s == TriggerStopped {
		delete(r.triggers, col)
	} else {
		r.triggers[col] = s
	}
}

func (r *Registry) ActiveTriggerColumn() int { return r.activeTrigger }
func (r *Registry) SetActiveTrigger(col int) { r.activeTrigger = col }

// ActiveTriggerColumns returns all columns not in the Stopped state.
func (r *Registry) ActiveTriggerColumns() []int {
	cols := make([]int, 0, len(r.triggers))
	for col := range r.triggers {
		cols = append(cols, col)
	}
	return cols
}

func (r *Registry) BorrowedAudio(col int) SlotKey { return r.borrowed[col] }
func (r *Registry) SetBorrowedAudio(col int, lender SlotKey) {
	r.borrowed[col] = lender
}
func (r *Registry) ClearBorrowedAudio(col int) { delete(r.borrowed, col) }

// PruneKey drops all per-channel state for a removed slot. Position
// caches are harmless while stale but must not outlive their slot.
func (r *Registry) PruneKey(key SlotKey) {
	delete(r.positions, key)
	delete(r.paused, key)
	for path, owner := range r.audioOwners {
		if owner == key {
			delete(r.audioOwners, path)
		}
	}
	if r.mainMedia == key {
		r.mainMedia = ""
	}
	if r.mainVisual == key {
		r.mainVisual = ""
	}
	if r.mainAudio == key {
		r.mainAudio = ""
	}
}

// Reset clears all session state except the per-file resume cache,
// which survives a stop-everything.
func (r *Registry) Reset() {
	r.mainMedia = ""
	r.mainVisual = ""
	r.mainAudio = ""
	r.positions = make(map[SlotKey]time.Duration)
	r.audioOwners = make(map[string]SlotKey)
	r.paused = make(map[SlotKey]bool)
	r.videoPaused = false
	r.triggers = make(map[int]TriggerState)
	r.activeTrigger = 0
	r.borrowed = make(map[int]SlotKey)
}
