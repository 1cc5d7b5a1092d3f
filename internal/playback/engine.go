package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cuegrid/internal/media"
	"cuegrid/internal/output"
	"cuegrid/internal/transition"
)

// nearEndSnap: when resuming a timed channel this close to the end, the
// asset is treated as finished and restarts from zero, so resuming does
// not immediately re-fire the end-of-media handler.
const nearEndSnap = 400 * time.Millisecond

// DataSource is the engine's read-only view of the slot grid.
type DataSource interface {
	Asset(col, row int) *media.Asset
}

// VisualOutput is the mirrored visual channel the engine drives: the
// primary preview plus the optional audience display behind it.
type VisualOutput interface {
	Load(asset *media.Asset) error
	Play()
	Pause()
	Stop()
	Seek(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	SetVolume(v float64)
	SetSpeed(ratio float64)
	SetRotation(degrees float64)
	OnEnd(fn func())
	CorrectDrift(now time.Time) bool

	transition.Surface
}

// ResumeStore persists per-file resume positions across restarts.
type ResumeStore interface {
	Load() (map[string]time.Duration, error)
	Save(path string, pos time.Duration) error
	Delete(path string) error
}

// Config carries the engine's tunables.
type Config struct {
	Transition         transition.Kind
	TransitionDuration time.Duration
	AutoAdvance        bool
	AutoAdvanceDelay   time.Duration
	ResumeCapacity     int
}

// Engine is the playback orchestrator: the click-driven state machine
// for slots and triggers, the single writer of the registry, and the
// only component issuing commands to output ports.
//
// Every public operation serializes on one mutex, so clicks arriving
// during an in-flight transition queue behind it rather than racing it.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	reg    *Registry
	grid   DataSource
	visual VisualOutput

	newAudio output.Factory
	audio    map[SlotKey]output.Port

	trans  *transition.Engine
	events Events
	store  ResumeStore
	logger zerolog.Logger
}

func NewEngine(
	cfg Config,
	grid DataSource,
	visual VisualOutput,
	newAudio output.Factory,
	trans *transition.Engine,
	events Events,
	logger zerolog.Logger,
) *Engine {
	if events == nil {
		events = NopEvents{}
	}
	if cfg.AutoAdvanceDelay <= 0 {
		cfg.AutoAdvanceDelay = 500 * time.Millisecond
	}

	e := &Engine{
		cfg:      cfg,
		reg:      NewRegistry(cfg.ResumeCapacity),
		grid:     grid,
		visual:   visual,
		newAudio: newAudio,
		audio:    make(map[SlotKey]output.Port),
		trans:    trans,
		events:   events,
		logger:   logger,
	}
	visual.OnEnd(e.mainEnded)
	return e
}

// SetResumeStore attaches persistence for per-file resume positions and
// seeds the in-memory cache from it.
func (e *Engine) SetResumeStore(store ResumeStore) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store = store
	saved, err := store.Load()
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to load resume positions")
		return
	}
	for path, pos := range saved {
		e.reg.SaveResume(path, pos)
	}
	e.logger.Info().Int("count", len(saved)).Msg("resume positions loaded")
}

// Registry exposes the registry for read-side inspection in tests.
func (e *Engine) Registry() *Registry { return e.reg }

// ClickSlot runs the per-slot state machine for an operator click on an
// ordinary slot: start, pause, resume, or (image/text) stop.
func (e *Engine) ClickSlot(col, row int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := SlotKeyFor(col, row)
	asset := e.grid.Asset(col, row)
	if asset == nil {
		e.events.AssignmentRequested(key)
		return nil
	}

	if asset.Kind == media.KindAudio {
		return e.clickAudioSlot(key, asset)
	}
	return e.clickVisualSlot(key, asset)
}

func (e *Engine) clickVisualSlot(key SlotKey, asset *media.Asset) error {
	if e.reg.MainMediaKey() == key {
		switch asset.Kind {
		case media.KindVideo:
			if e.reg.VideoPaused() {
				e.resumeMainVideo(key)
			} else {
				e.pauseMainVideo(key, asset.Path)
			}
			return nil
		default:
			// Image and text have no timeline: a second click stops.
			e.stopMainVisual(key)
			return nil
		}
	}
	return e.startVisual(key, asset, true)
}

func (e *Engine) pauseMainVideo(key SlotKey, path string) {
	pos := e.visual.Position()
	e.visual.Pause()
	e.reg.SavePosition(key, pos)
	e.reg.SetVideoPaused(true)
	e.saveResume(path, pos)
	e.events.ChannelPaused(key, pos)

	e.logger.Debug().Str("key", string(key)).Dur("pos", pos).Msg("video paused")
}

func (e *Engine) resumeMainVideo(key SlotKey) {
	pos := snapNearEnd(e.reg.Position(key), e.visual.Duration())
	e.visual.Seek(pos)
	e.visual.Play()
	e.reg.SetVideoPaused(false)
	e.events.ChannelResumed(key, pos)

	e.logger.Debug().Str("key", string(key)).Dur("pos", pos).Msg("video resumed")
}

func (e *Engine) stopMainVisual(key SlotKey) {
	e.visual.Stop()
	e.reg.SetMainMedia("")
	e.reg.SetMainVisual("")
	e.reg.SetVideoPaused(false)
	e.events.ChannelStopped(key)

	e.logger.Debug().Str("key", string(key)).Msg("visual stopped")
}

// startVisual loads the asset into the main visual channel through the
// configured transition, replacing whatever was there. usePositionKey
// selects whether the channel's own saved position is restored; trigger
// visual legs restore from the per-file cache only, since the trigger
// key's position entry belongs to the audio leg.
func (e *Engine) startVisual(key SlotKey, asset *media.Asset, usePositionKey bool) error {
	prev := e.reg.MainMediaKey()
	if prev != "" && prev != key {
		// Implicit replacement: remember where the outgoing video was.
		if d := e.visual.Duration(); d > 0 && !e.reg.VideoPaused() {
			e.reg.SavePosition(prev, e.visual.Position())
		}
	}

	var loadErr error
	_ = e.trans.Apply(e.visual, e.cfg.Transition, e.cfg.TransitionDuration, func() error {
		if err := e.visual.Load(asset); err != nil {
			loadErr = classifyLoadError(err)
			return loadErr
		}
		e.visual.SetVolume(asset.Volume)
		e.visual.SetSpeed(asset.Speed)
		e.visual.SetRotation(asset.Rotation)

		if asset.Kind == media.KindVideo {
			pos := e.restorePosition(key, asset.Path, e.visual.Duration(), usePositionKey)
			if pos > 0 {
				e.visual.Seek(pos)
			}
			e.visual.Play()
		}
		return nil
	})

	if loadErr != nil {
		e.events.PlaybackFailed(key, loadErr)
		e.logger.Warn().Err(loadErr).Str("key", string(key)).Str("path", asset.Path).Msg("visual start failed")
		return loadErr
	}

	// Transition restored the previous transforms; settle on the new
	// asset's presentation values.
	e.visual.SetOpacity(asset.Opacity)
	e.visual.SetScale(asset.Scale)

	if prev != "" && prev != key {
		e.events.ChannelStopped(prev)
	}
	e.reg.SetMainMedia(key)
	e.reg.SetMainVisual(key)
	e.reg.SetVideoPaused(false)
	e.events.ChannelStarted(key, asset.Path)

	e.logger.Info().
		Str("key", string(key)).
		Str("path", asset.Path).
		Str("kind", asset.Kind.String()).
		Msg("visual started")
	return nil
}

func (e *Engine) clickAudioSlot(key SlotKey, asset *media.Asset) error {
	owner := e.reg.AudioOwner(asset.Path)
	switch {
	case owner == key:
		p := e.audio[key]
		if p == nil {
			// Registry says we own the file but the player is gone.
			// Trust the outputs and rebuild rather than crash.
			e.logger.Error().
				Str("key", string(key)).
				Str("path", asset.Path).
				Msg("audio owner without player, resyncing")
			e.reg.ReleaseAudio(asset.Path)
			return e.startAudioSlot(key, asset)
		}
		if e.reg.Paused(key) {
			pos := snapNearEnd(e.reg.Position(key), p.Duration())
			p.Seek(pos)
			p.Play()
			e.reg.SetPaused(key, false)
			e.events.ChannelResumed(key, pos)
		} else {
			pos := p.Position()
			p.Pause()
			e.reg.SavePosition(key, pos)
			e.reg.SetPaused(key, true)
			e.saveResume(asset.Path, pos)
			e.events.ChannelPaused(key, pos)
		}
		return nil

	case owner != "":
		e.events.DuplicateAudioRejected(key, asset.Path)
		e.logger.Info().
			Str("key", string(key)).
			Str("owner", string(owner)).
			Str("path", asset.Path).
			Msg("duplicate audio rejected")
		return fmt.Errorf("%w: %s held by %s", ErrDuplicateAudio, asset.Path, owner)

	default:
		return e.startAudioSlot(key, asset)
	}
}

func (e *Engine) startAudioSlot(key SlotKey, asset *media.Asset) error {
	p := e.newAudio()
	if err := p.Load(asset); err != nil {
		cls := classifyLoadError(err)
		e.events.PlaybackFailed(key, cls)
		e.logger.Warn().Err(cls).Str("key", string(key)).Str("path", asset.Path).Msg("audio start failed")
		return cls
	}
	p.SetVolume(asset.Volume)
	p.SetSpeed(asset.Speed)

	pos := e.restorePosition(key, asset.Path, p.Duration(), true)
	if pos > 0 {
		p.Seek(pos)
	}
	path := asset.Path
	p.OnEnd(func() { e.audioEnded(key, path) })
	p.Play()

	e.audio[key] = p
	e.reg.RegisterAudio(asset.Path, key)
	e.reg.SetPaused(key, false)
	e.events.ChannelStarted(key, asset.Path)

	e.logger.Info().Str("key", string(key)).Str("path", asset.Path).Dur("pos", pos).Msg("audio started")
	return nil
}

// stopAudioChannel stops and releases an owned audio player, saving the
// file's resume position. No-op when the key owns no player.
func (e *Engine) stopAudioChannel(key SlotKey) {
	p := e.audio[key]
	if p == nil {
		return
	}
	path := e.reg.AudioPathOwnedBy(key)
	if pos := p.Position(); pos > 0 {
		e.saveResume(path, pos)
	}
	p.Stop()
	delete(e.audio, key)
	if path != "" {
		e.reg.ReleaseAudio(path)
	}
	e.reg.ClearPosition(key)
	e.reg.SetPaused(key, false)
	if e.reg.MainAudioKey() == key {
		e.reg.SetMainAudio("")
	}
}

// StopAll stops every channel and clears session state. Per-file resume
// positions survive.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if key := e.reg.MainMediaKey(); key != "" {
		if d := e.visual.Duration(); d > 0 && !e.reg.VideoPaused() {
			e.saveResumeForMain(key)
		}
		e.visual.Stop()
		e.events.ChannelStopped(key)
	}

	for key := range e.audio {
		e.stopAudioChannel(key)
		e.events.ChannelStopped(key)
	}

	for _, col := range e.reg.ActiveTriggerColumns() {
		e.events.TriggerChanged(col, TriggerStopped)
	}

	e.reg.Reset()
	e.logger.Info().Msg("all playback stopped")
}

func (e *Engine) saveResumeForMain(key SlotKey) {
	pos := e.visual.Position()
	e.reg.SavePosition(key, pos)
	if col, row, ok := key.Coordinates(); ok {
		if asset := e.grid.Asset(col, row); asset != nil {
			e.saveResume(asset.Path, pos)
		}
	}
}

// PruneSlot clears all playback state tied to a removed slot, stopping
// its channels if they are live.
func (e *Engine) PruneSlot(col, row int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := SlotKeyFor(col, row)
	if e.reg.MainMediaKey() == key {
		e.stopMainVisual(key)
	}
	if _, ok := e.audio[key]; ok {
		e.stopAudioChannel(key)
		e.events.ChannelStopped(key)
	}
	e.reg.PruneKey(key)
}

// CorrectDrift nudges the preview output back onto the live output's
// timeline when the main channel is a playing video. Called from a
// periodic tick.
func (e *Engine) CorrectDrift() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reg.MainVisualKey() == "" || e.reg.VideoPaused() {
		return
	}
	if e.visual.Duration() <= 0 {
		return
	}
	e.visual.CorrectDrift(time.Now())
}

// mainEnded handles end-of-media on the main visual channel: the screen
// clears, the finished channel's position resets, and auto-advance may
// click the next row of the same column after a short delay.
func (e *Engine) mainEnded() {
	e.mu.Lock()

	key := e.reg.MainMediaKey()
	if key == "" {
		e.mu.Unlock()
		return
	}
	e.reg.ClearPosition(key)
	if col, row, ok := key.Coordinates(); ok {
		if asset := e.grid.Asset(col, row); asset != nil {
			e.clearResume(asset.Path)
		}
	}
	e.stopMainVisual(key)

	col, row, ordinary := key.Coordinates()
	advance := e.cfg.AutoAdvance && ordinary
	delay := e.cfg.AutoAdvanceDelay
	e.mu.Unlock()

	e.logger.Info().Str("key", string(key)).Msg("main channel reached end")

	if advance {
		time.AfterFunc(delay, func() {
			if e.grid.Asset(col, row+1) == nil {
				return
			}
			if err := e.ClickSlot(col, row+1); err != nil {
				e.logger.Warn().Err(err).Int("column", col).Int("row", row+1).Msg("auto-advance failed")
			}
		})
	}
}

func (e *Engine) audioEnded(key SlotKey, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.audio[key]
	if p == nil || e.reg.AudioOwner(path) != key {
		return
	}
	p.Stop()
	delete(e.audio, key)
	e.reg.ReleaseAudio(path)
	e.reg.ClearPosition(key)
	e.reg.SetPaused(key, false)
	e.clearResume(path)
	if e.reg.MainAudioKey() == key {
		e.reg.SetMainAudio("")
	}
	e.events.ChannelStopped(key)

	e.logger.Debug().Str("key", string(key)).Str("path", path).Msg("audio channel reached end")
}

// restorePosition decides where a channel resumes: the channel's own
// saved position first (when applicable), then the per-file resume
// position, snapped to zero when within the near-end window.
func (e *Engine) restorePosition(key SlotKey, path string, dur time.Duration, usePositionKey bool) time.Duration {
	var pos time.Duration
	if usePositionKey {
		pos = e.reg.Position(key)
	}
	if pos == 0 && path != "" {
		if saved, ok := e.reg.ResumeFor(path); ok {
			pos = saved
		}
	}
	return snapNearEnd(pos, dur)
}

func (e *Engine) saveResume(path string, pos time.Duration) {
	if path == "" {
		return
	}
	e.reg.SaveResume(path, pos)
	if e.store != nil {
		if err := e.store.Save(path, pos); err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("failed to persist resume position")
		}
	}
}

// clearResume forgets a file's resume position after it played to the
// end, in memory and in the store.
func (e *Engine) clearResume(path string) {
	if path == "" {
		return
	}
	e.reg.ClearResume(path)
	if e.store != nil {
		if err := e.store.Delete(path); err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("failed to delete resume position")
		}
	}
}

// snapNearEnd treats positions within the snap window of the end as
// finished and restarts from zero.
func snapNearEnd(pos, dur time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if dur > 0 && dur-pos < nearEndSnap {
		return 0
	}
	return pos
}
