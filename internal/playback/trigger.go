package playback

import (
	"fmt"

	"cuegrid/internal/media"
)

// triggerLegRows: rows of a column inspected for trigger legs, by
// convention the first two.
const triggerLegRows = 2

// classifyTriggerLegs inspects a column's reserved rows: a video or
// image slot becomes the visual leg, an audio slot the audio leg. Two
// slots of the same leg kind make the configuration ambiguous and the
// trigger refuses to start.
func (e *Engine) classifyTriggerLegs(col int) (vis, aud *media.Asset, err error) {
	for row := 1; row <= triggerLegRows; row++ {
		a := e.grid.Asset(col, row)
		if a == nil {
			continue
		}
		switch a.Kind {
		case media.KindAudio:
			if aud != nil {
				return nil, nil, fmt.Errorf("%w: column %d has two audio slots", ErrAmbiguousTrigger, col)
			}
			aud = a
		case media.KindVideo, media.KindImage:
			if vis != nil {
				return nil, nil, fmt.Errorf("%w: column %d has two visual slots", ErrAmbiguousTrigger, col)
			}
			vis = a
		}
	}
	return vis, aud, nil
}

// ClickTrigger runs the trigger column state machine: stopped columns
// start, playing columns pause, paused columns resume.
func (e *Engine) ClickTrigger(col int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.reg.TriggerState(col) {
	case TriggerPlaying:
		return e.pauseTrigger(col)
	case TriggerPaused:
		return e.resumeTrigger(col)
	default:
		return e.startTrigger(col)
	}
}

// StopTrigger stops a trigger column outright.
func (e *Engine) StopTrigger(col int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reg.TriggerState(col) == TriggerStopped {
		return nil
	}
	e.stopTriggerLocked(col, "")
	return nil
}

func (e *Engine) startTrigger(col int) error {
	key := TriggerKeyFor(col)

	vis, aud, err := e.classifyTriggerLegs(col)
	if err != nil {
		e.events.PlaybackFailed(key, err)
		e.logger.Warn().Err(err).Int("column", col).Msg("trigger rejected")
		return err
	}
	if vis == nil && aud == nil {
		e.events.AssignmentRequested(key)
		return nil
	}

	// Only one trigger column may be live. Stopping the previous one
	// must not touch an audio channel the new trigger is about to
	// share.
	if prev := e.reg.ActiveTriggerColumn(); prev != 0 && prev != col {
		keep := ""
		if aud != nil {
			keep = aud.Path
		}
		e.stopTriggerLocked(prev, keep)
	}

	freshAudio := false
	var audioOwner SlotKey
	if aud != nil {
		owner := e.reg.AudioOwner(aud.Path)
		switch {
		case owner == "":
			p := e.newAudio()
			if err := p.Load(aud); err != nil {
				cls := classifyLoadError(err)
				e.events.PlaybackFailed(key, cls)
				e.logger.Warn().Err(cls).Int("column", col).Str("path", aud.Path).Msg("trigger audio failed")
				return cls
			}
			p.SetVolume(aud.Volume)
			p.SetSpeed(aud.Speed)
			pos := e.restorePosition(key, aud.Path, p.Duration(), true)
			if pos > 0 {
				p.Seek(pos)
			}
			path := aud.Path
			p.OnEnd(func() { e.audioEnded(key, path) })
			p.Play()
			e.audio[key] = p
			e.reg.RegisterAudio(aud.Path, key)
			e.reg.SetPaused(key, false)
			freshAudio = true
			audioOwner = key

		case owner == key:
			// Our own channel survived a trigger switch; it keeps
			// playing exactly where it is.
			audioOwner = key

		default:
			// The file is live in another channel: borrow it. The
			// lender keeps ownership and its position is untouched.
			e.reg.SetBorrowedAudio(col, owner)
			audioOwner = owner
			e.logger.Debug().
				Int("column", col).
				Str("lender", string(owner)).
				Str("path", aud.Path).
				Msg("trigger borrowing live audio channel")
		}
	}

	if vis != nil {
		if err := e.startVisual(key, vis, false); err != nil {
			if freshAudio {
				e.stopAudioChannel(key)
			}
			e.reg.ClearBorrowedAudio(col)
			return err
		}
	}

	e.reg.SetTriggerState(col, TriggerPlaying)
	e.reg.SetActiveTrigger(col)
	if audioOwner != "" {
		e.reg.SetMainAudio(audioOwner)
	}
	e.events.TriggerChanged(col, TriggerPlaying)

	e.logger.Info().Int("column", col).Msg("trigger started")
	return nil
}

// pauseTrigger pauses both legs together when they are co-owned. A
// borrowed audio channel belongs to someone else and is left alone.
func (e *Engine) pauseTrigger(col int) error {
	key := TriggerKeyFor(col)
	vis, _, _ := e.classifyTriggerLegs(col)

	if e.reg.MainVisualKey() == key && vis != nil && vis.Kind == media.KindVideo && !e.reg.VideoPaused() {
		pos := e.visual.Position()
		e.visual.Pause()
		e.reg.SetVideoPaused(true)
		e.saveResume(vis.Path, pos)
	}

	if p := e.audio[key]; p != nil && !e.reg.Paused(key) {
		pos := p.Position()
		p.Pause()
		e.reg.SavePosition(key, pos)
		e.reg.SetPaused(key, true)
		e.saveResume(e.reg.AudioPathOwnedBy(key), pos)
	}

	e.reg.SetTriggerState(col, TriggerPaused)
	e.events.TriggerChanged(col, TriggerPaused)

	e.logger.Debug().Int("column", col).Msg("trigger paused")
	return nil
}

func (e *Engine) resumeTrigger(col int) error {
	key := TriggerKeyFor(col)

	if e.reg.MainVisualKey() == key && e.reg.VideoPaused() {
		e.visual.Play()
		e.reg.SetVideoPaused(false)
	}

	if p := e.audio[key]; p != nil && e.reg.Paused(key) {
		pos := snapNearEnd(e.reg.Position(key), p.Duration())
		p.Seek(pos)
		p.Play()
		e.reg.SetPaused(key, false)
	}

	e.reg.SetTriggerState(col, TriggerPlaying)
	e.reg.SetActiveTrigger(col)
	e.events.TriggerChanged(col, TriggerPlaying)

	e.logger.Debug().Int("column", col).Msg("trigger resumed")
	return nil
}

// stopTriggerLocked stops a trigger column. keepAudioPath names an
// audio file the caller is about to reuse: a channel playing that exact
// file keeps running (and keeps its owner) across the switch.
func (e *Engine) stopTriggerLocked(col int, keepAudioPath string) {
	key := TriggerKeyFor(col)

	if e.reg.MainVisualKey() == key {
		e.visual.Stop()
		e.reg.SetMainVisual("")
		if e.reg.MainMediaKey() == key {
			e.reg.SetMainMedia("")
		}
		e.reg.SetVideoPaused(false)
	}

	ownedPath := e.reg.AudioPathOwnedBy(key)
	if _, ok := e.audio[key]; ok {
		if ownedPath == "" || ownedPath != keepAudioPath {
			e.stopAudioChannel(key)
		}
	}

	e.reg.ClearBorrowedAudio(col)
	e.reg.SetTriggerState(col, TriggerStopped)
	if e.reg.ActiveTriggerColumn() == col {
		e.reg.SetActiveTrigger(0)
	}
	e.events.TriggerChanged(col, TriggerStopped)
	e.events.ChannelStopped(key)

	e.logger.Debug().Int("column", col).Msg("trigger stopped")
}
