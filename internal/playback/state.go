package playback

import (
	"sort"
	"time"
)

// AudioChannelInfo describes one live dedicated audio channel.
type AudioChannelInfo struct {
	Key      SlotKey       `json:"key"`
	Path     string        `json:"path"`
	Paused   bool          `json:"paused"`
	Position time.Duration `json:"position"`
}

// TriggerInfo describes one non-stopped trigger column.
type TriggerInfo struct {
	Column        int     `json:"column"`
	State         string  `json:"state"`
	BorrowedAudio SlotKey `json:"borrowed_audio,omitempty"`
}

// State is a point-in-time snapshot of the engine for the control API.
type State struct {
	MainMediaKey        SlotKey            `json:"main_media_key,omitempty"`
	MainVisualKey       SlotKey            `json:"main_visual_key,omitempty"`
	MainAudioKey        SlotKey            `json:"main_audio_key,omitempty"`
	VideoPaused         bool               `json:"video_paused"`
	VisualPosition      time.Duration      `json:"visual_position"`
	VisualDuration      time.Duration      `json:"visual_duration"`
	ActiveTriggerColumn int                `json:"active_trigger_column,omitempty"`
	Triggers            []TriggerInfo      `json:"triggers"`
	AudioChannels       []AudioChannelInfo `json:"audio_channels"`
}

// State returns a consistent snapshot under the engine lock.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		MainMediaKey:        e.reg.MainMediaKey(),
		MainVisualKey:       e.reg.MainVisualKey(),
		MainAudioKey:        e.reg.MainAudioKey(),
		VideoPaused:         e.reg.VideoPaused(),
		ActiveTriggerColumn: e.reg.ActiveTriggerColumn(),
		Triggers:            []TriggerInfo{},
		AudioChannels:       []AudioChannelInfo{},
	}
	if st.MainMediaKey != "" {
		st.VisualPosition = e.visual.Position()
		st.VisualDuration = e.visual.Duration()
	}

	for _, col := range e.reg.ActiveTriggerColumns() {
		st.Triggers = append(st.Triggers, TriggerInfo{
			Column:        col,
			State:         e.reg.TriggerState(col).String(),
			BorrowedAudio: e.reg.BorrowedAudio(col),
		})
	}
	sort.Slice(st.Triggers, func(i, j int) bool {
		return st.Triggers[i].Column < st.Triggers[j].Column
	})

	for key, p := range e.audio {
		st.AudioChannels = append(st.AudioChannels, AudioChannelInfo{
			Key:      key,
			Path:     e.reg.AudioPathOwnedBy(key),
			Paused:   e.reg.Paused(key),
			Position: p.Position(),
		})
	}
	sort.Slice(st.AudioChannels, func(i, j int) bool {
		return st.AudioChannels[i].Key < st.AudioChannels[j].Key
	})

	return st
}
