package media

import (
	"encoding/json"
	"time"
)

// Kind classifies what a slot's asset is and therefore which playback
// channel it occupies.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindImage
	KindAudio
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the string form so API clients see "video", not an
// enum ordinal.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Visual reports whether the kind occupies the visual channel.
func (k Kind) Visual() bool {
	return k == KindVideo || k == KindImage || k == KindText
}

// Timed reports whether the kind has an intrinsic timeline.
func (k Kind) Timed() bool {
	return k == KindVideo || k == KindAudio
}

// TextSpec holds the presentation parameters of a text asset.
type TextSpec struct {
	Content  string  `json:"content" yaml:"content"`
	Font     string  `json:"font,omitempty" yaml:"font,omitempty"`
	Color    string  `json:"color,omitempty" yaml:"color,omitempty"`
	Size     float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Position string  `json:"position,omitempty" yaml:"position,omitempty"` // e.g. "center", "bottom"
}

// Asset is one piece of media assigned to a slot, together with its
// per-asset presentation parameters. Assets are value-copied into the
// playback layer; mutating a stored asset requires re-assignment.
type Asset struct {
	Path string `json:"path" yaml:"path"`
	Kind Kind   `json:"kind" yaml:"-"`

	// Presentation parameters. Zero values mean "default": speed 1.0,
	// opacity 1.0, volume 1.0, scale 1.0, rotation 0.
	Speed    float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
	Opacity  float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Volume   float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Scale    float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"` // degrees

	// Text is set only for KindText assets; Path is empty for those.
	Text *TextSpec `json:"text,omitempty" yaml:"text,omitempty"`

	// Duration is filled by the metadata prober when available.
	Duration time.Duration `json:"duration,omitempty" yaml:"-"`
}

// Normalize fills defaulted presentation parameters in place.
func (a *Asset) Normalize() {
	if a.Speed == 0 {
		a.Speed = 1.0
	}
	if a.Opacity == 0 {
		a.Opacity = 1.0
	}
	if a.Volume == 0 {
		a.Volume = 1.0
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
}
