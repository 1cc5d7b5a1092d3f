package output

import (
	"errors"
	"time"

	"cuegrid/internal/media"
)

// Load failures an output port can report. The playback layer maps
// these onto its operator-facing error taxonomy.
var (
	ErrNotFound = errors.New("media file not found")
	ErrDecode   = errors.New("media cannot be decoded")
)

// Port is the render-command abstraction the orchestration core drives.
// Two instances exist at runtime: the operator preview (primary) and the
// audience display (secondary); audio slots get dedicated instances.
//
// Load replaces whatever the port currently shows with an element of the
// asset's kind, so a video never lingers behind a still image. Ports are
// reusable after Stop.
type Port interface {
	Load(asset *media.Asset) error
	Play()
	Pause()
	Stop()
	Seek(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration

	SetVolume(v float64)
	SetOpacity(v float64)
	SetSpeed(ratio float64)
	SetScale(factor float64)
	SetRotation(degrees float64)
	SetOffset(dx float64)
	Width() float64

	// OnEnd registers the end-of-media callback. At most one callback
	// is active; registering replaces the previous one.
	OnEnd(fn func())
}

// Factory creates dedicated audio ports on demand.
type Factory func() Port
