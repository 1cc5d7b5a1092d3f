package output

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cuegrid/internal/media"
)

// StretchMode controls how the secondary output fits content to its
// screen.
type StretchMode int

const (
	// StretchUniform preserves aspect ratio.
	StretchUniform StretchMode = iota
	// StretchFill fills the screen and crops.
	StretchFill
)

func (m StretchMode) String() string {
	if m == StretchFill {
		return "fill"
	}
	return "uniform"
}

// ParseStretchMode maps a config string to a StretchMode, defaulting to
// uniform.
func ParseStretchMode(s string) StretchMode {
	if s == "fill" {
		return StretchFill
	}
	return StretchUniform
}

// Mirror drives the primary output and replays every content and
// transport command on the secondary output when one is attached. The
// secondary is always muted so the audience hears a single audio path.
//
// Transform commands (opacity, scale, rotation, offset) fan out to both
// ports from the same call, which keeps transition animations in
// lockstep: there is no point where one output has advanced a step the
// other has not.
type Mirror struct {
	primary Port
	logger  zerolog.Logger

	mu        sync.Mutex
	secondary Port
	stretch   StretchMode

	// Applied transform state, remembered so transitions can read the
	// values they need to compose with and restore.
	opacity  float64
	scale    float64
	rotation float64
	offset   float64

	driftThreshold time.Duration
	driftMinGap    time.Duration
	lastCorrected  time.Time
}

func NewMirror(primary Port, logger zerolog.Logger) *Mirror {
	return &Mirror{
		primary:        primary,
		logger:         logger,
		opacity:        1.0,
		scale:          1.0,
		driftThreshold: 250 * time.Millisecond,
		driftMinGap:    2 * time.Second,
	}
}

// AttachSecondary connects the audience display. Passing nil detaches.
func (m *Mirror) AttachSecondary(p Port) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secondary = p
	if p != nil {
		p.SetVolume(0)
	}
}

func (m *Mirror) HasSecondary() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secondary != nil
}

func (m *Mirror) SetStretch(mode StretchMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stretch = mode
}

func (m *Mirror) Stretch() StretchMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stretch
}

// SetDriftPolicy configures drift correction. Zero values keep the
// current settings.
func (m *Mirror) SetDriftPolicy(threshold, minGap time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if threshold > 0 {
		m.driftThreshold = threshold
	}
	if minGap > 0 {
		m.driftMinGap = minGap
	}
}

func (m *Mirror) second() Port {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secondary
}

// Load puts the asset on the primary output and mirrors it. A failure
// on the secondary is logged but does not fail the load: the preview
// keeps working while the operator sorts out the live screen.
func (m *Mirror) Load(asset *media.Asset) error {
	if err := m.primary.Load(asset); err != nil {
		return err
	}
	if s := m.second(); s != nil {
		if err := s.Load(asset); err != nil {
			m.logger.Warn().Err(err).Str("path", asset.Path).Msg("secondary output load failed")
		} else {
			s.SetVolume(0)
		}
	}
	return nil
}

func (m *Mirror) Play() {
	m.primary.Play()
	if s := m.second(); s != nil {
		s.Play()
	}
}

func (m *Mirror) Pause() {
	m.primary.Pause()
	if s := m.second(); s != nil {
		s.Pause()
	}
}

func (m *Mirror) Stop() {
	m.primary.Stop()
	if s := m.second(); s != nil {
		s.Stop()
	}
}

func (m *Mirror) Seek(pos time.Duration) {
	m.primary.Seek(pos)
	if s := m.second(); s != nil {
		s.Seek(pos)
	}
}

func (m *Mirror) Position() time.Duration { return m.primary.Position() }
func (m *Mirror) Duration() time.Duration { return m.primary.Duration() }
func (m *Mirror) Width() float64          { return m.primary.Width() }

// SetVolume applies to the primary only; the secondary stays muted.
func (m *Mirror) SetVolume(v float64) {
	m.primary.SetVolume(v)
}

func (m *Mirror) SetSpeed(ratio float64) {
	m.primary.SetSpeed(ratio)
	if s := m.second(); s != nil {
		s.SetSpeed(ratio)
	}
}

func (m *Mirror) SetOpacity(v float64) {
	m.mu.Lock()
	m.opacity = v
	s := m.secondary
	m.mu.Unlock()

	m.primary.SetOpacity(v)
	if s != nil {
		s.SetOpacity(v)
	}
}

func (m *Mirror) SetScale(factor float64) {
	m.mu.Lock()
	m.scale = factor
	s := m.secondary
	m.mu.Unlock()

	m.primary.SetScale(factor)
	if s != nil {
		s.SetScale(factor)
	}
}

func (m *Mirror) SetRotation(degrees float64) {
	m.mu.Lock()
	m.rotation = degrees
	s := m.secondary
	m.mu.Unlock()

	m.primary.SetRotation(degrees)
	if s != nil {
		s.SetRotation(degrees)
	}
}

func (m *Mirror) SetOffset(dx float64) {
	m.mu.Lock()
	m.offset = dx
	s := m.secondary
	m.mu.Unlock()

	m.primary.SetOffset(dx)
	if s != nil {
		s.SetOffset(dx)
	}
}

func (m *Mirror) Opacity() float64  { m.mu.Lock(); defer m.mu.Unlock(); return m.opacity }
func (m *Mirror) Scale() float64    { m.mu.Lock(); defer m.mu.Unlock(); return m.scale }
func (m *Mirror) Rotation() float64 { m.mu.Lock(); defer m.mu.Unlock(); return m.rotation }
func (m *Mirror) Offset() float64   { m.mu.Lock(); defer m.mu.Unlock(); return m.offset }

// OnEnd registers on the primary output only; end-of-media decisions
// come from a single clock.
func (m *Mirror) OnEnd(fn func()) {
	m.primary.OnEnd(fn)
}

// CorrectDrift realigns the two outputs if their positions have drifted
// past the threshold. Only the primary (preview) position is ever
// adjusted: the audience display must never glitch. Corrections are
// throttled to at most one per minimum gap.
func (m *Mirror) CorrectDrift(now time.Time) bool {
	m.mu.Lock()
	s := m.secondary
	threshold := m.driftThreshold
	minGap := m.driftMinGap
	last := m.lastCorrected
	m.mu.Unlock()

	if s == nil {
		return false
	}
	if now.Sub(last) < minGap {
		return false
	}

	pp := m.primary.Position()
	sp := s.Position()
	diff := pp - sp
	if diff < 0 {
		diff = -diff
	}
	if diff <= threshold {
		return false
	}

	m.primary.Seek(sp)

	m.mu.Lock()
	m.lastCorrected = now
	m.mu.Unlock()

	m.logger.Debug().
		Dur("primary", pp).
		Dur("secondary", sp).
		Msg("corrected preview drift")
	return true
}
