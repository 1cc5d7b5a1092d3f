package transition

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Kind selects the visual effect run around a content swap.
type Kind int

const (
	Instant Kind = iota
	Fade
	Slide
	Zoom
)

func (k Kind) String() string {
	switch k {
	case Fade:
		return "fade"
	case Slide:
		return "slide"
	case Zoom:
		return "zoom"
	default:
		return "instant"
	}
}

// ParseKind maps a config string to a Kind. Unknown values fall back to
// Instant.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "fade":
		return Fade
	case "slide":
		return Slide
	case "zoom":
		return Zoom
	default:
		return Instant
	}
}

// Surface is the animatable face of an output channel. The mirror
// implements it by fanning each command out to both physical outputs,
// which keeps the two displays on the same animation step.
type Surface interface {
	Opacity() float64
	SetOpacity(v float64)
	Scale() float64
	SetScale(factor float64)
	Offset() float64
	SetOffset(dx float64)
	Width() float64
}

// Sleeper abstracts the delay between animation steps so tests can run
// transitions without wall-clock waits.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// NopSleeper runs transitions synchronously with zero delay.
type NopSleeper struct{}

func (NopSleeper) Sleep(time.Duration) {}

// Animation timing: each half of a transition is sampled at a fixed
// number of steps, and the per-step delay scales linearly with the
// configured duration (duration in seconds × 50ms per step).
const stepsPerHalf = 20

func stepDelay(duration time.Duration) time.Duration {
	return time.Duration(duration.Seconds() * float64(50*time.Millisecond))
}

// Engine runs timed visual effects around a content-swap callback.
type Engine struct {
	sleeper Sleeper
	logger  zerolog.Logger
}

func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		sleeper: realSleeper{},
		logger:  logger,
	}
}

// NewEngineWithSleeper injects a custom step clock.
func NewEngineWithSleeper(sleeper Sleeper, logger zerolog.Logger) *Engine {
	return &Engine{
		sleeper: sleeper,
		logger:  logger,
	}
}

// Apply animates the surface out, invokes swap exactly once at the
// midpoint, and animates back in. Pre-existing transforms (opacity,
// scale, offset) are composed with, not replaced, and are fully
// restored afterward even if the swap fails.
func (e *Engine) Apply(s Surface, kind Kind, duration time.Duration, swap func() error) error {
	if kind == Instant || duration <= 0 {
		return swap()
	}

	delay := stepDelay(duration)

	var out, in func(t float64)
	var restore func()

	switch kind {
	case Fade:
		base := s.Opacity()
		out = func(t float64) { s.SetOpacity(base * (1 - t)) }
		in = func(t float64) { s.SetOpacity(base * t) }
		restore = func() { s.SetOpacity(base) }
	case Slide:
		base := s.Offset()
		width := s.Width()
		out = func(t float64) { s.SetOffset(base + width*t) }
		in = func(t float64) { s.SetOffset(base + width*(1-t)) }
		restore = func() { s.SetOffset(base) }
	case Zoom:
		base := s.Scale()
		out = func(t float64) { s.SetScale(base * (1 - 0.5*t)) }
		in = func(t float64) { s.SetScale(base * (0.5 + 0.5*t)) }
		restore = func() { s.SetScale(base) }
	default:
		return swap()
	}

	e.runHalf(out, delay)
	err := swap()
	e.runHalf(in, delay)
	restore()

	if err != nil {
		e.logger.Warn().Err(err).Str("kind", kind.String()).Msg("swap failed mid-transition")
	}
	return err
}

func (e *Engine) runHalf(apply func(t float64), delay time.Duration) {
	for i := 1; i <= stepsPerHalf; i++ {
		apply(float64(i) / stepsPerHalf)
		e.sleeper.Sleep(delay)
	}
}
