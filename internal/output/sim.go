package output

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cuegrid/internal/media"
)

// SimPort is a clock-driven Port with no real rendering: position
// advances with wall time while playing and an end-of-media callback
// fires when the asset's probed duration elapses. The daemon runs on
// SimPorts until a real render backend is attached; tests drive them
// directly.
type SimPort struct {
	name   string
	logger zerolog.Logger

	mu       sync.Mutex
	asset    *media.Asset
	playing  bool
	base     time.Duration
	started  time.Time
	speed    float64
	volume   float64
	opacity  float64
	scale    float64
	rotation float64
	offset   float64
	widthPx  float64
	onEnd    func()
	endTimer *time.Timer
}

func NewSimPort(name string, logger zerolog.Logger) *SimPort {
	return &SimPort{
		name:    name,
		logger:  logger,
		speed:   1.0,
		volume:  1.0,
		opacity: 1.0,
		scale:   1.0,
		widthPx: 1920,
	}
}

func (p *SimPort) Load(asset *media.Asset) error {
	if asset.Kind != media.KindText {
		info, err := os.Stat(asset.Path)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrNotFound, asset.Path)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrDecode, asset.Path)
		}
		if media.KindForFile(asset.Path) == media.KindUnknown {
			return fmt.Errorf("%w: %s", ErrDecode, asset.Path)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimerLocked()
	p.asset = asset
	p.playing = false
	p.base = 0
	p.speed = asset.Speed
	if p.speed <= 0 {
		p.speed = 1.0
	}

	p.logger.Debug().
		Str("port", p.name).
		Str("path", asset.Path).
		Str("kind", asset.Kind.String()).
		Msg("loaded")
	return nil
}

func (p *SimPort) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.asset == nil || p.playing {
		return
	}
	p.playing = true
	p.started = time.Now()
	p.armTimerLocked()
}

func (p *SimPort) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	p.base = p.positionLocked()
	p.playing = false
	p.stopTimerLocked()
}

func (p *SimPort) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimerLocked()
	p.asset = nil
	p.playing = false
	p.base = 0
}

func (p *SimPort) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if d := p.durationLocked(); d > 0 && pos > d {
		pos = d
	}
	p.base = pos
	if p.playing {
		p.started = time.Now()
		p.armTimerLocked()
	}
}

func (p *SimPort) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *SimPort) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationLocked()
}

func (p *SimPort) SetVolume(v float64)        { p.mu.Lock(); p.volume = v; p.mu.Unlock() }
func (p *SimPort) SetOpacity(v float64)       { p.mu.Lock(); p.opacity = v; p.mu.Unlock() }
func (p *SimPort) SetScale(factor float64)    { p.mu.Lock(); p.scale = factor; p.mu.Unlock() }
func (p *SimPort) SetRotation(deg float64)    { p.mu.Lock(); p.rotation = deg; p.mu.Unlock() }
func (p *SimPort) SetOffset(dx float64)       { p.mu.Lock(); p.offset = dx; p.mu.Unlock() }
func (p *SimPort) Volume() float64            { p.mu.Lock(); defer p.mu.Unlock(); return p.volume }

func (p *SimPort) SetSpeed(ratio float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ratio <= 0 {
		return
	}
	// Fold the elapsed portion at the old speed into base so the
	// position stays continuous across the change.
	if p.playing {
		p.base = p.positionLocked()
		p.started = time.Now()
	}
	p.speed = ratio
	if p.playing {
		p.armTimerLocked()
	}
}

func (p *SimPort) Width() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.asset == nil || !p.asset.Kind.Visual() {
		return 0
	}
	return p.widthPx
}

func (p *SimPort) OnEnd(fn func()) {
	p.mu.Lock()
	p.onEnd = fn
	p.mu.Unlock()
}

func (p *SimPort) positionLocked() time.Duration {
	pos := p.base
	if p.playing {
		pos += time.Duration(float64(time.Since(p.started)) * p.speed)
	}
	if d := p.durationLocked(); d > 0 && pos > d {
		pos = d
	}
	return pos
}

func (p *SimPort) durationLocked() time.Duration {
	if p.asset == nil {
		return 0
	}
	return p.asset.Duration
}

func (p *SimPort) armTimerLocked() {
	p.stopTimerLocked()

	d := p.durationLocked()
	if d <= 0 {
		return
	}
	remaining := time.Duration(float64(d-p.base) / p.speed)
	if remaining < 0 {
		remaining = 0
	}
	p.endTimer = time.AfterFunc(remaining, p.fireEnd)
}

func (p *SimPort) stopTimerLocked() {
	if p.endTimer != nil {
		p.endTimer.Stop()
		p.endTimer = nil
	}
}

func (p *SimPort) fireEnd() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.base = p.durationLocked()
	p.playing = false
	p.endTimer = nil
	fn := p.onEnd
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}
