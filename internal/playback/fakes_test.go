package playback

import (
	"fmt"
	"sync"
	"time"

	"cuegrid/internal/media"
	"cuegrid/internal/output"
)

// fakePort is a scriptable output port: position and duration are under
// test control, and every command is recorded.
type fakePort struct {
	mu sync.Mutex

	loaded  *media.Asset
	playing bool
	pos     time.Duration

	// durations overrides the loaded asset's duration per path.
	durations map[string]time.Duration

	volume   float64
	opacity  float64
	scale    float64
	rotation float64
	offset   float64
	speed    float64
	widthPx  float64

	onEnd    func()
	failLoad error
	ops      []string
}

func newFakePort() *fakePort {
	return &fakePort{
		volume:  1,
		opacity: 1,
		scale:   1,
		speed:   1,
		widthPx: 100,
	}
}

func (f *fakePort) record(op string) {
	f.ops = append(f.ops, op)
}

func (f *fakePort) opCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

func (f *fakePort) Load(asset *media.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad != nil {
		return f.failLoad
	}
	f.loaded = asset
	f.playing = false
	f.pos = 0
	f.record("load:" + asset.Path)
	return nil
}

func (f *fakePort) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	f.record("play")
}

func (f *fakePort) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.record("pause")
}

func (f *fakePort) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = nil
	f.playing = false
	f.pos = 0
	f.record("stop")
}

func (f *fakePort) Seek(pos time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = pos
	f.record(fmt.Sprintf("seek:%v", pos))
}

func (f *fakePort) setPos(pos time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = pos
}

func (f *fakePort) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakePort) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded == nil {
		return 0
	}
	if d, ok := f.durations[f.loaded.Path]; ok {
		return d
	}
	return f.loaded.Duration
}

func (f *fakePort) SetVolume(v float64)     { f.mu.Lock(); f.volume = v; f.mu.Unlock() }
func (f *fakePort) SetOpacity(v float64)    { f.mu.Lock(); f.opacity = v; f.mu.Unlock() }
func (f *fakePort) SetSpeed(v float64)      { f.mu.Lock(); f.speed = v; f.mu.Unlock() }
func (f *fakePort) SetScale(v float64)      { f.mu.Lock(); f.scale = v; f.mu.Unlock() }
func (f *fakePort) SetRotation(deg float64) { f.mu.Lock(); f.rotation = deg; f.mu.Unlock() }
func (f *fakePort) SetOffset(dx float64)    { f.mu.Lock(); f.offset = dx; f.mu.Unlock() }

func (f *fakePort) Width() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.widthPx
}

func (f *fakePort) OnEnd(fn func()) {
	f.mu.Lock()
	f.onEnd = fn
	f.mu.Unlock()
}

func (f *fakePort) fireEnd() {
	f.mu.Lock()
	fn := f.onEnd
	f.playing = false
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *fakePort) isPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakePort) loadedPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded == nil {
		return ""
	}
	return f.loaded.Path
}

var _ output.Port = (*fakePort)(nil)

// fakeGrid is an in-test DataSource.
type fakeGrid struct {
	mu     sync.Mutex
	assets map[[2]int]*media.Asset
}

func newFakeGrid() *fakeGrid {
	return &fakeGrid{assets: make(map[[2]int]*media.Asset)}
}

func (g *fakeGrid) put(col, row int, a media.Asset) {
	a.Normalize()
	g.mu.Lock()
	g.assets[[2]int{col, row}] = &a
	g.mu.Unlock()
}

func (g *fakeGrid) remove(col, row int) {
	g.mu.Lock()
	delete(g.assets, [2]int{col, row})
	g.mu.Unlock()
}

func (g *fakeGrid) Asset(col, row int) *media.Asset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.assets[[2]int{col, row}]
}

// recorder captures event notifications for assertions.
type recorder struct {
	mu         sync.Mutex
	started    []SlotKey
	paused     []SlotKey
	resumed    []SlotKey
	stopped    []SlotKey
	triggers   []string
	duplicates []string
	assigns    []SlotKey
	failures   []error
}

func (r *recorder) ChannelStarted(key SlotKey, path string) {
	r.mu.Lock()
	r.started = append(r.started, key)
	r.mu.Unlock()
}

func (r *recorder) ChannelPaused(key SlotKey, pos time.Duration) {
	r.mu.Lock()
	r.paused = append(r.paused, key)
	r.mu.Unlock()
}

func (r *recorder) ChannelResumed(key SlotKey, pos time.Duration) {
	r.mu.Lock()
	r.resumed = append(r.resumed, key)
	r.mu.Unlock()
}

func (r *recorder) ChannelStopped(key SlotKey) {
	r.mu.Lock()
	r.stopped = append(r.stopped, key)
	r.mu.Unlock()
}

func (r *recorder) TriggerChanged(column int, state TriggerState) {
	r.mu.Lock()
	r.triggers = append(r.triggers, fmt.Sprintf("%d:%s", column, state))
	r.mu.Unlock()
}

func (r *recorder) DuplicateAudioRejected(key SlotKey, path string) {
	r.mu.Lock()
	r.duplicates = append(r.duplicates, fmt.Sprintf("%s:%s", key, path))
	r.mu.Unlock()
}

func (r *recorder) AssignmentRequested(key SlotKey) {
	r.mu.Lock()
	r.assigns = append(r.assigns, key)
	r.mu.Unlock()
}

func (r *recorder) PlaybackFailed(key SlotKey, err error) {
	r.mu.Lock()
	r.failures = append(r.failures, err)
	r.mu.Unlock()
}

var _ Events = (*recorder)(nil)
