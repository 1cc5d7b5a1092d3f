package slots

import (
	"os"

	"github.com/rs/zerolog"

	"cuegrid/internal/media"
)

// Entry is one slot assignment from the startup layout.
type Entry struct {
	Column int
	Row    int
	Path   string
	Text   string
}

// Loader populates a grid from a startup layout: each entry is stat'ed,
// classified and probed for duration before assignment. Bad entries are
// logged and skipped so one missing file does not sink the whole layout.
type Loader struct {
	grid   *Grid
	prober *media.Prober
	logger zerolog.Logger
}

func NewLoader(grid *Grid, prober *media.Prober, logger zerolog.Logger) *Loader {
	return &Loader{
		grid:   grid,
		prober: prober,
		logger: logger,
	}
}

// Load assigns all entries and returns the number successfully placed.
func (l *Loader) Load(entries []Entry) int {
	loaded := 0
	for _, e := range entries {
		asset := media.Asset{Path: e.Path}
		if e.Text != "" {
			asset.Text = &media.TextSpec{Content: e.Text}
			asset.Path = ""
		} else {
			info, err := os.Stat(e.Path)
			if err != nil {
				l.logger.Warn().
					Err(err).
					Int("column", e.Column).
					Int("row", e.Row).
					Str("path", e.Path).
					Msg("layout entry file missing, skipping")
				continue
			}
			if info.IsDir() {
				l.logger.Warn().
					Int("column", e.Column).
					Int("row", e.Row).
					Str("path", e.Path).
					Msg("layout entry is a directory, skipping")
				continue
			}
		}

		kind := asset.Kind
		if asset.Text == nil {
			kind = media.KindForFile(asset.Path)
		}
		if kind.Timed() && l.prober != nil && l.prober.IsAvailable() {
			if meta, err := l.prober.Probe(asset.Path); err == nil {
				asset.Duration = meta.Duration
			}
		}

		if _, err := l.grid.Assign(e.Column, e.Row, asset); err != nil {
			l.logger.Warn().
				Err(err).
				Int("column", e.Column).
				Int("row", e.Row).
				Msg("layout entry rejected")
			continue
		}
		loaded++
	}

	l.logger.Info().Int("loaded", loaded).Int("total", len(entries)).Msg("layout loaded")
	return loaded
}
