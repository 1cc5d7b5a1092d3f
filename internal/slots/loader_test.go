package slots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"cuegrid/internal/media"
)

func TestLoaderSkipsBadEntries(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "open.mp4")
	require.NoError(t, os.WriteFile(good, []byte("x"), 0o644))

	grid := NewGrid()
	loader := NewLoader(grid, media.NewProber(zerolog.Nop()), zerolog.Nop())

	loaded := loader.Load([]Entry{
		{Column: 1, Row: 3, Path: good},
		{Column: 2, Row: 3, Path: filepath.Join(dir, "missing.mp4")},
		{Column: 3, Row: 3, Path: dir},
		{Column: 4, Row: 3, Text: "Intermission"},
		{Column: 0, Row: 3, Path: good},
	})

	require.Equal(t, 2, loaded)

	a := grid.Asset(1, 3)
	require.NotNil(t, a)
	require.Equal(t, media.KindVideo, a.Kind)

	require.Nil(t, grid.Asset(2, 3))
	require.Nil(t, grid.Asset(3, 3))

	txt := grid.Asset(4, 3)
	require.NotNil(t, txt)
	require.Equal(t, media.KindText, txt.Kind)
	require.Equal(t, "Intermission", txt.Text.Content)
}
