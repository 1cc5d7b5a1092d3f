package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cuegrid/internal/media"
)

func TestAssignClassifiesByExtension(t *testing.T) {
	g := NewGrid()

	s, err := g.Assign(1, 3, media.Asset{Path: "/media/v.mp4", Duration: 10 * time.Second})
	require.NoError(t, err)
	require.Equal(t, media.KindVideo, s.Asset.Kind)
	require.False(t, s.Reserved)
	require.Equal(t, 1.0, s.Asset.Speed, "defaults normalized")
	require.Equal(t, 1.0, s.Asset.Opacity)

	s, err = g.Assign(2, 3, media.Asset{Path: "/media/pic.png"})
	require.NoError(t, err)
	require.Equal(t, media.KindImage, s.Asset.Kind)

	s, err = g.Assign(3, 3, media.Asset{Path: "/media/song.mp3"})
	require.NoError(t, err)
	require.Equal(t, media.KindAudio, s.Asset.Kind)
}

func TestAssignTextSlot(t *testing.T) {
	g := NewGrid()

	s, err := g.Assign(1, 4, media.Asset{
		Text: &media.TextSpec{Content: "Intermission", Size: 72},
	})
	require.NoError(t, err)
	require.Equal(t, media.KindText, s.Asset.Kind)
	require.Equal(t, "Intermission", s.Asset.Text.Content)
}

func TestAssignRejectsInvalid(t *testing.T) {
	g := NewGrid()

	_, err := g.Assign(0, 1, media.Asset{Path: "/media/v.mp4"})
	require.Error(t, err)

	_, err = g.Assign(1, 1, media.Asset{Path: "/media/notes.xyz"})
	require.Error(t, err)

	_, err = g.Assign(1, 1, media.Asset{Kind: media.KindVideo})
	require.Error(t, err, "non-text assets need a path")
}

func TestTriggerRowsAreReserved(t *testing.T) {
	g := NewGrid()

	for row := 1; row <= TriggerRows; row++ {
		s, err := g.Assign(2, row, media.Asset{Path: "/media/v.mp4"})
		require.NoError(t, err)
		require.True(t, s.Reserved)
	}

	s, err := g.Assign(2, TriggerRows+1, media.Asset{Path: "/media/v.mp4"})
	require.NoError(t, err)
	require.False(t, s.Reserved)
}

func TestClearAndLookup(t *testing.T) {
	g := NewGrid()

	_, err := g.Assign(1, 3, media.Asset{Path: "/media/v.mp4"})
	require.NoError(t, err)
	require.NotNil(t, g.Asset(1, 3))
	require.NotNil(t, g.Slot(1, 3))

	require.True(t, g.Clear(1, 3))
	require.Nil(t, g.Asset(1, 3))
	require.False(t, g.Clear(1, 3), "second clear is a no-op")
}

func TestAssignReplacesPrevious(t *testing.T) {
	g := NewGrid()

	_, err := g.Assign(1, 3, media.Asset{Path: "/media/old.mp4"})
	require.NoError(t, err)
	_, err = g.Assign(1, 3, media.Asset{Path: "/media/new.png"})
	require.NoError(t, err)

	a := g.Asset(1, 3)
	require.Equal(t, "/media/new.png", a.Path)
	require.Equal(t, media.KindImage, a.Kind)
}

func TestSnapshot(t *testing.T) {
	g := NewGrid()

	_, err := g.Assign(1, 3, media.Asset{Path: "/media/a.mp4"})
	require.NoError(t, err)
	_, err = g.Assign(2, 4, media.Asset{Path: "/media/b.mp3"})
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Len(t, snap, 2)

	paths := []string{snap[0].Asset.Path, snap[1].Asset.Path}
	require.ElementsMatch(t, []string{"/media/a.mp4", "/media/b.mp3"}, paths)
}
